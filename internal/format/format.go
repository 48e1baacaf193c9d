// Package format renders an evaluator.Result as the text the CLI prints,
// per spec §6: a null result is a bare success message, an integer count
// reports rows affected, a row list renders as an ASCII table (or "No rows
// returned." when empty). Grounded on the teacher's cmd/client/main.go
// printResult/padRight, restyled to the spec's exact `+---+` rule-line and
// `max(header_len, max_value_len)` padding contract rather than the
// teacher's `-+-`/"NULL" variant.
package format

import (
	"strconv"
	"strings"

	"github.com/Kara-Zor-El/sqlvault/internal/sql/evaluator"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// Result renders res per the spec §6 formatter contract.
func Result(res evaluator.Result) string {
	switch res.Kind {
	case evaluator.KindNone:
		return "Query executed successfully"
	case evaluator.KindCount:
		return "Query executed successfully. " + strconv.Itoa(res.Count) + " rows affected"
	default:
		return table(res.Columns, res.Rows)
	}
}

func table(cols []string, rows [][]types.Value) string {
	if len(rows) == 0 {
		return "No rows returned."
	}

	cells := make([][]string, len(rows))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(cols))
		for i := range cols {
			s := "null"
			if i < len(row) && !row[i].IsNull() {
				s = row[i].String()
			}
			cells[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	var sb strings.Builder
	writeRule(&sb, widths)
	writeRow(&sb, cols, widths)
	writeRule(&sb, widths)
	for _, row := range cells {
		writeRow(&sb, row, widths)
	}
	writeRule(&sb, widths)
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeRule(sb *strings.Builder, widths []int) {
	for _, w := range widths {
		sb.WriteByte('+')
		sb.WriteString(strings.Repeat("-", w+2))
	}
	sb.WriteString("+\n")
}

func writeRow(sb *strings.Builder, values []string, widths []int) {
	for i, w := range widths {
		sb.WriteString("| ")
		sb.WriteString(padRight(values[i], w))
		sb.WriteByte(' ')
	}
	sb.WriteString("|\n")
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
