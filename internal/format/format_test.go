package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kara-Zor-El/sqlvault/internal/sql/evaluator"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

func TestResult_KindNone(t *testing.T) {
	require.Equal(t, "Query executed successfully", Result(evaluator.Result{Kind: evaluator.KindNone}))
}

func TestResult_KindCount(t *testing.T) {
	got := Result(evaluator.Result{Kind: evaluator.KindCount, Count: 3})
	require.Equal(t, "Query executed successfully. 3 rows affected", got)
}

func TestResult_EmptyRowsMessage(t *testing.T) {
	got := Result(evaluator.Result{Kind: evaluator.KindRows, Columns: []string{"id"}, Rows: nil})
	require.Equal(t, "No rows returned.", got)
}

func TestResult_TableRendersNullAndPadsColumns(t *testing.T) {
	res := evaluator.Result{
		Kind:    evaluator.KindRows,
		Columns: []string{"id", "name"},
		Rows: [][]types.Value{
			{types.IntValue(1), types.StringValue("Alice")},
			{types.IntValue(2), types.NullValue()},
		},
	}
	got := Result(res)

	want := "" +
		"+----+-------+\n" +
		"| id | name  |\n" +
		"+----+-------+\n" +
		"| 1  | Alice |\n" +
		"| 2  | null  |\n" +
		"+----+-------+"
	require.Equal(t, want, got)
}
