// Package evaluator implements the tree-walking evaluator: it dispatches
// on the AST's root statement node, binds identifiers against the current
// row, performs dynamic type coercion and LIKE matching, groups and
// aggregates, and commits mutations back to the catalog. Grounded on the
// teacher's internal/sql/executor.Executor (tagged-switch over plan
// variants, Result{Columns,Rows,AffectedRows}), generalized from the
// teacher's planner-mediated dispatch into a direct AST walk since this
// spec has no separate query planner.
package evaluator

import (
	"sort"
	"strings"

	"github.com/Kara-Zor-El/sqlvault/internal/catalog"
	"github.com/Kara-Zor-El/sqlvault/internal/errx"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/ast"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// Kind tags which of the four result shapes spec §4.6 describes an
// Evaluator.Eval call produced.
type Kind int

const (
	KindNone  Kind = iota // DDL succeeded
	KindCount             // UPDATE/DELETE row count
	KindRows              // INSERT (inserted rows) or SELECT (result rows)
)

// Result is the generic shape every statement evaluates to.
type Result struct {
	Kind    Kind
	Count   int
	Columns []string
	Rows    [][]types.Value
}

// Evaluator walks an AST against a Database.
type Evaluator struct {
	DB *catalog.Database
}

func New(db *catalog.Database) *Evaluator {
	return &Evaluator{DB: db}
}

// Eval dispatches on the root AST node, per spec §4.6 "tagged-variant
// switch" (the Go idiom replaces the visitor double-dispatch the spec's
// design notes call out as unnecessary under pattern matching).
func (e *Evaluator) Eval(stmt ast.Stmt) (Result, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStmt:
		return e.evalCreateTable(s)
	case *ast.DropTableStmt:
		return e.evalDropTable(s)
	case *ast.ShowTablesStmt:
		return e.evalShowTables(s)
	case *ast.DescribeStmt:
		return e.evalDescribe(s)
	case *ast.InsertStmt:
		return e.evalInsert(s)
	case *ast.UpdateStmt:
		return e.evalUpdate(s)
	case *ast.DeleteStmt:
		return e.evalDelete(s)
	case *ast.SelectStmt:
		return e.evalSelect(s)
	default:
		return Result{}, errx.New(errx.SyntaxError, "evaluator: unknown statement type")
	}
}

// ---- CREATE / DROP / SHOW / DESCRIBE ----

func (e *Evaluator) evalCreateTable(s *ast.CreateTableStmt) (Result, error) {
	cols := make([]catalog.Column, len(s.Columns))
	for i, cd := range s.Columns {
		dt, ok := catalog.ParseDataType(cd.Type)
		if !ok {
			return Result{}, errx.New(errx.TypeMismatch, "unknown column type %q", cd.Type)
		}
		def := types.NullValue()
		if cd.Default != nil {
			v, err := evalExpr(cd.Default, nil)
			if err != nil {
				return Result{}, err
			}
			def = v
		}
		cols[i] = catalog.Column{
			Name:         cd.Name,
			Type:         dt,
			IsPrimaryKey: cd.IsPrimaryKey,
			IsNullable:   !cd.NotNull && !cd.IsPrimaryKey,
			Default:      def,
		}
	}
	if _, err := e.DB.CreateTable(s.Table, cols); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindNone}, nil
}

func (e *Evaluator) evalDropTable(s *ast.DropTableStmt) (Result, error) {
	if err := e.DB.DropTable(s.Table); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindNone}, nil
}

func (e *Evaluator) evalShowTables(*ast.ShowTablesStmt) (Result, error) {
	names := e.DB.ListTables()
	rows := make([][]types.Value, len(names))
	for i, n := range names {
		rows[i] = []types.Value{types.StringValue(n)}
	}
	return Result{Kind: KindRows, Columns: []string{"table_name"}, Rows: rows}, nil
}

func (e *Evaluator) evalDescribe(s *ast.DescribeStmt) (Result, error) {
	tbl, err := e.DB.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}
	rows := make([][]types.Value, len(tbl.Columns))
	for i, c := range tbl.Columns {
		rows[i] = []types.Value{
			types.StringValue(c.Name),
			types.StringValue(string(c.Type)),
			types.BoolValue(c.IsPrimaryKey),
			types.BoolValue(c.IsNullable),
		}
	}
	return Result{
		Kind:    KindRows,
		Columns: []string{"column_name", "type", "primary_key", "nullable"},
		Rows:    rows,
	}, nil
}

// ---- INSERT ----

func (e *Evaluator) evalInsert(s *ast.InsertStmt) (Result, error) {
	tbl, err := e.DB.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}
	if len(s.Columns) != len(s.Values) {
		return Result{}, errx.New(errx.ArityError, "INSERT: %d columns but %d values", len(s.Columns), len(s.Values))
	}

	assign := make(map[string]types.Value, len(s.Columns))
	for i, col := range s.Columns {
		v, err := evalExpr(s.Values[i], nil)
		if err != nil {
			return Result{}, err
		}
		assign[strings.ToLower(col)] = v
	}

	row, key, err := tbl.BuildRow(assign)
	if err != nil {
		return Result{}, err
	}
	if err := tbl.Insert(row, key); err != nil {
		return Result{}, err
	}

	cols := make([]string, len(tbl.Columns))
	vals := make([]types.Value, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i] = c.Name
		v, _ := row.Get(c.Name)
		vals[i] = v
	}
	return Result{Kind: KindRows, Columns: cols, Rows: [][]types.Value{vals}}, nil
}

// ---- UPDATE ----

func (e *Evaluator) evalUpdate(s *ast.UpdateStmt) (Result, error) {
	tbl, err := e.DB.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}

	// Snapshot discipline (spec §4.6/§9): the tree is not safe to mutate
	// while it is being iterated, so take the full snapshot before any
	// write touches it.
	snapshot, err := tbl.FullScan()
	if err != nil {
		return Result{}, err
	}

	pkName := tbl.PrimaryKeyColumn().Name
	count := 0
	for _, row := range snapshot {
		ok, err := matches(s.Where, row)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}

		updated := row.Clone()
		oldKey, _ := updated.Get(pkName)

		for _, a := range s.Set {
			col, found := tbl.Column(a.Column)
			if !found {
				return Result{}, errx.New(errx.ColumnNotFound, "column %q does not exist", a.Column)
			}
			v, err := evalExpr(a.Value, row)
			if err != nil {
				return Result{}, err
			}
			coerced, err := col.Coerce(v)
			if err != nil {
				return Result{}, err
			}
			updated.Set(col.Name, coerced)
		}

		newKey, _ := updated.Get(pkName)
		if newKey.String() != oldKey.String() {
			if err := tbl.Delete(oldKey.String()); err != nil {
				return Result{}, err
			}
		}
		if err := tbl.Insert(updated, newKey.String()); err != nil {
			return Result{}, err
		}
		count++
	}
	return Result{Kind: KindCount, Count: count}, nil
}

// ---- DELETE ----

func (e *Evaluator) evalDelete(s *ast.DeleteStmt) (Result, error) {
	tbl, err := e.DB.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}

	snapshot, err := tbl.FullScan()
	if err != nil {
		return Result{}, err
	}
	pkName := tbl.PrimaryKeyColumn().Name

	count := 0
	for _, row := range snapshot {
		ok, err := matches(s.Where, row)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		key, _ := row.Get(pkName)
		if err := tbl.Delete(key.String()); err != nil {
			return Result{}, err
		}
		count++
	}
	return Result{Kind: KindCount, Count: count}, nil
}

// matches evaluates where (nil means "no filter, match everything") against
// row.
func matches(where ast.Expr, row *catalog.Row) (bool, error) {
	if where == nil {
		return true, nil
	}
	v, err := evalExpr(where, row)
	if err != nil {
		return false, err
	}
	return types.Truthy(v), nil
}

// ---- SELECT ----

func (e *Evaluator) evalSelect(s *ast.SelectStmt) (Result, error) {
	tbl, err := e.DB.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}

	all, err := tbl.FullScan()
	if err != nil {
		return Result{}, err
	}

	var filtered []*catalog.Row
	for _, row := range all {
		ok, err := matches(s.Where, row)
		if err != nil {
			return Result{}, err
		}
		if ok {
			filtered = append(filtered, row)
		}
	}

	hasAgg := selectHasAggregate(s.Items)

	if !hasAgg && len(s.GroupBy) == 0 {
		return projectRows(s.Items, filtered, tbl)
	}

	return evalAggregate(s, filtered)
}

// selectHasAggregate reports whether any projected item is an aggregate
// call. The parser builds an *ast.Aggregate only for a top-level select
// item (an aggregate call nested inside an expression becomes a ColumnRef
// to its default output name), so a direct type check is exhaustive.
func selectHasAggregate(items []ast.SelectItem) bool {
	for _, it := range items {
		if _, ok := it.Expr.(*ast.Aggregate); ok {
			return true
		}
	}
	return false
}

// projectRows implements the non-aggregate projection path: each row maps
// through the column list, resolving identifiers and '*' and aliases.
// tbl supplies the catalog column order so '*' still has a name to report
// even when the filtered set is empty.
func projectRows(items []ast.SelectItem, rows []*catalog.Row, tbl *catalog.Table) (Result, error) {
	var columns []string
	for _, it := range items {
		if _, ok := it.Expr.(*ast.Star); ok {
			for _, c := range tbl.Columns {
				columns = append(columns, c.Name)
			}
			continue
		}
		columns = append(columns, it.Alias)
	}

	out := make([][]types.Value, 0, len(rows))
	for _, row := range rows {
		var vals []types.Value
		for _, it := range items {
			if _, ok := it.Expr.(*ast.Star); ok {
				for _, c := range tbl.Columns {
					v, _ := row.Get(c.Name)
					vals = append(vals, v)
				}
				continue
			}
			v, err := evalExpr(it.Expr, row)
			if err != nil {
				return Result{}, err
			}
			vals = append(vals, v)
		}
		out = append(out, vals)
	}

	return Result{Kind: KindRows, Columns: columns, Rows: out}, nil
}

// evalAggregate implements the GROUP BY / aggregate path: group rows by the
// tuple of group-key values (formatted "v1:v2:..."), compute aggregates per
// group (or a single implicit group with no GROUP BY), then apply HAVING.
func evalAggregate(s *ast.SelectStmt, rows []*catalog.Row) (Result, error) {
	type group struct {
		key  string
		rows []*catalog.Row
	}

	var groups []*group
	if len(s.GroupBy) == 0 {
		groups = []*group{{key: "", rows: rows}}
	} else {
		index := make(map[string]*group)
		for _, row := range rows {
			vals := make([]types.Value, len(s.GroupBy))
			for i, col := range s.GroupBy {
				v, _ := row.Get(col)
				vals[i] = v
			}
			key := types.FormatGroupKey(vals)
			g, ok := index[key]
			if !ok {
				g = &group{key: key}
				index[key] = g
				groups = append(groups, g)
			}
			g.rows = append(g.rows, row)
		}
		// Deterministic output order regardless of map iteration, matching
		// the B+ tree's own determinism guarantee (spec §8).
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	}

	var columns []string
	for _, it := range s.Items {
		columns = append(columns, it.Alias)
	}

	var outRows [][]types.Value
	for _, g := range groups {
		vals := make([]types.Value, len(s.Items))
		for i, it := range s.Items {
			v, err := evalGroupExpr(it.Expr, g.rows)
			if err != nil {
				return Result{}, err
			}
			vals[i] = v
		}

		if s.Having != nil {
			havingRow := resultRow(columns, vals)
			hv, err := evalExpr(s.Having, havingRow)
			if err != nil {
				return Result{}, err
			}
			if !types.Truthy(hv) {
				continue
			}
		}
		outRows = append(outRows, vals)
	}

	return Result{Kind: KindRows, Columns: columns, Rows: outRows}, nil
}

// resultRow lets HAVING reference projected aggregate aliases (e.g.
// "HAVING COUNT(*) > 1") by wrapping the group's already-computed output
// row as a catalog.Row keyed by its output column names.
func resultRow(columns []string, vals []types.Value) *catalog.Row {
	row := catalog.NewRow()
	for i, c := range columns {
		row.Set(c, vals[i])
	}
	return row
}

// evalGroupExpr evaluates one SELECT-list expression against a whole group
// of rows: an Aggregate computes over the group; anything else (a bare
// group-by column, typically) evaluates against the group's first row,
// which is sound because every row in a group shares equal group-key
// values by construction.
func evalGroupExpr(e ast.Expr, rows []*catalog.Row) (types.Value, error) {
	if agg, ok := e.(*ast.Aggregate); ok {
		return evalAggregateCall(agg, rows)
	}
	var repr *catalog.Row
	if len(rows) > 0 {
		repr = rows[0]
	}
	return evalExpr(e, repr)
}

func evalAggregateCall(agg *ast.Aggregate, rows []*catalog.Row) (types.Value, error) {
	switch strings.ToUpper(agg.Func) {
	case "COUNT":
		if agg.Star {
			return types.IntValue(int64(len(rows))), nil
		}
		n := int64(0)
		for _, row := range rows {
			v, err := evalExpr(agg.Arg, row)
			if err != nil {
				return types.Value{}, err
			}
			if !v.IsNull() {
				n++
			}
		}
		return types.IntValue(n), nil

	case "SUM":
		return aggregateDecimal(agg, rows, types.Add)

	case "AVG":
		sum := types.DecimalFromInt(0)
		n := int64(0)
		for _, row := range rows {
			v, err := evalExpr(agg.Arg, row)
			if err != nil {
				return types.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			dv, err := v.ToDecimal()
			if err != nil {
				return types.Value{}, err
			}
			sum, _ = types.Add(sum, dv)
			n++
		}
		if n == 0 {
			return types.NullValue(), nil
		}
		return types.Div(sum, types.DecimalFromInt(n))

	case "MIN", "MAX":
		var best types.Value
		have := false
		for _, row := range rows {
			v, err := evalExpr(agg.Arg, row)
			if err != nil {
				return types.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			if !have {
				best, have = v, true
				continue
			}
			cmp := types.Compare(v, best)
			if (strings.ToUpper(agg.Func) == "MIN" && cmp < 0) || (strings.ToUpper(agg.Func) == "MAX" && cmp > 0) {
				best = v
			}
		}
		if !have {
			return types.NullValue(), nil
		}
		return best, nil

	default:
		return types.Value{}, errx.New(errx.SyntaxError, "unknown aggregate function %q", agg.Func)
	}
}

// aggregateDecimal folds agg.Arg over rows via combine, skipping nulls;
// returns NullValue if every value was null, per spec §4.6 "Aggregates over
// an empty group return null".
func aggregateDecimal(agg *ast.Aggregate, rows []*catalog.Row, combine func(acc, v types.Value) (types.Value, error)) (types.Value, error) {
	acc := types.DecimalFromInt(0)
	have := false
	for _, row := range rows {
		v, err := evalExpr(agg.Arg, row)
		if err != nil {
			return types.Value{}, err
		}
		if v.IsNull() {
			continue
		}
		dv, err := v.ToDecimal()
		if err != nil {
			return types.Value{}, err
		}
		acc, err = combine(acc, dv)
		if err != nil {
			return types.Value{}, err
		}
		have = true
	}
	if !have {
		return types.NullValue(), nil
	}
	return acc, nil
}
