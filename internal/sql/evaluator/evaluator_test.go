package evaluator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kara-Zor-El/sqlvault/internal/catalog"
	"github.com/Kara-Zor-El/sqlvault/internal/errx"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/parser"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// run parses and evaluates one statement against db, consulting db for an
// INSERT's implicit column list the same way engine.Engine does.
func run(t *testing.T, db *catalog.Database, sql string) Result {
	t.Helper()
	stmt, err := parser.Parse(sql, db)
	require.NoError(t, err, sql)
	res, err := New(db).Eval(stmt)
	require.NoError(t, err, sql)
	return res
}

func mustRun(t *testing.T, db *catalog.Database, sql string) (Result, error) {
	t.Helper()
	stmt, err := parser.Parse(sql, db)
	if err != nil {
		return Result{}, err
	}
	return New(db).Eval(stmt)
}

// seedUsers builds the fixture from spec §8's seven concrete scenarios:
// users(id INT PRIMARY KEY, name VARCHAR, email VARCHAR, created_at DATETIME)
// with six rows, two of which share the name "Charlie Smith".
func seedUsers(t *testing.T) *catalog.Database {
	db := catalog.NewDatabase()
	run(t, db, `CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR, email VARCHAR, created_at DATETIME)`)

	rows := []string{
		`INSERT INTO users VALUES (1, 'Alice Jones', 'alice@x', '2024-01-01')`,
		`INSERT INTO users VALUES (2, 'Bob Lee', 'bob@x', '2024-01-02')`,
		`INSERT INTO users VALUES (3, 'Jane Smith', 'jane@x', '2024-01-03')`,
		`INSERT INTO users VALUES (4, 'Charlie Smith', 'charlie1@x', '2024-01-04')`,
		`INSERT INTO users VALUES (5, 'Charlie Smith', 'charlie2@x', '2024-01-05')`,
		`INSERT INTO users VALUES (6, 'Dana Kim', 'dana@x', '2024-01-06')`,
	}
	for _, sql := range rows {
		run(t, db, sql)
	}
	return db
}

func TestEvaluator_CountStar(t *testing.T) {
	db := seedUsers(t)
	res := run(t, db, `SELECT COUNT(*) FROM users`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "6", res.Rows[0][0].String())
}

func TestEvaluator_GroupByNameCounts(t *testing.T) {
	db := seedUsers(t)
	res := run(t, db, `SELECT name, COUNT(*) FROM users GROUP BY name`)

	counts := map[string]string{}
	for _, row := range res.Rows {
		counts[row[0].String()] = row[1].String()
	}
	require.Equal(t, "2", counts["Charlie Smith"])
	require.Equal(t, "1", counts["Alice Jones"])
}

func TestEvaluator_GroupByHavingWithWhere(t *testing.T) {
	db := seedUsers(t)
	res := run(t, db, `SELECT name, COUNT(*) FROM users WHERE created_at >= '2024-01-02' GROUP BY name HAVING COUNT(*) > 1`)

	require.Len(t, res.Rows, 1)
	require.Equal(t, "Charlie Smith", res.Rows[0][0].String())
	require.Equal(t, "2", res.Rows[0][1].String())
}

func TestEvaluator_UpdateThenSelect(t *testing.T) {
	db := seedUsers(t)
	res := run(t, db, `UPDATE users SET email = 'x@y' WHERE id = 1`)
	require.Equal(t, 1, res.Count)

	sel := run(t, db, `SELECT email FROM users WHERE id = 1`)
	require.Equal(t, "x@y", sel.Rows[0][0].String())
}

func TestEvaluator_DeleteThenCount(t *testing.T) {
	db := seedUsers(t)
	res := run(t, db, `DELETE FROM users WHERE id = 2`)
	require.Equal(t, 1, res.Count)

	sel := run(t, db, `SELECT COUNT(*) FROM users`)
	require.Equal(t, "5", sel.Rows[0][0].String())
}

func TestEvaluator_LikeMatchesBothSmiths(t *testing.T) {
	db := seedUsers(t)
	res := run(t, db, `SELECT name FROM users WHERE name LIKE '%Smith'`)

	names := make([]string, len(res.Rows))
	for i, row := range res.Rows {
		names[i] = row[0].String()
	}
	require.ElementsMatch(t, []string{"Jane Smith", "Charlie Smith", "Charlie Smith"}, names)
}

func TestEvaluator_CreateTableDuplicateColumnFails(t *testing.T) {
	db := catalog.NewDatabase()
	_, err := mustRun(t, db, `CREATE TABLE t (a INT PRIMARY KEY, a VARCHAR)`)
	require.Error(t, err)

	_, lookupErr := db.GetTable("t")
	require.ErrorIs(t, lookupErr, errx.Sentinel(errx.TableNotFound))
}

func TestEvaluator_InsertArityMismatchFails(t *testing.T) {
	db := catalog.NewDatabase()
	run(t, db, `CREATE TABLE t (id INT PRIMARY KEY, name VARCHAR)`)
	_, err := mustRun(t, db, `INSERT INTO t (id) VALUES (1, 'extra')`)
	require.ErrorIs(t, err, errx.Sentinel(errx.ArityError))
}

func TestEvaluator_InsertIsUpsert(t *testing.T) {
	db := catalog.NewDatabase()
	run(t, db, `CREATE TABLE t (id INT PRIMARY KEY, name VARCHAR)`)
	run(t, db, `INSERT INTO t VALUES (1, 'first')`)
	run(t, db, `INSERT INTO t VALUES (1, 'second')`)

	res := run(t, db, `SELECT name FROM t WHERE id = 1`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "second", res.Rows[0][0].String())
}

func TestEvaluator_AggregateOverEmptyGroupIsNull(t *testing.T) {
	db := catalog.NewDatabase()
	run(t, db, `CREATE TABLE t (id INT PRIMARY KEY, amount DECIMAL)`)
	res := run(t, db, `SELECT SUM(amount) FROM t`)
	require.True(t, res.Rows[0][0].IsNull())
}

func TestEvaluator_ShowTablesAndDescribe(t *testing.T) {
	db := seedUsers(t)

	show := run(t, db, `SHOW TABLES`)
	require.Len(t, show.Rows, 1)
	require.Equal(t, "users", show.Rows[0][0].String())

	desc := run(t, db, `DESCRIBE users`)
	require.Len(t, desc.Rows, 4)
	require.Equal(t, "id", desc.Rows[0][0].String())
	require.Equal(t, "true", desc.Rows[0][2].String())
}

func TestEvaluator_AvgAndSumDecimal(t *testing.T) {
	db := catalog.NewDatabase()
	run(t, db, `CREATE TABLE orders (id INT PRIMARY KEY, amount DECIMAL)`)
	run(t, db, `INSERT INTO orders VALUES (1, 10)`)
	run(t, db, `INSERT INTO orders VALUES (2, 20)`)
	run(t, db, `INSERT INTO orders VALUES (3, 30)`)

	res := run(t, db, `SELECT SUM(amount), AVG(amount) FROM orders`)
	require.Equal(t, "60", res.Rows[0][0].String())
	require.Equal(t, "20", res.Rows[0][1].String())
}

func TestEvaluator_WhereTruthySkipsFalseRows(t *testing.T) {
	db := catalog.NewDatabase()
	run(t, db, `CREATE TABLE t (id INT PRIMARY KEY, flag BOOLEAN)`)
	run(t, db, `INSERT INTO t VALUES (1, 'true')`)
	run(t, db, `INSERT INTO t VALUES (2, 'false')`)

	res := run(t, db, `SELECT id FROM t WHERE flag`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, types.IntValue(1).String(), res.Rows[0][0].String())
}
