// Package engine ties the catalog, parser, evaluator, and page codec
// together behind the single `new(file_path?)` / `execute(sql) -> string`
// contract (spec §6). Grounded on the teacher's internal/sql/executor.Executor
// (SQL-string-in, Result-out top-level entry point), generalized since this
// repo has no separate planner stage between parse and eval.
package engine

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/Kara-Zor-El/sqlvault/internal/catalog"
	"github.com/Kara-Zor-El/sqlvault/internal/config"
	"github.com/Kara-Zor-El/sqlvault/internal/format"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/ast"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/evaluator"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/parser"
	"github.com/Kara-Zor-El/sqlvault/internal/storage/codec"
)

// Engine is the single embedded-database handle: a Database, the config it
// was constructed with, and (if persistent) the on-disk identity stamped
// into the file header on every save.
type Engine struct {
	db      *catalog.Database
	cfg     config.Config
	fileID  uuid.UUID
	hasFile bool
}

// New constructs an Engine per spec §6: if cfg names a db_path that exists,
// load it; if named but missing, the file is created on first save; if
// unnamed, the engine is in-memory only.
func New(cfg config.Config) (*Engine, error) {
	e := &Engine{cfg: cfg}

	path := cfg.Storage.DBPath
	if path == "" {
		e.db = catalog.NewDatabase()
		return e, nil
	}
	e.hasFile = true

	if _, err := os.Stat(path); err != nil {
		e.db = catalog.NewDatabase()
		e.fileID = uuid.New()
		return e, nil
	}

	db, id, err := codec.Load(path)
	if err != nil {
		return nil, fmt.Errorf("engine: load %s: %w", path, err)
	}
	e.db = db
	e.fileID = id
	return e, nil
}

// Execute parses and evaluates sql, persists the catalog if the statement
// mutated it and the engine is file-backed, and renders the outcome as
// text. Every error in the pipeline (lex/parse/eval/persist) and any panic
// raised by the evaluator's type assertions is caught here and converted to
// "Error: <message>", per spec §6/§7.
func (e *Engine) Execute(sql string) string {
	res, err := e.execute(sql)
	if err != nil {
		return "Error: " + err.Error()
	}
	return res
}

func (e *Engine) execute(sql string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	stmt, err := parser.Parse(sql, e.db)
	if err != nil {
		return "", err
	}

	ev := evaluator.New(e.db)
	result, err := ev.Eval(stmt)
	if err != nil {
		return "", err
	}

	if mutates(stmt) && e.hasFile {
		if e.fileID == uuid.Nil {
			e.fileID = uuid.New()
		}
		if err := codec.Save(e.cfg.Storage.DBPath, e.db, e.fileID, e.cfg.Storage.Compress); err != nil {
			slog.Error("engine: persist failed", "err", err)
			return "", fmt.Errorf("persist failed after a successful mutation: %w", err)
		}
	}

	return format.Result(result), nil
}

// mutates reports whether stmt can have changed the catalog, so a read-only
// SELECT/SHOW/DESCRIBE never pays for a whole-file rewrite.
func mutates(stmt ast.Stmt) bool {
	switch stmt.(type) {
	case *ast.CreateTableStmt, *ast.DropTableStmt, *ast.InsertStmt, *ast.UpdateStmt, *ast.DeleteStmt:
		return true
	default:
		return false
	}
}
