// Package parser implements the recursive-descent parser: tokens from
// internal/sql/lexer to the typed AST in internal/sql/ast. Grounded on the
// teacher's internal/sql/parser.Parse, which dispatches on a string prefix
// rather than a real token stream; this package keeps the teacher's
// per-statement parseXxx naming and error-wrapping idiom but drives off
// lexer.Token and implements the full expression grammar of spec §4.5.
package parser

import (
	"strings"

	"github.com/Kara-Zor-El/sqlvault/internal/errx"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/ast"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/lexer"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// TableColumns is the seam the parser uses to resolve "INSERT INTO t VALUES
// (...)" (no column list) into the catalog's declared column order,
// without importing the catalog package directly and risking a cycle.
type TableColumns interface {
	ColumnNames(table string) ([]string, error)
}

// Parser is stateless beyond its position cursor, per spec §4.7.
type Parser struct {
	toks []lexer.Token
	pos  int
	cols TableColumns // nil is fine unless INSERT omits its column list
}

// New builds a Parser over already-tokenized input. cols may be nil; it is
// only consulted when an INSERT statement omits its column list.
func New(toks []lexer.Token, cols TableColumns) *Parser {
	return &Parser{toks: toks, cols: cols}
}

// Parse tokenizes and parses a single statement, grounded on the teacher's
// Parse(sql string) entry point.
func Parse(sql string, cols TableColumns) (ast.Stmt, error) {
	toks, err := lexer.New(sql).Tokenize()
	if err != nil {
		return nil, err
	}
	p := New(toks, cols)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOFOrSemicolon(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }
func (p *Parser) atEOF() bool      { return p.cur().Kind == lexer.EOF }
func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) isKeyword(kw string) bool {
	return p.cur().Kind == lexer.Keyword && p.cur().Literal == kw
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.syntaxErrorf("expected %s", kw)
	}
	p.advance()
	return nil
}

func (p *Parser) expectKind(k lexer.Kind, what string) (lexer.Token, error) {
	if p.cur().Kind != k {
		return lexer.Token{}, p.syntaxErrorf("expected %s", what)
	}
	return p.advance(), nil
}

func (p *Parser) syntaxErrorf(format string, args ...any) error {
	t := p.cur()
	return errx.NewAt(errx.SyntaxError, t.Line, t.Col, format+" (got %q)", append(args, t.Literal)...)
}

func (p *Parser) expectEOFOrSemicolon() error {
	if p.cur().Kind == lexer.Semicolon {
		p.advance()
	}
	if !p.atEOF() {
		return p.syntaxErrorf("expected end of statement")
	}
	return nil
}

// parseStatement dispatches on the first token, per spec §4.5 "top-level
// dispatch on first token".
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.isKeyword("SELECT"):
		return p.parseSelect()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("UPDATE"):
		return p.parseUpdate()
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("CREATE"):
		return p.parseCreate()
	case p.isKeyword("DROP"):
		return p.parseDrop()
	case p.isKeyword("SHOW"):
		return p.parseShow()
	case p.isKeyword("DESCRIBE"), p.isKeyword("DESC"):
		return p.parseDescribe()
	default:
		return nil, p.syntaxErrorf("unsupported statement")
	}
}

// ---- SHOW TABLES / DESCRIBE <table> (SPEC_FULL.md §4.5 supplement) ----

func (p *Parser) parseShow() (ast.Stmt, error) {
	if err := p.expectKeyword("SHOW"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLES"); err != nil {
		return nil, err
	}
	return &ast.ShowTablesStmt{}, nil
}

func (p *Parser) parseDescribe() (ast.Stmt, error) {
	p.advance() // DESCRIBE or DESC
	tbl, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &ast.DescribeStmt{Table: tbl}, nil
}

func (p *Parser) expectIdent() (string, error) {
	t, err := p.expectKind(lexer.Ident, "identifier")
	if err != nil {
		return "", err
	}
	return t.Literal, nil
}

// ---- CREATE TABLE / DROP TABLE ----

func (p *Parser) parseCreate() (ast.Stmt, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lexer.LParen, "("); err != nil {
		return nil, err
	}

	var cols []ast.ColumnDef
	for {
		cd, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, cd)
		if p.cur().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectKind(lexer.RParen, ")"); err != nil {
		return nil, err
	}
	return &ast.CreateTableStmt{Table: name, Columns: cols}, nil
}

var columnTypeKeywords = map[string]bool{
	"INT": true, "VARCHAR": true, "TEXT": true, "DECIMAL": true,
	"BOOLEAN": true, "DATETIME": true, "DATE": true,
}

func (p *Parser) parseColumnDef() (ast.ColumnDef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ast.ColumnDef{}, err
	}
	if p.cur().Kind != lexer.Keyword || !columnTypeKeywords[p.cur().Literal] {
		return ast.ColumnDef{}, p.syntaxErrorf("expected column type")
	}
	typ := p.advance().Literal

	cd := ast.ColumnDef{Name: name, Type: typ}
	for {
		switch {
		case p.isKeyword("PRIMARY"):
			p.advance()
			if err := p.expectKeyword("KEY"); err != nil {
				return ast.ColumnDef{}, err
			}
			cd.IsPrimaryKey = true
		case p.isKeyword("NOT"):
			p.advance()
			// NULL is not in the spec keyword set (§4.4), so the lexer
			// hands it back as a plain Ident token.
			if p.cur().Kind != lexer.Ident || !strings.EqualFold(p.cur().Literal, "NULL") {
				return ast.ColumnDef{}, p.syntaxErrorf("expected NULL")
			}
			p.advance()
			cd.NotNull = true
		default:
			return cd, nil
		}
	}
}

func (p *Parser) parseDrop() (ast.Stmt, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &ast.DropTableStmt{Table: name}, nil
}

// ---- INSERT ----

func (p *Parser) parseInsert() (ast.Stmt, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var columns []string
	if p.cur().Kind == lexer.LParen {
		p.advance()
		for {
			id, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			columns = append(columns, id)
			if p.cur().Kind == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectKind(lexer.RParen, ")"); err != nil {
			return nil, err
		}
	} else if p.cols != nil {
		// Missing column list means "all columns in declared order" -
		// consult the catalog now, per spec §4.5.
		names, err := p.cols.ColumnNames(table)
		if err != nil {
			return nil, err
		}
		columns = names
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}

	if _, err := p.expectKind(lexer.LParen, "("); err != nil {
		return nil, err
	}
	var values []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		values = append(values, e)
		if p.cur().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectKind(lexer.RParen, ")"); err != nil {
		return nil, err
	}

	return &ast.InsertStmt{Table: table, Columns: columns, Values: values}, nil
}

// ---- UPDATE ----

func (p *Parser) parseUpdate() (ast.Stmt, error) {
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	var assigns []ast.Assignment
	for {
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lexer.Eq, "="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, ast.Assignment{Column: col, Value: val})
		if p.cur().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}

	var where ast.Expr
	if p.isKeyword("WHERE") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	return &ast.UpdateStmt{Table: table, Set: assigns, Where: where}, nil
}

// ---- DELETE ----

func (p *Parser) parseDelete() (ast.Stmt, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var where ast.Expr
	if p.isKeyword("WHERE") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return &ast.DeleteStmt{Table: table, Where: where}, nil
}

// ---- SELECT ----

func (p *Parser) parseSelect() (ast.Stmt, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	var items []ast.SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.cur().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	tableAs := ""
	if p.isKeyword("AS") {
		p.advance()
		tableAs, err = p.expectIdent()
		if err != nil {
			return nil, err
		}
	} else if p.cur().Kind == lexer.Ident {
		// Implicit alias, per spec grammar "[AS Alias | Alias]".
		tableAs = p.advance().Literal
	}

	stmt := &ast.SelectStmt{Items: items, Table: table, TableAs: tableAs}

	sawGroupBy := false
	if p.isKeyword("WHERE") {
		p.advance()
		stmt.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if p.isKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		sawGroupBy = true
		for {
			id, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, id)
			if p.cur().Kind == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.isKeyword("HAVING") {
		if !sawGroupBy {
			return nil, p.syntaxErrorf("HAVING requires GROUP BY")
		}
		p.advance()
		stmt.Having, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	// Clause-order enforcement: a WHERE/GROUP BY appearing after a clause
	// that must follow it is caught structurally above (each branch only
	// recognizes its own keyword once); a WHERE token surviving past GROUP
	// BY/HAVING parsing means it appeared out of order.
	if p.isKeyword("WHERE") {
		return nil, p.syntaxErrorf("WHERE must precede GROUP BY/HAVING")
	}
	if p.isKeyword("GROUP") && sawGroupBy {
		return nil, p.syntaxErrorf("unexpected repeated GROUP BY")
	}

	return stmt, nil
}

var aggFuncKeywords = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	if p.cur().Kind == lexer.Star {
		p.advance()
		return ast.SelectItem{Expr: &ast.Star{}}, nil
	}

	if p.cur().Kind == lexer.Keyword && aggFuncKeywords[p.cur().Literal] {
		agg, err := p.parseAggCall()
		if err != nil {
			return ast.SelectItem{}, err
		}
		alias := defaultAlias(agg)
		if p.isKeyword("AS") {
			p.advance()
			alias, err = p.expectIdent()
			if err != nil {
				return ast.SelectItem{}, err
			}
		}
		return ast.SelectItem{Expr: agg, Alias: alias}, nil
	}

	e, err := p.parseExpr()
	if err != nil {
		return ast.SelectItem{}, err
	}
	alias := defaultAlias(e)
	if p.isKeyword("AS") {
		p.advance()
		alias, err = p.expectIdent()
		if err != nil {
			return ast.SelectItem{}, err
		}
	}
	return ast.SelectItem{Expr: e, Alias: alias}, nil
}

// defaultAlias gives every projected expression an effective output name
// even without an explicit AS, so the evaluator never special-cases "no
// alias" (see SPEC_FULL.md §9 design note and ast.SelectItem doc comment).
func defaultAlias(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.ColumnRef:
		return v.Name
	case *ast.Aggregate:
		if v.Star {
			return v.Func + "(*)"
		}
		return v.Func + "(" + defaultAlias(v.Arg) + ")"
	case *ast.Literal:
		return v.Value.String()
	case *ast.Star:
		return "*"
	default:
		return "expr"
	}
}

func (p *Parser) parseAggCall() (*ast.Aggregate, error) {
	fn := p.advance().Literal
	if _, err := p.expectKind(lexer.LParen, "("); err != nil {
		return nil, err
	}
	if p.cur().Kind == lexer.Star {
		p.advance()
		if _, err := p.expectKind(lexer.RParen, ")"); err != nil {
			return nil, err
		}
		return &ast.Aggregate{Func: fn, Star: true}, nil
	}
	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lexer.RParen, ")"); err != nil {
		return nil, err
	}
	return &ast.Aggregate{Func: fn, Arg: arg}, nil
}

// ---- Expression grammar: OrExpr > AndExpr > NotExpr > CmpExpr > AddExpr > MulExpr > Primary ----

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "NOT", Operand: operand}, nil
	}
	return p.parseCmp()
}

var cmpOps = map[lexer.Kind]string{
	lexer.Eq: "=", lexer.NotEq: "<>", lexer.Lt: "<",
	lexer.LtEq: "<=", lexer.Gt: ">", lexer.GtEq: ">=",
}

func (p *Parser) parseCmp() (ast.Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.cur().Kind]; ok {
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
	}
	if p.isKeyword("LIKE") {
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: "LIKE", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == lexer.Plus || p.cur().Kind == lexer.Minus {
		op := "+"
		if p.cur().Kind == lexer.Minus {
			op = "-"
		}
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMul() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.cur().Kind {
		case lexer.Star:
			op = "*"
		case lexer.Slash:
			op = "/"
		case lexer.Percent:
			op = "%"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur().Kind == lexer.Minus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.IntLiteral:
		p.advance()
		n, err := types.ParseInt(t.Literal)
		if err != nil {
			return nil, errx.NewAt(errx.SyntaxError, t.Line, t.Col, "malformed integer literal %q", t.Literal)
		}
		return &ast.Literal{Value: types.IntValue(n)}, nil
	case lexer.DecimalLiteral:
		p.advance()
		v, err := types.DecimalFromString(t.Literal)
		if err != nil {
			return nil, errx.NewAt(errx.SyntaxError, t.Line, t.Col, "malformed decimal literal %q", t.Literal)
		}
		return &ast.Literal{Value: v}, nil
	case lexer.StringLiteral:
		p.advance()
		return &ast.Literal{Value: types.StringValue(t.Literal)}, nil
	case lexer.Ident:
		p.advance()
		return &ast.ColumnRef{Name: t.Literal}, nil
	case lexer.Keyword:
		if !aggFuncKeywords[t.Literal] {
			return nil, p.syntaxErrorf("expected expression")
		}
		// An aggregate call inside an expression (HAVING COUNT(*) > 1) is a
		// reference to the output column it is projected under by default,
		// e.g. COUNT(*); it is not found when that aggregate is not projected
		// or is projected under an AS alias.
		agg, err := p.parseAggCall()
		if err != nil {
			return nil, err
		}
		return &ast.ColumnRef{Name: defaultAlias(agg)}, nil
	case lexer.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lexer.RParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.syntaxErrorf("expected expression")
	}
}
