// Package lexer turns SQL source text into a token stream terminated by an
// EOF token. Grounded on the teacher's internal/sql/parser (which does
// naive string splitting rather than real tokenization); this package
// implements the proper lexer the spec requires, keeping the teacher's
// error-wrapping idiom.
package lexer

type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	IntLiteral
	DecimalLiteral
	StringLiteral

	// operators
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	Plus
	Minus
	Star
	Slash
	Percent

	// punctuation
	LParen
	RParen
	Comma
	Semicolon
)

type Token struct {
	Kind    Kind
	Literal string
	Line    int
	Col     int
}

// keywords is the fixed, case-insensitive keyword set from spec §4.4.
var keywords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"CREATE": true, "DROP": true, "TABLE": true, "FROM": true,
	"WHERE": true, "INTO": true, "VALUES": true, "SET": true,
	"AND": true, "OR": true, "NOT": true, "PRIMARY": true, "KEY": true,
	"INT": true, "VARCHAR": true, "TEXT": true, "DECIMAL": true,
	"BOOLEAN": true, "DATETIME": true, "DATE": true, "LIKE": true,
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"GROUP": true, "BY": true, "HAVING": true, "AS": true,
	// Supplemented catalog-introspection keywords (SPEC_FULL.md §4.5 supplement).
	"SHOW": true, "TABLES": true, "DESCRIBE": true, "DESC": true,
}

func IsKeyword(upper string) bool { return keywords[upper] }
