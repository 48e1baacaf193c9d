package evaluator

import (
	"github.com/Kara-Zor-El/sqlvault/internal/catalog"
	"github.com/Kara-Zor-El/sqlvault/internal/errx"
	"github.com/Kara-Zor-El/sqlvault/internal/sql/ast"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// evalExpr binds identifiers against row (nil for a row-less constant
// context) and walks the expression tree, implementing the WHERE/HAVING
// truth semantics and binary-arithmetic coercion rules of spec §4.6.
//
// The grammar has no qualified "t.col" column syntax (spec §9), so a
// table alias never changes how a ColumnRef resolves; evalExpr therefore
// needs no alias/table context beyond the row itself.
func evalExpr(e ast.Expr, row *catalog.Row) (types.Value, error) {
	switch v := e.(type) {
	case *ast.Literal:
		return v.Value, nil

	case *ast.ColumnRef:
		if row == nil {
			return types.Value{}, errx.New(errx.ColumnNotFound, "column %q is not available in this context", v.Name)
		}
		val, ok := row.Get(v.Name)
		if !ok {
			return types.Value{}, errx.New(errx.ColumnNotFound, "column %q does not exist", v.Name)
		}
		return val, nil

	case *ast.Star:
		return types.Value{}, errx.New(errx.SyntaxError, "'*' is not valid in this expression context")

	case *ast.UnaryExpr:
		return evalUnary(v, row)

	case *ast.BinaryExpr:
		return evalBinary(v, row)

	case *ast.Aggregate:
		return types.Value{}, errx.New(errx.SyntaxError, "aggregate function not valid in this expression context")

	default:
		return types.Value{}, errx.New(errx.SyntaxError, "evaluator: unknown expression node")
	}
}

func evalUnary(v *ast.UnaryExpr, row *catalog.Row) (types.Value, error) {
	operand, err := evalExpr(v.Operand, row)
	if err != nil {
		return types.Value{}, err
	}
	switch v.Op {
	case "NOT":
		return types.BoolValue(!types.Truthy(operand)), nil
	case "-":
		return types.Sub(types.IntValue(0), operand)
	default:
		return types.Value{}, errx.New(errx.SyntaxError, "unknown unary operator %q", v.Op)
	}
}

func evalBinary(v *ast.BinaryExpr, row *catalog.Row) (types.Value, error) {
	switch v.Op {
	case "AND":
		l, err := evalExpr(v.Left, row)
		if err != nil {
			return types.Value{}, err
		}
		if !types.Truthy(l) {
			return types.BoolValue(false), nil
		}
		r, err := evalExpr(v.Right, row)
		if err != nil {
			return types.Value{}, err
		}
		return types.BoolValue(types.Truthy(r)), nil

	case "OR":
		l, err := evalExpr(v.Left, row)
		if err != nil {
			return types.Value{}, err
		}
		if types.Truthy(l) {
			return types.BoolValue(true), nil
		}
		r, err := evalExpr(v.Right, row)
		if err != nil {
			return types.Value{}, err
		}
		return types.BoolValue(types.Truthy(r)), nil
	}

	l, err := evalExpr(v.Left, row)
	if err != nil {
		return types.Value{}, err
	}
	r, err := evalExpr(v.Right, row)
	if err != nil {
		return types.Value{}, err
	}

	switch v.Op {
	case "=":
		return types.BoolValue(types.Equal(l, r)), nil
	case "<>":
		return types.BoolValue(!types.Equal(l, r)), nil
	case "<":
		return types.BoolValue(types.Compare(l, r) < 0), nil
	case "<=":
		return types.BoolValue(types.Compare(l, r) <= 0), nil
	case ">":
		return types.BoolValue(types.Compare(l, r) > 0), nil
	case ">=":
		return types.BoolValue(types.Compare(l, r) >= 0), nil
	case "LIKE":
		if l.IsNull() || r.IsNull() {
			return types.BoolValue(false), nil
		}
		return types.BoolValue(types.Like(l.String(), r.String())), nil
	case "+":
		return types.Add(l, r)
	case "-":
		return types.Sub(l, r)
	case "*":
		return types.Mul(l, r)
	case "/":
		return types.Div(l, r)
	case "%":
		return types.Mod(l, r)
	default:
		return types.Value{}, errx.New(errx.SyntaxError, "unknown binary operator %q", v.Op)
	}
}
