package types

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/Kara-Zor-El/sqlvault/internal/errx"
)

// Add, Sub, Mul, Div, Mod implement the binary arithmetic coercion rule:
// both-decimal stays decimal; either side a string makes '+' concatenation
// (others TypeMismatch); otherwise both sides convert to decimal.

func Add(l, r Value) (Value, error) { return arith(l, r, '+') }
func Sub(l, r Value) (Value, error) { return arith(l, r, '-') }
func Mul(l, r Value) (Value, error) { return arith(l, r, '*') }
func Div(l, r Value) (Value, error) { return arith(l, r, '/') }
func Mod(l, r Value) (Value, error) { return arith(l, r, '%') }

func arith(l, r Value, op byte) (Value, error) {
	if op == '+' && (l.tag == String || r.tag == String) {
		return StringValue(l.String() + r.String()), nil
	}
	if l.tag == String || r.tag == String {
		return Value{}, errx.New(errx.TypeMismatch, "operator %c not defined for STRING", op)
	}

	ld, err := l.ToDecimal()
	if err != nil {
		return Value{}, err
	}
	rd, err := r.ToDecimal()
	if err != nil {
		return Value{}, err
	}

	scale := scaleFactor()
	switch op {
	case '+':
		return Value{tag: Decimal, dec: new(big.Int).Add(ld.dec, rd.dec)}, nil
	case '-':
		return Value{tag: Decimal, dec: new(big.Int).Sub(ld.dec, rd.dec)}, nil
	case '*':
		prod := new(big.Int).Mul(ld.dec, rd.dec)
		return Value{tag: Decimal, dec: prod.Div(prod, scale)}, nil
	case '/':
		if rd.dec.Sign() == 0 {
			return Value{}, errx.New(errx.DivisionByZero, "division by zero")
		}
		num := new(big.Int).Mul(ld.dec, scale)
		return Value{tag: Decimal, dec: num.Div(num, rd.dec)}, nil
	case '%':
		if rd.dec.Sign() == 0 {
			return Value{}, errx.New(errx.DivisionByZero, "division by zero")
		}
		// a - floor(a/b)*b using rational arithmetic on the scaled integers.
		a := new(big.Rat).SetFrac(ld.dec, scale)
		b := new(big.Rat).SetFrac(rd.dec, scale)
		q := new(big.Rat).Quo(a, b)
		fl := floorRat(q)
		flTimesB := new(big.Rat).Mul(fl, b)
		mod := new(big.Rat).Sub(a, flTimesB)
		num := new(big.Int).Mul(mod.Num(), scale)
		num.Quo(num, mod.Denom())
		return Value{tag: Decimal, dec: num}, nil
	default:
		return Value{}, errx.New(errx.TypeMismatch, "unsupported operator %c", op)
	}
}

func floorRat(r *big.Rat) *big.Rat {
	q := new(big.Int).Div(r.Num(), r.Denom())
	// big.Int.Div truncates toward negative infinity already for Euclidean
	// division when the divisor is positive; big.Rat denominators are
	// always positive, so this is floor.
	return new(big.Rat).SetInt(q)
}

// Compare implements the ordering rule: null sorts below non-null;
// both-string compares case-insensitively; otherwise tries a numeric parse
// of both stringifications and falls back to case-insensitive string
// compare. Returns -1, 0, 1.
func Compare(l, r Value) int {
	if l.IsNull() || r.IsNull() {
		switch {
		case l.IsNull() && r.IsNull():
			return 0
		case l.IsNull():
			return -1
		default:
			return 1
		}
	}

	if l.tag == Date || l.tag == DateTime || r.tag == Date || r.tag == DateTime {
		if (l.tag == Date || l.tag == DateTime) && (r.tag == Date || r.tag == DateTime) {
			switch {
			case l.t.Before(r.t):
				return -1
			case l.t.After(r.t):
				return 1
			default:
				return 0
			}
		}
	}

	if l.tag == String && r.tag == String {
		return strings.Compare(strings.ToLower(l.s), strings.ToLower(r.s))
	}

	ls, rs := l.String(), r.String()
	if lf, lok := parseNumeric(ls); lok {
		if rf, rok := parseNumeric(rs); rok {
			switch {
			case lf.Cmp(rf) < 0:
				return -1
			case lf.Cmp(rf) > 0:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(strings.ToLower(ls), strings.ToLower(rs))
}

func parseNumeric(s string) (*big.Rat, bool) {
	r := new(big.Rat)
	if _, ok := r.SetString(s); ok {
		return r, true
	}
	return nil, false
}

// Equal is case-insensitive string equality of stringifications, per spec.
func Equal(l, r Value) bool {
	if l.IsNull() || r.IsNull() {
		return l.IsNull() && r.IsNull()
	}
	return strings.EqualFold(l.String(), r.String())
}

// Like implements a case-insensitive glob where '%' matches any (possibly
// empty) substring and '_' matches exactly one character; all other
// pattern characters match literally.
func Like(value, pattern string) bool {
	return likeMatch(strings.ToLower(value), strings.ToLower(pattern), 0, 0)
}

func likeMatch(v, p string, vi, pi int) bool {
	for pi < len(p) {
		switch p[pi] {
		case '%':
			// Collapse consecutive '%' and try every remaining split point.
			for pi < len(p) && p[pi] == '%' {
				pi++
			}
			if pi == len(p) {
				return true
			}
			for i := vi; i <= len(v); i++ {
				if likeMatch(v, p, i, pi) {
					return true
				}
			}
			return false
		case '_':
			if vi >= len(v) {
				return false
			}
			vi++
			pi++
		default:
			if vi >= len(v) || v[vi] != p[pi] {
				return false
			}
			vi++
			pi++
		}
	}
	return vi == len(v)
}

// Truthy implements "a bare identifier/value in boolean position is truthy
// iff non-null", except that a BOOLEAN value is truthy iff it is true. Any
// other non-null value, including INT 0, is truthy.
func Truthy(v Value) bool {
	if v.IsNull() {
		return false
	}
	if v.tag == Bool {
		return v.b
	}
	return true
}

// FormatGroupKey renders group-by key tuples as "v1:v2:...", per spec.
func FormatGroupKey(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, ":")
}

// ParseInt is used by strict integer parsing in the INT
// column coercion path (catalog package), exposed here so both packages
// share one strconv call site.
func ParseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
