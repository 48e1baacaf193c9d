// Package types implements the engine's dynamically typed scalar value and
// the arithmetic/comparison/coercion rules the evaluator dispatches on.
package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Kara-Zor-El/sqlvault/internal/errx"
)

// Tag identifies the concrete type carried by a Value.
type Tag uint8

const (
	Null Tag = iota
	Int
	Decimal
	String
	Bool
	DateTime
	Date
)

func (t Tag) String() string {
	switch t {
	case Null:
		return "NULL"
	case Int:
		return "INT"
	case Decimal:
		return "DECIMAL"
	case String:
		return "STRING"
	case Bool:
		return "BOOLEAN"
	case DateTime:
		return "DATETIME"
	case Date:
		return "DATE"
	default:
		return "UNKNOWN"
	}
}

// decimalScale is the fixed number of fractional digits carried by every
// Dec value. 8 fractional digits comfortably fits common currency/fixed
// point use cases inside a 128-bit unscaled integer.
const decimalScale = 8

// Value is a tagged scalar. Exactly one of the typed fields is meaningful
// for a given Tag; the zero Value is NULL.
type Value struct {
	tag Tag

	i   int64     // Int
	dec *big.Int  // Decimal, unscaled, scale = decimalScale
	s   string    // String
	b   bool      // Bool
	t   time.Time // DateTime (full instant) / Date (truncated to day, UTC)
}

func NullValue() Value           { return Value{tag: Null} }
func IntValue(v int64) Value     { return Value{tag: Int, i: v} }
func StringValue(v string) Value { return Value{tag: String, s: v} }
func BoolValue(v bool) Value     { return Value{tag: Bool, b: v} }

func DateTimeValue(t time.Time) Value { return Value{tag: DateTime, t: t.UTC()} }
func DateValue(t time.Time) Value {
	u := t.UTC()
	return Value{tag: Date, t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// DecimalFromString parses a base-10 literal (optional sign, optional single
// '.') into a fixed-point Decimal value.
func DecimalFromString(s string) (Value, error) {
	u, err := parseDecimalUnscaled(s)
	if err != nil {
		return Value{}, err
	}
	return Value{tag: Decimal, dec: u}, nil
}

// DecimalFromInt builds an exact Decimal representation of an integer.
func DecimalFromInt(v int64) Value {
	u := new(big.Int).Mul(big.NewInt(v), scaleFactor())
	return Value{tag: Decimal, dec: u}
}

// DecimalFromUnscaled wraps an already-scaled unscaled big.Int (value ==
// unscaled / 10^decimalScale) as a Decimal, used by the codec when decoding
// the on-disk 128-bit fixed-point representation.
func DecimalFromUnscaled(u *big.Int) Value {
	return Value{tag: Decimal, dec: u}
}

func scaleFactor() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(decimalScale), nil)
}

func parseDecimalUnscaled(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("types: empty decimal literal")
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, fracPart = s[:idx], s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > decimalScale {
		fracPart = fracPart[:decimalScale]
	}
	for len(fracPart) < decimalScale {
		fracPart += "0"
	}
	digits := intPart + fracPart
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("types: malformed decimal literal %q", s)
		}
	}
	u, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("types: malformed decimal literal %q", s)
	}
	if neg {
		u.Neg(u)
	}
	return u, nil
}

func (v Value) Tag() Tag     { return v.tag }
func (v Value) IsNull() bool { return v.tag == Null }

// AsInt returns the raw int64 payload; only meaningful for Tag() == Int.
func (v Value) AsInt() int64 { return v.i }

// AsString returns the raw string payload; only meaningful for Tag() == String.
func (v Value) AsString() string { return v.s }

// AsBool returns the raw bool payload; only meaningful for Tag() == Bool.
func (v Value) AsBool() bool { return v.b }

// AsTime returns the raw time payload; only meaningful for Tag() in {DateTime, Date}.
func (v Value) AsTime() time.Time { return v.t }

// AsDecimalUnscaled returns the unscaled big.Int behind a Decimal value
// (value == unscaled / 10^decimalScale).
func (v Value) AsDecimalUnscaled() *big.Int { return v.dec }

// String renders the canonical display/stringification form used by
// coercion, equality, and LIKE.
func (v Value) String() string {
	switch v.tag {
	case Null:
		return "null"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Decimal:
		return formatDecimal(v.dec)
	case String:
		return v.s
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case DateTime:
		return v.t.Format("2006-01-02 15:04:05")
	case Date:
		return v.t.Format("2006-01-02")
	default:
		return ""
	}
}

func formatDecimal(u *big.Int) string {
	neg := u.Sign() < 0
	abs := new(big.Int).Abs(u)
	digits := abs.String()
	for len(digits) <= decimalScale {
		digits = "0" + digits
	}
	intPart := digits[:len(digits)-decimalScale]
	fracPart := strings.TrimRight(digits[len(digits)-decimalScale:], "0")
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ToDecimal converts any non-null, non-string value to Decimal, used by the
// binary-arithmetic coercion rule in the evaluator.
func (v Value) ToDecimal() (Value, error) {
	switch v.tag {
	case Decimal:
		return v, nil
	case Int:
		return DecimalFromInt(v.i), nil
	case Bool:
		if v.b {
			return DecimalFromInt(1), nil
		}
		return DecimalFromInt(0), nil
	default:
		return Value{}, errx.New(errx.TypeMismatch, "cannot convert %s to DECIMAL", v.tag)
	}
}

// dateTimeLayouts are tried in order when parsing a DATETIME/DATE literal
// or a string being coerced into one, mirroring how loosely-typed SQL
// toy engines accept both full timestamps and bare dates.
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("types: malformed datetime literal %q", s)
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	// Allow a full timestamp literal to coerce down to its date part.
	if t, err := ParseDateTime(s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("types: malformed date literal %q", s)
}
