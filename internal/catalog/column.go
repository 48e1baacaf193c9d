// Package catalog implements the table registry: Column metadata with type
// validation/coercion, Row, Table, and the Database mapping from table name
// to Table. Grounded on the teacher's internal/catalog.TableMeta and
// internal/record.{Column,Schema}, generalized to the seven scalar types
// and the primary-key/nullability invariants this spec requires.
package catalog

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Kara-Zor-El/sqlvault/internal/errx"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// DataType is the declared column type. String values are the canonical
// on-disk tags from spec §6.
type DataType string

const (
	TypeInt      DataType = "INT"
	TypeVarchar  DataType = "VARCHAR"
	TypeText     DataType = "TEXT"
	TypeDecimal  DataType = "DECIMAL"
	TypeBoolean  DataType = "BOOLEAN"
	TypeDateTime DataType = "DATETIME"
	TypeDate     DataType = "DATE"
)

func ParseDataType(s string) (DataType, bool) {
	switch strings.ToUpper(s) {
	case "INT", "INTEGER":
		return TypeInt, true
	case "VARCHAR":
		return TypeVarchar, true
	case "TEXT":
		return TypeText, true
	case "DECIMAL":
		return TypeDecimal, true
	case "BOOLEAN", "BOOL":
		return TypeBoolean, true
	case "DATETIME":
		return TypeDateTime, true
	case "DATE":
		return TypeDate, true
	default:
		return "", false
	}
}

// Column is an immutable record of column metadata.
type Column struct {
	Name         string
	Type         DataType
	IsPrimaryKey bool
	IsNullable   bool
	Default      types.Value // Null Value when no default is declared
}

// validate enforces the Column invariants from spec §3: non-empty name,
// primary-key columns are never nullable, and a non-null default's type
// matches the declared type.
func (c Column) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errx.New(errx.InvalidArgument, "column name must not be empty")
	}
	if c.IsPrimaryKey && c.IsNullable {
		return errx.New(errx.InvalidArgument, "primary key column %q cannot be nullable", c.Name)
	}
	if !c.Default.IsNull() {
		if _, err := coerce(c, c.Default); err != nil {
			return fmt.Errorf("column %q default: %w", c.Name, err)
		}
	}
	return nil
}

// Coerce converts v to this column's declared type using canonical string
// parsing, failing with TypeMismatch on conversion error and NullViolation
// for a null value on a non-nullable column.
func (c Column) Coerce(v types.Value) (types.Value, error) {
	return coerce(c, v)
}

func coerce(c Column, v types.Value) (types.Value, error) {
	if v.IsNull() {
		if !c.IsNullable {
			return types.Value{}, errx.New(errx.NullViolation, "column %q is not nullable", c.Name)
		}
		return types.NullValue(), nil
	}

	switch c.Type {
	case TypeInt:
		switch v.Tag() {
		case types.Int:
			return v, nil
		case types.Decimal:
			return types.IntValue(decimalToInt(v)), nil
		case types.String:
			n, err := types.ParseInt(v.AsString())
			if err != nil {
				return types.Value{}, errx.Wrap(errx.TypeMismatch, err, "column %q expects INT, got %q", c.Name, v.AsString())
			}
			return types.IntValue(n), nil
		default:
			return types.Value{}, errx.New(errx.TypeMismatch, "column %q expects INT, got %s", c.Name, v.Tag())
		}

	case TypeVarchar, TypeText:
		return types.StringValue(v.String()), nil

	case TypeDecimal:
		switch v.Tag() {
		case types.Decimal:
			return v, nil
		case types.Int:
			return types.DecimalFromInt(v.AsInt()), nil
		case types.String:
			d, err := types.DecimalFromString(v.AsString())
			if err != nil {
				return types.Value{}, errx.Wrap(errx.TypeMismatch, err, "column %q expects DECIMAL, got %q", c.Name, v.AsString())
			}
			return d, nil
		default:
			return types.Value{}, errx.New(errx.TypeMismatch, "column %q expects DECIMAL, got %s", c.Name, v.Tag())
		}

	case TypeBoolean:
		switch v.Tag() {
		case types.Bool:
			return v, nil
		case types.String:
			switch strings.ToLower(v.AsString()) {
			case "true":
				return types.BoolValue(true), nil
			case "false":
				return types.BoolValue(false), nil
			}
			return types.Value{}, errx.New(errx.TypeMismatch, "column %q expects BOOLEAN, got %q", c.Name, v.AsString())
		default:
			return types.Value{}, errx.New(errx.TypeMismatch, "column %q expects BOOLEAN, got %s", c.Name, v.Tag())
		}

	case TypeDateTime:
		switch v.Tag() {
		case types.DateTime:
			return v, nil
		case types.Date:
			return types.DateTimeValue(v.AsTime()), nil
		case types.String:
			t, err := types.ParseDateTime(v.AsString())
			if err != nil {
				return types.Value{}, errx.Wrap(errx.TypeMismatch, err, "column %q expects DATETIME, got %q", c.Name, v.AsString())
			}
			return types.DateTimeValue(t), nil
		default:
			return types.Value{}, errx.New(errx.TypeMismatch, "column %q expects DATETIME, got %s", c.Name, v.Tag())
		}

	case TypeDate:
		switch v.Tag() {
		case types.Date:
			return v, nil
		case types.DateTime:
			return types.DateValue(v.AsTime()), nil
		case types.String:
			t, err := types.ParseDate(v.AsString())
			if err != nil {
				return types.Value{}, errx.Wrap(errx.TypeMismatch, err, "column %q expects DATE, got %q", c.Name, v.AsString())
			}
			return types.DateValue(t), nil
		default:
			return types.Value{}, errx.New(errx.TypeMismatch, "column %q expects DATE, got %s", c.Name, v.Tag())
		}

	default:
		return types.Value{}, errx.New(errx.TypeMismatch, "column %q has unknown type %s", c.Name, c.Type)
	}
}

func decimalToInt(v types.Value) int64 {
	scale := big.NewInt(100000000) // 10^8, matches types.decimalScale
	q := new(big.Int).Quo(v.AsDecimalUnscaled(), scale)
	return q.Int64()
}
