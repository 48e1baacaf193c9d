package catalog

import (
	"strings"

	"github.com/Kara-Zor-El/sqlvault/internal/btree"
	"github.com/Kara-Zor-El/sqlvault/internal/errx"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// Table is {name, ordered columns, data store}. The data store is a B+ tree
// keyed by the primary-key column's canonical string form.
type Table struct {
	Name    string
	Columns []Column

	store *btree.Tree
	pkIdx int // index into Columns of the primary-key column
}

// NewTable validates the spec §3 Table invariants and constructs an empty
// table: exactly one primary-key column, case-insensitively unique column
// names, a fixed B+ tree order.
func NewTable(name string, cols []Column, order int) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errx.New(errx.InvalidArgument, "table name must not be empty")
	}

	seen := make(map[string]bool, len(cols))
	pk := -1
	for i, c := range cols {
		if err := c.validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return nil, errx.New(errx.InvalidArgument, "duplicate column name %q", c.Name)
		}
		seen[key] = true
		if c.IsPrimaryKey {
			if pk >= 0 {
				return nil, errx.New(errx.InvalidArgument, "table %q declares more than one primary key", name)
			}
			pk = i
		}
	}
	if pk < 0 {
		return nil, errx.New(errx.InvalidArgument, "table %q must declare exactly one primary key column", name)
	}

	tree, err := btree.NewTree(order)
	if err != nil {
		return nil, err
	}

	return &Table{Name: name, Columns: cols, store: tree, pkIdx: pk}, nil
}

func (t *Table) PrimaryKeyColumn() Column { return t.Columns[t.pkIdx] }

// Column looks up a column by case-insensitive name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// BuildRow fills in defaults for columns missing from a partial assignment
// and validates/coerces every value against its column, returning the
// ready-to-store Row and the primary key's string form.
func (t *Table) BuildRow(assign map[string]types.Value) (*Row, string, error) {
	row := NewRow()
	for _, c := range t.Columns {
		v, has := assign[strings.ToLower(c.Name)]
		if !has {
			v = c.Default
		}
		coerced, err := c.Coerce(v)
		if err != nil {
			return nil, "", err
		}
		row.Set(c.Name, coerced)
	}

	pkVal, _ := row.Get(t.PrimaryKeyColumn().Name)
	if pkVal.IsNull() {
		return nil, "", errx.New(errx.NullViolation, "primary key column %q cannot be null", t.PrimaryKeyColumn().Name)
	}
	return row, pkVal.String(), nil
}

// Insert is upsert semantics: an existing primary key overwrites.
func (t *Table) Insert(row *Row, key string) error {
	return t.store.Insert(key, row)
}

func (t *Table) Get(key string) (*Row, bool) {
	v, ok, err := t.store.Get(key)
	if err != nil || !ok {
		return nil, false
	}
	return v.(*Row), true
}

func (t *Table) Delete(key string) error {
	return t.store.Remove(key)
}

// FullScan returns every row in ascending primary-key order, grounded on
// the teacher's leaf-chain range scan but exposed as a proper whole-table
// iterator rather than relying on sentinel string bounds (spec §9 open
// question: "the spec requires a proper full scan API on the tree").
func (t *Table) FullScan() ([]*Row, error) {
	pairs, err := t.store.FullScan()
	if err != nil {
		return nil, err
	}
	out := make([]*Row, len(pairs))
	for i, p := range pairs {
		out[i] = p.Value.(*Row)
	}
	return out, nil
}

func (t *Table) Validate() bool { return t.store.Validate() }
