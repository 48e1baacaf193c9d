package catalog

import (
	"strings"

	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// Row is a case-insensitive-lookup mapping from column name to Value.
// Every row in a table carries entries for all of that table's columns.
type Row struct {
	values map[string]types.Value // keyed by lower-cased column name
	order  []string               // original-cased names, declared order
}

func NewRow() *Row {
	return &Row{values: make(map[string]types.Value)}
}

func (r *Row) Set(col string, v types.Value) {
	key := strings.ToLower(col)
	if _, exists := r.values[key]; !exists {
		r.order = append(r.order, col)
	}
	r.values[key] = v
}

func (r *Row) Get(col string) (types.Value, bool) {
	v, ok := r.values[strings.ToLower(col)]
	return v, ok
}

// Columns returns column names in the order they were first set.
func (r *Row) Columns() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Clone returns an independent copy, used whenever UPDATE builds a new row
// from an existing one before reinserting it under the (possibly unchanged)
// primary key.
func (r *Row) Clone() *Row {
	cp := &Row{
		values: make(map[string]types.Value, len(r.values)),
		order:  make([]string, len(r.order)),
	}
	copy(cp.order, r.order)
	for k, v := range r.values {
		cp.values[k] = v
	}
	return cp
}
