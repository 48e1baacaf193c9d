package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/Kara-Zor-El/sqlvault/internal/errx"
)

// DefaultTreeOrder is the B+ tree order used for every table's primary
// index unless a caller overrides it.
const DefaultTreeOrder = 64

// Database is the catalog: a case-insensitive mapping from table name to
// Table, preserving original casing for display.
type Database struct {
	mu     sync.RWMutex
	tables map[string]*Table // keyed by lower-cased name
	order  []string          // original-cased names, creation order
	treeN  int
}

func NewDatabase() *Database {
	return &Database{tables: make(map[string]*Table), treeN: DefaultTreeOrder}
}

// CreateTable registers a new table, failing with TableExists if the name
// is already registered (case-insensitive). Column validation happens
// inside NewTable per spec §3 invariants.
func (d *Database) CreateTable(name string, cols []Column) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := d.tables[key]; exists {
		return nil, errx.New(errx.TableExists, "table %q already exists", name)
	}

	tbl, err := NewTable(name, cols, d.treeN)
	if err != nil {
		return nil, err
	}
	d.tables[key] = tbl
	d.order = append(d.order, name)
	return tbl, nil
}

func (d *Database) GetTable(name string) (*Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tbl, ok := d.tables[strings.ToLower(name)]
	if !ok {
		return nil, errx.New(errx.TableNotFound, "table %q does not exist", name)
	}
	return tbl, nil
}

func (d *Database) DropTable(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(name)
	if _, ok := d.tables[key]; !ok {
		return errx.New(errx.TableNotFound, "table %q does not exist", name)
	}
	delete(d.tables, key)
	for i, n := range d.order {
		if strings.EqualFold(n, name) {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListTables returns table display names in ascending order, a read-only
// introspection surface used by SHOW TABLES (SPEC_FULL.md §3 supplement).
func (d *Database) ListTables() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, len(d.order))
	copy(out, d.order)
	sort.Strings(out)
	return out
}

// AllTables returns every registered *Table, used by the whole-file codec
// on save.
func (d *Database) AllTables() []*Table {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Table, 0, len(d.order))
	for _, n := range d.order {
		out = append(out, d.tables[strings.ToLower(n)])
	}
	return out
}

// ColumnNames returns tbl's declared column names in order, satisfying the
// parser.TableColumns seam used to resolve an INSERT that omits its column
// list (spec §4.5: "the parser must consult the Catalog for this").
func (d *Database) ColumnNames(name string) ([]string, error) {
	tbl, err := d.GetTable(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		out[i] = c.Name
	}
	return out, nil
}

// PutTable installs a fully-built table (used by the codec on load).
func (d *Database) PutTable(tbl *Table) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(tbl.Name)
	if _, exists := d.tables[key]; !exists {
		d.order = append(d.order, tbl.Name)
	}
	d.tables[key] = tbl
}
