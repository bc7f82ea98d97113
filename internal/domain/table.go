package domain

import (
	"fmt"
	"strings"
)

// Table is a raw, row-oriented string table as read from a tabular source.
// Columns are addressed by header name rather than position.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a Table and indexes its header. Header names are trimmed;
// on duplicate names the first occurrence wins.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		c = strings.TrimSpace(c)
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

// Col returns the position of a column, or -1 if absent.
func (t *Table) Col(name string) int {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	if !ok {
		return -1
	}
	return i
}

// Has reports whether the column is present.
func (t *Table) Has(name string) bool {
	return t.Col(name) >= 0
}

// Require fails with ErrSchemaMismatch listing every absent column.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table %q missing columns %s", ErrSchemaMismatch, t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Value returns the trimmed cell for a row and column name. Short rows and
// absent columns yield "".
func (t *Table) Value(row []string, name string) string {
	i := t.Col(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
