// Package schema builds read-only lookups over a table's columns.
//
// An Index maps lowercased column names to their canonical spelling and
// records each column's kind, so the question parser and executor never
// inspect value types themselves. A Matcher resolves free-text tokens to
// column names with approximate string similarity.
package schema

import (
	"strings"

	"github.com/vegasq/tabask/table"
)

// Index is a derived view over one table snapshot. Rebuild it whenever the
// table's columns change.
type Index struct {
	columns  []table.Column
	names    map[string]string
	kinds    map[string]table.Kind
	datetime []string
}

// Build creates an Index from the table's columns. It is a pure function of
// the schema and costs O(columns).
func Build(t *table.Table) *Index {
	idx := &Index{
		columns: append([]table.Column(nil), t.Columns...),
		names:   make(map[string]string, len(t.Columns)),
		kinds:   make(map[string]table.Kind, len(t.Columns)),
	}

	for _, c := range t.Columns {
		lower := strings.ToLower(c.Name)
		// Keep the first spelling when two columns differ only in case.
		if _, exists := idx.names[lower]; !exists {
			idx.names[lower] = c.Name
		}
		idx.kinds[c.Name] = c.Kind
		if c.Kind == table.KindDatetime {
			idx.datetime = append(idx.datetime, c.Name)
		}
	}

	return idx
}

// Columns returns the indexed columns in table order.
func (idx *Index) Columns() []table.Column {
	return append([]table.Column(nil), idx.columns...)
}

// Names returns the canonical column names in table order.
func (idx *Index) Names() []string {
	names := make([]string, len(idx.columns))
	for i, c := range idx.columns {
		names[i] = c.Name
	}
	return names
}

// Lookup resolves a column name case-insensitively.
func (idx *Index) Lookup(name string) (string, bool) {
	canonical, ok := idx.names[strings.ToLower(name)]
	return canonical, ok
}

// Kind returns the kind of the named column (exact name).
func (idx *Index) Kind(name string) (table.Kind, bool) {
	kind, ok := idx.kinds[name]
	return kind, ok
}

// IsNumeric reports whether the named column exists and is numeric.
func (idx *Index) IsNumeric(name string) bool {
	kind, ok := idx.kinds[name]
	return ok && kind == table.KindNumeric
}

// ColumnsOfKind returns the names of all columns of the given kind, in order.
func (idx *Index) ColumnsOfKind(kind table.Kind) []string {
	var names []string
	for _, c := range idx.columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// DatetimeColumns returns the datetime columns in table order.
func (idx *Index) DatetimeColumns() []string {
	return append([]string(nil), idx.datetime...)
}

// FirstDatetime returns the first datetime column by table order. Time
// filters always apply to this column.
func (idx *Index) FirstDatetime() (string, bool) {
	if len(idx.datetime) == 0 {
		return "", false
	}
	return idx.datetime[0], true
}
