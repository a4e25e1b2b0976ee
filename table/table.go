// Package table defines the in-memory tabular data model shared by the
// reader, query and output packages.
//
// A Table is an ordered set of typed columns plus an ordered sequence of
// rows. Rows are maps keyed by column name, the same shape the readers
// produce, so formatters and filters can work on them without conversion.
// Column kinds are classified once by whoever builds the table and are
// never re-derived from values afterwards.
package table

import (
	"fmt"
	"strings"
)

// Kind classifies a column for query purposes.
type Kind int

const (
	// KindOther covers nested values and anything unclassified.
	KindOther Kind = iota
	// KindNumeric columns hold int64 or float64 values.
	KindNumeric
	// KindCategorical columns hold string values.
	KindCategorical
	// KindDatetime columns hold time.Time values.
	KindDatetime
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindDatetime:
		return "datetime"
	default:
		return "other"
	}
}

// MarshalText lets kinds appear by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric":
		return KindNumeric, nil
	case "categorical", "text":
		return KindCategorical, nil
	case "datetime":
		return KindDatetime, nil
	case "other":
		return KindOther, nil
	default:
		return KindOther, fmt.Errorf("unknown column kind: %q", s)
	}
}

// Column describes a single named, typed column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Row is a single record keyed by column name. Missing values are nil.
type Row map[string]interface{}

// Table is an ordered set of columns and rows.
type Table struct {
	Columns []Column
	Rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...Column) *Table {
	return &Table{
		Columns: append([]Column(nil), columns...),
		Rows:    make([]Row, 0),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the exact given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether a column with the exact given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Values returns the values of one column in row order.
func (t *Table) Values(name string) []interface{} {
	values := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[name]
	}
	return values
}

// Distinct returns the distinct non-missing values of a column in order of
// first appearance. Empty strings count as missing.
func (t *Table) Distinct(name string) []interface{} {
	seen := make(map[interface{}]bool)
	var values []interface{}
	for _, row := range t.Rows {
		v := row[name]
		if IsMissing(v) {
			continue
		}
		key := distinctKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}
	return values
}

// distinctKey returns a comparable key for v. Non-comparable values (slices,
// maps) fall back to their printed form.
func distinctKey(v interface{}) interface{} {
	switch v.(type) {
	case []interface{}, map[string]interface{}, []byte:
		return fmt.Sprintf("%T:%v", v, v)
	default:
		return v
	}
}

// Append adds a row. The row map is stored as-is.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Clone returns a private copy of the table. Row maps are copied so the
// clone can be filtered or modified without touching the source; the
// values themselves are shared, which is safe for the scalar types tables hold.
func (t *Table) Clone() *Table {
	clone := &Table{
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		clone.Rows[i] = row.Clone()
	}
	return clone
}

// Select returns a new table with the same columns holding only the rows
// for which keep returns true. Rows are shared with the receiver.
func (t *Table) Select(keep func(Row) bool) *Table {
	out := &Table{
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([]Row, 0),
	}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Head returns a new table holding at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{
		Columns: append([]Column(nil), t.Columns...),
		Rows:    append([]Row(nil), t.Rows[:n]...),
	}
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
