package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/tabask/table"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to write a table in the target format
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes t in the formatter's specific format
	Format(t *table.Table) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// ErrUnknownFormat is returned by New for unsupported format names.
var ErrUnknownFormat = errors.New("unknown output format")

// Names lists the format names New accepts.
var Names = []string{"jsonl", "json", "csv", "table", "xlsx"}

// New returns the formatter registered under name, writing to w.
func New(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case "jsonl", "ndjson":
		return NewJSONFormatter(w), nil
	case "json":
		return NewJSONArrayFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table", "pretty":
		return NewTableFormatter(w), nil
	case "xlsx", "excel":
		return NewXLSXFormatter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, name, strings.Join(Names, ", "))
	}
}

// columnNames returns the table's declared column order. Tables built by
// hand without columns fall back to the union of row keys, sorted.
func columnNames(t *table.Table) []string {
	if len(t.Columns) > 0 {
		return t.ColumnNames()
	}
	return rowKeys(t.Rows)
}
