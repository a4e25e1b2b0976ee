package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/tabask/table"
)

// TableFormatter outputs tables as an aligned text grid for terminals
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new text table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format renders t with a header row followed by one line per row and a
// row count.
func (f *TableFormatter) Format(t *table.Table) error {
	columns := columnNames(t)

	tw := tablewriter.NewWriter(f.writer)
	tw.SetHeader(columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	for _, row := range t.Rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = formatValue(row[col])
		}
		tw.Append(record)
	}
	tw.Render()

	_, err := fmt.Fprintf(f.writer, "(%d rows)\n", t.Len())
	return err
}
