package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vegasq/tabask/table"
)

// CSVFormatter outputs tables as CSV with a header row
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes t as CSV in column order. Text cells are sanitized
// against formula injection; numbers are written as-is, so negative
// values stay numeric.
func (c *CSVFormatter) Format(t *table.Table) error {
	csvWriter := csv.NewWriter(c.writer)

	columns := columnNames(t)
	if len(columns) > 0 {
		if err := csvWriter.Write(columns); err != nil {
			return err
		}
	}

	for _, row := range t.Rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			v := row[col]
			if s, ok := v.(string); ok {
				record[i] = sanitizeCell(s)
				continue
			}
			record[i] = formatValue(v)
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return nil
}
