package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/vegasq/tabask/table"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes one JSON object per row, keys in column order.
func (j *JSONFormatter) Format(t *table.Table) error {
	bw := bufio.NewWriter(j.writer)
	columns := columnNames(t)
	for _, row := range t.Rows {
		line, err := marshalRow(columns, row)
		if err != nil {
			return err
		}
		if _, err := bw.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// JSONArrayFormatter outputs all rows as a single JSON array
type JSONArrayFormatter struct {
	writer io.Writer
}

// NewJSONArrayFormatter creates a new JSON array formatter
func NewJSONArrayFormatter(w io.Writer) *JSONArrayFormatter {
	return &JSONArrayFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONArrayFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes t as a JSON array of objects. An empty table writes [].
func (j *JSONArrayFormatter) Format(t *table.Table) error {
	raw, err := MarshalRows(columnNames(t), t.Rows)
	if err != nil {
		return err
	}
	_, err = j.writer.Write(append(raw, '\n'))
	return err
}

// MarshalRows encodes rows as a JSON array of objects with keys in the
// given column order.
func MarshalRows(columns []string, rows []table.Row) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		obj, err := marshalRow(columns, row)
		if err != nil {
			return nil, err
		}
		buf.Write(obj)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalRow encodes one row as a JSON object. encoding/json sorts map
// keys, so the object is assembled by hand to keep column order.
func marshalRow(columns []string, row table.Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonValue(row[col]))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
