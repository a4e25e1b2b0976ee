package reader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/spf13/afero"

	"github.com/vegasq/tabask/table"
)

// julianUnixEpoch is the Julian day number of 1970-01-01.
const julianUnixEpoch = 2440588

// Reader reads parquet files and returns rows as maps.
//
// It keeps both the underlying file handle and the parquet file handle so
// both can be released by Close.
type Reader struct {
	file   afero.File
	pqFile *parquet.File
}

// NewReader opens a parquet file on fs.
//
// Returns an error if the file doesn't exist or is not a valid parquet
// file.
//
// Example:
//
//	r, err := NewReader(afero.NewOsFs(), "sales.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
func NewReader(fs afero.Fs, path string) (*Reader, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &Reader{
		file:   file,
		pqFile: pqFile,
	}, nil
}

// ReadAll reads all rows into memory as raw maps keyed by column name.
// Values are exactly what the parquet decoder produced.
func (r *Reader) ReadAll() ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0)

	reader := parquet.NewReader(r.pqFile)
	defer func() { _ = reader.Close() }()

	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Table reads all rows and converts them into a table. Columns follow the
// file schema order; date, timestamp and INT96 values become time.Time.
func (r *Reader) Table() (*table.Table, error) {
	raw, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	fields := r.Schema().Fields()
	t := &table.Table{Rows: make([]table.Row, len(raw))}
	for i := range raw {
		t.Rows[i] = make(table.Row, len(fields))
	}

	for _, field := range fields {
		name := field.Name()
		kind := fieldKind(field)

		values := make([]interface{}, len(raw))
		for i, row := range raw {
			values[i] = normalizeParquet(field, row[name])
		}
		if kind == table.KindCategorical && isDateColumn(name) && promoteDates(values) {
			kind = table.KindDatetime
		}

		t.Columns = append(t.Columns, table.Column{Name: name, Kind: kind})
		for i, v := range values {
			t.Rows[i][name] = v
		}
	}

	return t, nil
}

// Schema returns the parquet file schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// Close releases the underlying file. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// ReadParquet loads a whole parquet file into a table.
func ReadParquet(fs afero.Fs, path string) (*table.Table, error) {
	r, err := NewReader(fs, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.Table()
}

// fieldKind classifies a top-level parquet field. Nested and repeated
// fields are carried as opaque values.
func fieldKind(field parquet.Field) table.Kind {
	if field.Type() == nil || len(field.Fields()) > 0 || field.Repeated() {
		return table.KindOther
	}

	typ := field.Type()
	if lt := typ.LogicalType(); lt != nil {
		switch {
		case lt.Date != nil, lt.Timestamp != nil:
			return table.KindDatetime
		case lt.UTF8 != nil, lt.Enum != nil, lt.Json != nil:
			return table.KindCategorical
		case lt.Integer != nil:
			return table.KindNumeric
		case lt.Decimal != nil:
			if typ.Kind() == parquet.Int32 || typ.Kind() == parquet.Int64 {
				return table.KindNumeric
			}
			return table.KindOther
		case lt.UUID != nil, lt.Time != nil:
			return table.KindOther
		}
	}

	switch typ.Kind() {
	case parquet.Boolean, parquet.Int32, parquet.Int64, parquet.Float, parquet.Double:
		return table.KindNumeric
	case parquet.Int96:
		return table.KindDatetime
	case parquet.ByteArray:
		return table.KindCategorical
	default:
		return table.KindOther
	}
}

// normalizeParquet converts a decoded value into the representation tables
// use for the field's kind.
func normalizeParquet(field parquet.Field, v interface{}) interface{} {
	if v == nil || field.Type() == nil {
		return v
	}

	switch val := v.(type) {
	case time.Time:
		return val.UTC()
	case deprecated.Int96:
		return int96Time(val)
	case []byte:
		if field.Type().Kind() == parquet.ByteArray {
			return string(val)
		}
		return v
	case float32:
		return float64(val)
	}

	lt := field.Type().LogicalType()
	if lt == nil {
		if n, ok := v.(int32); ok {
			return int64(n)
		}
		return v
	}

	switch {
	case lt.Date != nil:
		if days, ok := table.ToFloat64(v); ok {
			return time.Unix(int64(days)*86400, 0).UTC()
		}
	case lt.Timestamp != nil:
		if n, ok := v.(int64); ok {
			unit := lt.Timestamp.Unit
			switch {
			case unit.Millis != nil:
				return time.UnixMilli(n).UTC()
			case unit.Micros != nil:
				return time.UnixMicro(n).UTC()
			default:
				return time.Unix(0, n).UTC()
			}
		}
	case lt.Decimal != nil:
		if n, ok := table.ToFloat64(v); ok {
			return n / math.Pow10(int(lt.Decimal.Scale))
		}
	}

	if n, ok := v.(int32); ok {
		return int64(n)
	}
	return v
}

// int96Time decodes the legacy INT96 timestamp layout: nanoseconds of the
// day in the low 8 bytes, Julian day in the high 4.
func int96Time(v deprecated.Int96) time.Time {
	nanos := int64(uint64(v[1])<<32 | uint64(v[0]))
	days := int64(v[2]) - julianUnixEpoch
	return time.Unix(days*86400, nanos).UTC()
}
