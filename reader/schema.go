package reader

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"

	"github.com/vegasq/tabask/table"
)

// SchemaInfo describes one column of a loaded file.
type SchemaInfo struct {
	Name         string     `json:"name"`
	Kind         table.Kind `json:"kind"`
	Type         string     `json:"type"`
	PhysicalType string     `json:"physical_type,omitempty"`
	LogicalType  string     `json:"logical_type,omitempty"`
	Required     bool       `json:"required"`
	Optional     bool       `json:"optional"`
	Repeated     bool       `json:"repeated"`
}

// ExtractSchemaInfo describes the columns of a CSV, parquet or Excel file.
//
// Parquet files report their physical and logical types. For nested
// parquet types, leaf field names use dot notation (e.g.
// "address.street"). CSV and Excel columns only carry the inferred kind,
// which requires reading the whole file.
func ExtractSchemaInfo(fs afero.Fs, path string) ([]SchemaInfo, error) {
	switch formatOf(path) {
	case formatCSV, formatExcel:
		t, err := ReadFile(fs, path, Options{})
		if err != nil {
			return nil, err
		}
		return TableSchema(t), nil
	case formatParquet:
		return parquetSchema(fs, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// TableSchema describes an already loaded table.
func TableSchema(t *table.Table) []SchemaInfo {
	infos := make([]SchemaInfo, 0, len(t.Columns))
	for _, c := range t.Columns {
		infos = append(infos, SchemaInfo{
			Name:     c.Name,
			Kind:     c.Kind,
			Type:     c.Kind.String(),
			Optional: true,
		})
	}
	return infos
}

func parquetSchema(fs afero.Fs, path string) ([]SchemaInfo, error) {
	reader, err := NewReader(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = reader.Close() }()

	var infos []SchemaInfo
	for _, field := range reader.Schema().Fields() {
		infos = append(infos, extractFieldInfo(field, "", false)...)
	}
	return infos, nil
}

// extractFieldInfo recursively describes the leaves under field. The
// prefix builds dot-notation names and parentRepeated carries repetition
// down to the leaves.
func extractFieldInfo(field parquet.Field, prefix string, parentRepeated bool) []SchemaInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if children := field.Fields(); len(children) > 0 {
		var infos []SchemaInfo
		for _, child := range children {
			infos = append(infos, extractFieldInfo(child, name, repeated)...)
		}
		return infos
	}

	kind := fieldKind(field)
	if repeated {
		kind = table.KindOther
	}

	return []SchemaInfo{{
		Name:         name,
		Kind:         kind,
		Type:         userType(field),
		PhysicalType: physicalType(field),
		LogicalType:  logicalType(field),
		Required:     field.Required(),
		Optional:     field.Optional(),
		Repeated:     repeated,
	}}
}

func physicalType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

func logicalType(field parquet.Field) string {
	if field.Type() == nil {
		return ""
	}
	lt := field.Type().LogicalType()
	if lt == nil {
		return ""
	}
	return lt.String()
}

// userType returns a short, readable type name, preferring the logical
// type over the physical one.
func userType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	if lt := field.Type().LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil:
			return "STRING"
		case lt.Enum != nil:
			return "ENUM"
		case lt.UUID != nil:
			return "UUID"
		case lt.Date != nil:
			return "DATE"
		case lt.Time != nil:
			return "TIME"
		case lt.Timestamp != nil:
			return "TIMESTAMP"
		case lt.Decimal != nil:
			return "DECIMAL"
		case lt.Json != nil:
			return "JSON"
		case lt.Bson != nil:
			return "BSON"
		}
	}

	switch field.Type().Kind() {
	case parquet.Float:
		return "FLOAT32"
	case parquet.Double:
		return "FLOAT64"
	default:
		return physicalType(field)
	}
}
