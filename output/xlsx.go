package output

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vegasq/tabask/table"
)

// XLSXSheet is the worksheet results are written to.
const XLSXSheet = "Sheet1"

// XLSXFormatter outputs tables as a single-sheet Excel workbook
type XLSXFormatter struct {
	writer io.Writer
}

// NewXLSXFormatter creates a new Excel formatter
func NewXLSXFormatter(w io.Writer) *XLSXFormatter {
	return &XLSXFormatter{writer: w}
}

// SetOutput sets the output writer
func (x *XLSXFormatter) SetOutput(w io.Writer) {
	x.writer = w
}

// Format writes t as an .xlsx workbook with a header row. Numbers, booleans
// and times keep their cell types; missing cells and NaN are left empty.
func (x *XLSXFormatter) Format(t *table.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	columns := columnNames(t)
	if len(columns) > 0 {
		header := make([]interface{}, len(columns))
		for i, col := range columns {
			header[i] = col
		}
		if err := f.SetSheetRow(XLSXSheet, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(columns))
		for i, col := range columns {
			cells[i] = xlsxValue(row[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(XLSXSheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if err := f.Write(x.writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// xlsxValue maps cell values onto types excelize stores natively.
func xlsxValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, string, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	case float32:
		return xlsxValue(float64(val))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	default:
		return formatValue(val)
	}
}
