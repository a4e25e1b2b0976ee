package reader

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vegasq/tabask/table"
)

// ReadExcel loads the first worksheet of an .xlsx workbook into a table.
//
// The first row is the header. Cells are read unformatted and go through
// the same kind inference as CSV text, with one addition: numeric columns
// named like dates hold Excel serial dates and become datetime. Rows with
// no cells at all are skipped.
func ReadExcel(fs afero.Fs, path string, opts Options) (*table.Table, error) {
	opts = opts.withDefaults()

	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	wb, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	// Trailing empty cells are trimmed per row, so the widest row sets the
	// column count.
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if width == 0 {
		return nil, errors.New("missing header row")
	}
	header := make([]string, width)
	copy(header, rows[0])

	names, err := headerNames(header)
	if err != nil {
		return nil, err
	}

	columns := make([][]string, width)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		for i := range names {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			columns[i] = append(columns[i], cell)
		}
	}

	t := textTable(names, columns)
	promoteSerialDates(wb, t)

	opts.Logger.Debug("loaded workbook",
		zap.String("path", path),
		zap.String("sheet", sheets[0]),
		zap.Int("sheets", len(sheets)),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

// promoteSerialDates converts numeric date-named columns from Excel serial
// numbers to times, honouring the workbook's 1904 date system.
func promoteSerialDates(wb *excelize.File, t *table.Table) {
	var date1904 bool
	if props, err := wb.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	for i, col := range t.Columns {
		if col.Kind != table.KindNumeric || !isDateColumn(col.Name) {
			continue
		}

		converted := make([]interface{}, len(t.Rows))
		ok, present := true, 0
		for r, row := range t.Rows {
			v := row[col.Name]
			if v == nil {
				continue
			}
			present++
			serial, isNum := table.ToFloat64(v)
			if !isNum {
				ok = false
				break
			}
			when, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				ok = false
				break
			}
			converted[r] = when
		}
		if !ok || present == 0 {
			continue
		}

		for r, row := range t.Rows {
			row[col.Name] = converted[r]
		}
		t.Columns[i].Kind = table.KindDatetime
	}
}
