package reader

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vegasq/tabask/table"
)

// writeExcel stores rows on the first sheet, keyed by their start cell.
func writeExcel(t *testing.T, fs afero.Fs, path string, rows map[string][]interface{}) {
	t.Helper()

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	for cell, row := range rows {
		row := row
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}

	f, err := fs.Create(path)
	require.NoError(t, err)
	require.NoError(t, wb.Write(f))
	require.NoError(t, f.Close())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReadExcel(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExcel(t, fs, "sales.xlsx", map[string][]interface{}{
		"A1": {"date", "region", "sales", "revenue", "returned", "note"},
		"A2": {day(2023, 3, 5), "East", 100, 1000.5, true, "vip"},
		"A3": {day(2023, 3, 20), "West", 200, nil, false, nil},
		"A5": {day(2023, 4, 2), "East", 50, 800, true},
	})

	tbl, err := ReadExcel(fs, "sales.xlsx", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "region", "sales", "revenue", "returned", "note"}, tbl.ColumnNames())
	assert.Equal(t, map[string]table.Kind{
		"date":     table.KindDatetime,
		"region":   table.KindCategorical,
		"sales":    table.KindNumeric,
		"revenue":  table.KindNumeric,
		"returned": table.KindNumeric,
		"note":     table.KindCategorical,
	}, kinds(tbl))

	require.Equal(t, 3, tbl.Len(), "blank rows are skipped")

	first, ok := tbl.Rows[0]["date"].(time.Time)
	require.True(t, ok, "date should be time.Time, got %T", tbl.Rows[0]["date"])
	assert.True(t, first.Equal(day(2023, 3, 5)), first)
	last, ok := tbl.Rows[2]["date"].(time.Time)
	require.True(t, ok)
	assert.True(t, last.Equal(day(2023, 4, 2)), last)

	assert.Equal(t, "East", tbl.Rows[0]["region"])
	assert.Equal(t, int64(200), tbl.Rows[1]["sales"])
	assert.Equal(t, 1000.5, tbl.Rows[0]["revenue"])
	assert.Nil(t, tbl.Rows[1]["revenue"])
	assert.Equal(t, int64(1), tbl.Rows[0]["returned"])
	assert.Equal(t, int64(0), tbl.Rows[1]["returned"])
	assert.Equal(t, "vip", tbl.Rows[0]["note"])
	assert.Nil(t, tbl.Rows[2]["note"])
}

func TestReadExcel_FirstSheetOnly(t *testing.T) {
	wb := excelize.NewFile()
	row := []interface{}{"region", "sales"}
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &row))
	row = []interface{}{"East", 7}
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &row))
	_, err := wb.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, wb.SetCellValue("Notes", "A1", "ignored"))

	fs := afero.NewMemMapFs()
	f, err := fs.Create("book.xlsx")
	require.NoError(t, err)
	require.NoError(t, wb.Write(f))
	require.NoError(t, f.Close())
	require.NoError(t, wb.Close())

	tbl, err := ReadExcel(fs, "book.xlsx", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sales"}, tbl.ColumnNames())
	assert.Equal(t, []table.Row{{"region": "East", "sales": int64(7)}}, tbl.Rows)
}

func TestReadExcel_TextDates(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExcel(t, fs, "orders.xlsx", map[string][]interface{}{
		"A1": {"Order Date", "units"},
		"A2": {"2023-03-05", 3},
		"A3": {"03/20/2023", 4},
	})

	tbl, err := ReadExcel(fs, "orders.xlsx", Options{})
	require.NoError(t, err)

	assert.Equal(t, table.KindDatetime, kinds(tbl)["Order Date"])
	assert.Equal(t, day(2023, 3, 20), tbl.Rows[1]["Order Date"])
}

func TestReadExcel_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "broken.xlsx", "not a zip archive")
	writeExcel(t, fs, "dupes.xlsx", map[string][]interface{}{
		"A1": {"sales", "sales"},
	})
	writeExcel(t, fs, "empty.xlsx", map[string][]interface{}{})

	tests := []struct {
		path     string
		contains string
	}{
		{"missing.xlsx", "failed to open file"},
		{"broken.xlsx", "failed to open workbook"},
		{"dupes.xlsx", `duplicate column "sales"`},
		{"empty.xlsx", "missing header row"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := ReadExcel(fs, tt.path, Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestReadFiles_ExcelAndCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "data/a.csv", "region,sales\nNorth,7\n")
	writeExcel(t, fs, "data/b.xlsx", map[string][]interface{}{
		"A1": {"region", "sales"},
		"A2": {"East", 10},
		"A3": {"West", 2.5},
	})

	tbl, err := ReadFiles(fs, "data/*", Options{})
	require.NoError(t, err)

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, table.KindNumeric, kinds(tbl)["sales"])
	assert.Equal(t, "data/b.xlsx", tbl.Rows[1][FileColumn])
	assert.Equal(t, 10.0, tbl.Rows[1]["sales"])
	assert.Equal(t, 2.5, tbl.Rows[2]["sales"])

	infos, err := ExtractSchemaInfo(fs, "data/b.xlsx")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "sales", infos[1].Name)
	assert.Equal(t, table.KindNumeric, infos[1].Kind)
}
