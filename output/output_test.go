package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vegasq/tabask/table"
)

func resultTable() *table.Table {
	t := table.New(
		table.Column{Name: "region", Kind: table.KindCategorical},
		table.Column{Name: "date", Kind: table.KindDatetime},
		table.Column{Name: "sales", Kind: table.KindNumeric},
		table.Column{Name: "margin", Kind: table.KindNumeric},
	)
	t.Append(table.Row{"region": "East", "date": time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), "sales": int64(100), "margin": 0.25})
	t.Append(table.Row{"region": "=SUM(A1)", "date": nil, "sales": int64(-5), "margin": math.NaN()})
	return t
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"jsonl", &JSONFormatter{}},
		{"JSON", &JSONArrayFormatter{}},
		{"csv", &CSVFormatter{}},
		{"table", &TableFormatter{}},
		{"xlsx", &XLSXFormatter{}},
		{"Excel", &XLSXFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.name, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}

	_, err := New("xml", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(resultTable()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, `{"region":"East","date":"2023-03-05T00:00:00Z","sales":100,"margin":0.25}`, lines[0])
	assert.Equal(t, `{"region":"=SUM(A1)","date":null,"sales":-5,"margin":null}`, lines[1])
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(table.New()))
	assert.Empty(t, buf.String())
}

func TestJSONArrayFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONArrayFormatter(&buf).Format(resultTable()))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "East", rows[0]["region"])
	assert.Nil(t, rows[1]["margin"])

	buf.Reset()
	require.NoError(t, NewJSONArrayFormatter(&buf).Format(table.New()))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONFormatter_AggregateNaN(t *testing.T) {
	result := table.New(table.Column{Name: "mean_sales", Kind: table.KindNumeric})
	result.Append(table.Row{"mean_sales": math.NaN()})

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(result))
	assert.Equal(t, "{\"mean_sales\":null}\n", buf.String())
}

func TestCSVFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(&buf).Format(resultTable()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"region", "date", "sales", "margin"}, records[0])
	assert.Equal(t, []string{"East", "2023-03-05T00:00:00Z", "100", "0.25"}, records[1])
	assert.Equal(t, []string{"'=SUM(A1)", "", "-5", ""}, records[2])
}

func TestCSVFormatter_HeaderOnlyForEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	empty := table.New(table.Column{Name: "region", Kind: table.KindCategorical})
	require.NoError(t, NewCSVFormatter(&buf).Format(empty))
	assert.Equal(t, "region\n", buf.String())
}

func TestCSVFormatter_SparseRowsWithoutColumns(t *testing.T) {
	sparse := &table.Table{Rows: []table.Row{
		{"b": "x"},
		{"a": int64(1)},
	}}

	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(&buf).Format(sparse))
	assert.Equal(t, "a,b\n,x\n1,\n", buf.String())
}

func TestXLSXFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSXFormatter(&buf).Format(resultTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{XLSXSheet}, f.GetSheetList())

	cell := func(axis string) string {
		v, err := f.GetCellValue(XLSXSheet, axis, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, []string{"region", "date", "sales", "margin"}, []string{cell("A1"), cell("B1"), cell("C1"), cell("D1")})

	assert.Equal(t, "East", cell("A2"))
	serial, err := strconv.ParseFloat(cell("B2"), 64)
	require.NoError(t, err)
	date, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	assert.True(t, date.Equal(time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)), date)
	assert.Equal(t, "100", cell("C2"))
	assert.Equal(t, "0.25", cell("D2"))

	// Text is stored as text, never as a formula.
	assert.Equal(t, "=SUM(A1)", cell("A3"))
	formula, err := f.GetCellFormula(XLSXSheet, "A3")
	require.NoError(t, err)
	assert.Empty(t, formula)
	assert.Empty(t, cell("B3"))
	assert.Equal(t, "-5", cell("C3"))
	assert.Empty(t, cell("D3"))
}

func TestXLSXValue(t *testing.T) {
	assert.Nil(t, xlsxValue(math.NaN()))
	assert.Nil(t, xlsxValue(math.Inf(1)))
	assert.Nil(t, xlsxValue(nil))
	assert.Equal(t, 1.5, xlsxValue(float32(1.5)))
	assert.Equal(t, true, xlsxValue(true))
	assert.Equal(t, "abc", xlsxValue([]byte("abc")))
	assert.Equal(t, "[1 2]", xlsxValue([]interface{}{1, 2}))
}

func TestSanitizeCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"=1+1", "'=1+1"},
		{"+cmd", "'+cmd"},
		{"-2", "'-2"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"|pipe", "'|pipe"},
		{"=it's", "'=it''s"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeCell(tt.in))
		})
	}
}

func TestTableFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(nil)
	f.SetOutput(&buf)
	require.NoError(t, f.Format(resultTable()))

	out := buf.String()
	assert.Contains(t, out, "region")
	assert.Contains(t, out, "East")
	assert.Contains(t, out, "2023-03-05T00:00:00Z")
	assert.Contains(t, out, "(2 rows)")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "3", formatValue(int32(3)))
	assert.Equal(t, "1.5", formatValue(1.5))
	assert.Equal(t, "", formatValue(math.NaN()))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "abc", formatValue([]byte("abc")))
}
