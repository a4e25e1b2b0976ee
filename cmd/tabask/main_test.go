package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const salesCSV = `date,region,sales,revenue
2023-03-05,East,100,1000.5
2023-03-20,West,200,1500
2023-04-02,East,50,800
`

type saleRow struct {
	Region string  `parquet:"region"`
	Sales  int64   `parquet:"sales"`
	Margin float64 `parquet:"margin"`
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sales.csv", []byte(salesCSV), 0o644))
	return fs
}

func writeParquet(t *testing.T, fs afero.Fs, path string, rows []saleRow) {
	t.Helper()
	f, err := fs.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[saleRow](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func runCLI(t *testing.T, fs afero.Fs, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, fs, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_WholeTable(t *testing.T) {
	code, out, errOut := runCLI(t, newFs(t), "sales.csv")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"date":"2023-03-05T00:00:00Z","region":"East","sales":100,"revenue":1000.5}`, lines[0])
}

func TestRun_Question(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "sum with time filter",
			args: []string{"-q", "total sales in March 2023", "-f", "csv", "sales.csv"},
			want: "sum_sales\n300\n",
		},
		{
			name: "mean with category filter",
			args: []string{"-q", "average revenue for east", "-f", "jsonl", "sales.csv"},
			want: "{\"mean_revenue\":900.25}\n",
		},
		{
			name: "filter only",
			args: []string{"-q", "show west", "-f", "csv", "sales.csv"},
			want: "date,region,sales,revenue\n2023-03-20T00:00:00Z,West,200,1500\n",
		},
		{
			name: "limit",
			args: []string{"-limit", "1", "-f", "csv", "sales.csv"},
			want: "date,region,sales,revenue\n2023-03-05T00:00:00Z,East,100,1000.5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, newFs(t), tt.args...)
			require.Equal(t, 0, code, errOut)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRun_Plan(t *testing.T) {
	code, out, errOut := runCLI(t, newFs(t), "-plan", "-q", "max revenue for west in 2023", "sales.csv")
	require.Equal(t, 0, code, errOut)
	assert.JSONEq(t, `{
		"aggregation": "max",
		"metric": "revenue",
		"filters": [{"column": "region", "value": "West"}],
		"time_filter": {"year": 2023}
	}`, out)
}

func TestRun_Match(t *testing.T) {
	code, out, errOut := runCLI(t, newFs(t), "-match", "revenu", "sales.csv")
	require.Equal(t, 0, code, errOut)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "revenue", got["column"])
	assert.Equal(t, true, got["matched"])
}

func TestRun_Schema(t *testing.T) {
	fs := newFs(t)

	code, out, errOut := runCLI(t, fs, "-schema", "-f", "csv", "sales.csv")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "name,kind,type,physical_type,logical_type,required,optional,repeated\n")
	assert.Contains(t, out, "region,categorical,categorical,,,false,true,false\n")
	assert.Contains(t, out, "date,datetime,datetime,,,false,true,false\n")

	writeParquet(t, fs, "data/a.parquet", []saleRow{{Region: "East", Sales: 1, Margin: 0.5}})
	writeParquet(t, fs, "data/b.parquet", []saleRow{{Region: "West", Sales: 2, Margin: 0.1}})

	code, out, errOut = runCLI(t, fs, "-schema", "data/*.parquet")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "# Showing schema from: data/a.parquet (2 files matched)")
	assert.Contains(t, out, `"name":"margin"`)
	assert.Contains(t, out, `"physical_type":"DOUBLE"`)
}

func TestRun_Glob(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeParquet(t, fs, "data/a.parquet", []saleRow{{Region: "East", Sales: 1, Margin: 0.5}})
	writeParquet(t, fs, "data/b.parquet", []saleRow{{Region: "West", Sales: 2, Margin: 0.1}, {Region: "East", Sales: 4, Margin: 0.2}})

	code, out, errOut := runCLI(t, fs, "-q", "total sales for east", "-f", "csv", "data/*.parquet")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "sum_sales\n5\n", out)
}

func TestRun_Ask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req struct {
			Prompt string `json:"prompt"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "Dataset shape: (1, 1)")
		assert.Contains(t, req.Prompt, "is this good?")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "March 2023 sales totalled 300."}`))
	}))
	defer srv.Close()

	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "tabask.yaml", []byte("narrative:\n  provider: ollama\n  endpoint: "+srv.URL+"\n"), 0o644))

	code, out, errOut := runCLI(t, fs, "-config", "tabask.yaml", "-q", "total sales in March 2023", "-ask", "is this good?", "sales.csv")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "March 2023 sales totalled 300.\n", out)
}

func TestRun_AskFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "tabask.yaml", []byte("narrative:\n  provider: ollama\n  endpoint: "+srv.URL+"\n"), 0o644))

	code, out, _ := runCLI(t, fs, "-config", "tabask.yaml", "-ask", "why?", "sales.csv")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "AI Error: "), out)
	assert.Contains(t, out, "503")
}

func TestRun_SQL(t *testing.T) {
	code, out, errOut := runCLI(t, afero.NewMemMapFs(),
		"-sql", "SELECT 'East' AS region, 10 AS sales",
		"-sql", "SELECT 'West' AS region, 5 AS sales",
		"-q", "total sales",
		"-f", "csv",
	)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "sum_sales\n15\n", out)
}

func TestRun_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE orders (region TEXT, amount REAL);
		INSERT INTO orders VALUES ('East', 10.5), ('West', 4), ('East', 1.5)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	code, out, errOut := runCLI(t, afero.NewMemMapFs(),
		"-dsn", "sqlite:///"+path,
		"-sql", "SELECT * FROM orders",
		"-q", "average amount for east",
		"-f", "csv",
	)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "mean_amount\n6\n", out)
}

func TestRun_Excel(t *testing.T) {
	fs := newFs(t)

	// The CSV result written as a workbook feeds straight back in.
	code, out, errOut := runCLI(t, fs, "-f", "xlsx", "sales.csv")
	require.Equal(t, 0, code, errOut)
	require.NoError(t, afero.WriteFile(fs, "sales.xlsx", []byte(out), 0o644))

	wb, err := excelize.OpenReader(strings.NewReader(out))
	require.NoError(t, err)
	rows, err := wb.GetRows("Sheet1")
	require.NoError(t, err)
	require.NoError(t, wb.Close())
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"date", "region", "sales", "revenue"}, rows[0])

	code, out, errOut = runCLI(t, fs, "-q", "total sales in March 2023", "-f", "csv", "sales.xlsx")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "sum_sales\n300\n", out)

	code, out, errOut = runCLI(t, fs, "-schema", "-f", "csv", "sales.xlsx")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "date,datetime,datetime,,,false,true,false\n")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"missing file", []string{"-q", "total sales"}, "Error: missing file argument"},
		{"file not found", []string{"nope.csv"}, "Error: file 'nope.csv' not found"},
		{"unsupported file", []string{"notes.md"}, "unsupported file format"},
		{"no glob matches", []string{"data/*.csv"}, "no files match pattern: data/*.csv"},
		{"negative limit", []string{"-limit", "-5", "sales.csv"}, "-limit must be non-negative"},
		{"plan without question", []string{"-plan", "sales.csv"}, "-plan requires -q"},
		{"schema with question", []string{"-schema", "-q", "sales", "sales.csv"}, "--schema cannot be combined"},
		{"sql with file", []string{"-sql", "select 1", "sales.csv"}, "use either -sql or a file argument"},
		{"unknown format", []string{"-f", "xml", "sales.csv"}, "output.format"},
		{"missing config", []string{"-config", "missing.yaml", "sales.csv"}, "failed to read config missing.yaml"},
		{"unknown flag", []string{"-bogus", "sales.csv"}, "flag provided but not defined: -bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFs(t)
			require.NoError(t, afero.WriteFile(fs, "notes.md", []byte("# notes\n"), 0o644))

			code, out, errOut := runCLI(t, fs, tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, tt.contains)
		})
	}
}

func TestRun_UnknownFormatListsFormatsOnce(t *testing.T) {
	code, out, errOut := runCLI(t, newFs(t), "-f", "xml", "sales.csv")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Equal(t, 1, strings.Count(errOut, "(supported:"), errOut)
	assert.Contains(t, errOut, `unknown output format: "xml" (supported: jsonl, json, csv, table, xlsx)`)
}

func TestRun_Help(t *testing.T) {
	code, _, errOut := runCLI(t, newFs(t), "-h")
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "Usage: tabask [options] <file|glob>")
}
