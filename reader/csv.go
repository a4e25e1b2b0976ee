package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/vegasq/tabask/table"
)

// DefaultMaxFiles caps how many files a single glob may expand to.
const DefaultMaxFiles = 1000

// Options control how files are loaded.
type Options struct {
	// Delimiter separates CSV fields. Zero means ',', or a tab for .tsv
	// files.
	Delimiter rune
	// MaxFiles limits glob expansion. Zero means DefaultMaxFiles.
	MaxFiles int
	// Logger receives per-file debug output. Nil disables logging.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// ReadCSV loads a CSV file with a header row into a table.
//
// Column kinds are inferred from the cell text; see the package
// documentation for the rules.
func ReadCSV(fs afero.Fs, path string, opts Options) (*table.Table, error) {
	opts = opts.withDefaults()

	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return parseCSV(file, opts)
}

func parseCSV(r io.Reader, opts Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	names, err := headerNames(header)
	if err != nil {
		return nil, err
	}

	columns := make([][]string, len(names))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		for i := range names {
			columns[i] = append(columns[i], record[i])
		}
	}

	return textTable(names, columns), nil
}

// headerNames cleans a header row: a leading BOM is dropped, blank names
// become column_N and duplicates are rejected.
func headerNames(header []string) ([]string, error) {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}

// textTable infers each column's kind from its raw cells and assembles the
// rows. Every column must hold the same number of cells.
func textTable(names []string, columns [][]string) *table.Table {
	t := &table.Table{Rows: make([]table.Row, 0)}
	values := make([][]interface{}, len(names))
	for i, name := range names {
		kind, vals := inferText(name, columns[i])
		t.Columns = append(t.Columns, table.Column{Name: name, Kind: kind})
		values[i] = vals
	}

	rowCount := 0
	if len(columns) > 0 {
		rowCount = len(columns[0])
	}
	for r := 0; r < rowCount; r++ {
		row := make(table.Row, len(names))
		for i, name := range names {
			row[name] = values[i][r]
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}
