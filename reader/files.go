package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/vegasq/tabask/table"
)

// FileColumn is added to tables built from more than one file and holds
// each row's source path.
const FileColumn = "_file"

// ErrUnsupportedFormat is returned for paths whose extension is not a
// CSV, parquet or Excel one.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type format int

const (
	formatUnknown format = iota
	formatCSV
	formatParquet
	formatExcel
)

func formatOf(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return formatCSV
	case ".parquet", ".pq":
		return formatParquet
	case ".xlsx", ".xlsm":
		return formatExcel
	default:
		return formatUnknown
	}
}

// ReadFile loads a single CSV, parquet or Excel file, chosen by extension.
func ReadFile(fs afero.Fs, path string, opts Options) (*table.Table, error) {
	switch formatOf(path) {
	case formatCSV:
		if strings.EqualFold(filepath.Ext(path), ".tsv") && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return ReadCSV(fs, path, opts)
	case formatParquet:
		return ReadParquet(fs, path)
	case formatExcel:
		return ReadExcel(fs, path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadFiles loads a single path or every file matching a glob pattern.
//
// The pattern can include wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
//
// Examples:
//   - "data/*.csv" - all CSV files in data directory
//   - "data/2024-*.parquet" - parquet files starting with 2024- in data directory
//
// Tables from several files are appended; see table.Concat for how
// differing columns combine. Each row of a glob read is tagged with a
// "_file" column holding its source path. Single-file reads are returned
// unchanged.
func ReadFiles(fs afero.Fs, pattern string, opts Options) (*table.Table, error) {
	opts = opts.withDefaults()

	if !strings.ContainsAny(pattern, "*?[") {
		t, err := ReadFile(fs, pattern, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", pattern, err)
		}
		opts.Logger.Debug("loaded file",
			zap.String("path", pattern),
			zap.Int("rows", t.Len()),
			zap.Int("columns", len(t.Columns)),
		)
		return t, nil
	}

	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}

	if len(matches) > opts.MaxFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), opts.MaxFiles)
	}

	tables := make([]*table.Table, 0, len(matches))
	for _, path := range matches {
		t, err := ReadFile(fs, path, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if !t.HasColumn(FileColumn) {
			t.Columns = append(t.Columns, table.Column{Name: FileColumn, Kind: table.KindCategorical})
		}
		for _, row := range t.Rows {
			row[FileColumn] = path
		}

		opts.Logger.Debug("loaded file",
			zap.String("path", path),
			zap.Int("rows", t.Len()),
			zap.Int("columns", len(t.Columns)),
		)
		tables = append(tables, t)
	}

	combined := table.Concat(tables...)
	opts.Logger.Info("loaded files",
		zap.String("pattern", pattern),
		zap.Int("files", len(matches)),
		zap.Int("rows", combined.Len()),
	)
	return combined, nil
}
