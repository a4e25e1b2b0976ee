package reader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/vegasq/tabask/table"
)

// ErrNoQueries is returned by ReadSQL when it is given nothing to run.
var ErrNoQueries = errors.New("no queries given")

// driverFor maps a data source name onto a database/sql driver and the
// connection string that driver expects.
//
//	postgres://... or postgresql://...  -> pgx
//	sqlite:///relative.db               -> sqlite3, file relative.db
//	sqlite:////abs/path.db              -> sqlite3, file /abs/path.db
//	sqlite://                           -> sqlite3, in memory
//	duckdb://path                       -> duckdb, file at path
//	path                                -> duckdb, file at path
//	""                                  -> duckdb, in memory
func driverFor(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "/")
		if path == "" {
			path = ":memory:"
		}
		return "sqlite3", path
	case strings.HasPrefix(dsn, "duckdb://"):
		return "duckdb", strings.TrimPrefix(dsn, "duckdb://")
	default:
		return "duckdb", dsn
	}
}

// ReadSQL runs every query against the database at dsn and appends their
// results into one table. Column kinds are inferred from the scanned
// values.
func ReadSQL(ctx context.Context, dsn string, queries []string, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}

	driver, source := driverFor(dsn)
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	tables := make([]*table.Table, 0, len(queries))
	for i, q := range queries {
		t, err := queryTable(ctx, db, q)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		logger.Debug("query loaded",
			zap.String("driver", driver),
			zap.Int("query", i+1),
			zap.Int("rows", t.Len()),
			zap.Int("columns", len(t.Columns)),
		)
		tables = append(tables, t)
	}

	return table.Concat(tables...), nil
}

func queryTable(ctx context.Context, db *sql.DB, query string) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	columns := make([][]interface{}, len(names))
	for rows.Next() {
		dest := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range dest {
			columns[i] = append(columns[i], normalizeScanned(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	t := &table.Table{Rows: make([]table.Row, 0)}
	for i, name := range names {
		t.Columns = append(t.Columns, table.Column{Name: name, Kind: inferScanned(name, columns[i])})
	}

	rowCount := 0
	if len(columns) > 0 {
		rowCount = len(columns[0])
	}
	for r := 0; r < rowCount; r++ {
		row := make(table.Row, len(names))
		for i, name := range names {
			row[name] = columns[i][r]
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
