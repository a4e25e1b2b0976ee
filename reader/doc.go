// Package reader loads CSV files, Apache Parquet files, Excel workbooks
// and SQL query results into tables.
//
// All file access goes through an afero.Fs, so callers pass
// afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
//
// # Basic Usage
//
// Reading a single file, with the format chosen by extension:
//
//	t, err := reader.ReadFiles(afero.NewOsFs(), "sales.csv", reader.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Multi-file Operations
//
// Reading multiple files using glob patterns:
//
//	t, err := reader.ReadFiles(fs, "data/*.parquet", reader.Options{})
//
//	// Each row includes a "_file" column with the source file path
//	for _, row := range t.Rows {
//	    fmt.Printf("From %s: %v\n", row["_file"], row)
//	}
//
// Files with different columns are appended; absent cells are nil.
//
// # Column Kinds
//
// CSV cells are plain text, so kinds are inferred per column:
//   - every present cell an integer: numeric, int64 values
//   - every present cell a number: numeric, float64 values
//   - every present cell true/false: numeric, bool values
//   - name contains "date" and every present cell parses as a date:
//     datetime, time.Time values
//   - anything else: categorical, string values
//
// Cells spelled "", NA, N/A, null, NULL or NaN are missing and stored as
// nil. Excel cells follow the same rules, read from the first worksheet
// without number formatting; date-named columns holding serial numbers
// become datetime. Parquet columns take their kind from the physical and
// logical types; SQL columns from the scanned Go values.
//
// # Databases
//
// ReadSQL runs one or more queries and appends the results:
//
//	t, err := reader.ReadSQL(ctx, "postgres://localhost/shop", []string{
//	    "SELECT * FROM orders",
//	}, logger)
//
// postgres:// and postgresql:// DSNs use pgx and sqlite:///file.db uses
// SQLite; anything else is opened with DuckDB, where an empty DSN means an
// in-memory database.
//
// # Schema Introspection
//
//	infos, err := reader.ExtractSchemaInfo(fs, "data.parquet")
//	for _, info := range infos {
//	    fmt.Printf("%s: %s (%s)\n", info.Name, info.Type, info.Kind)
//	}
package reader
