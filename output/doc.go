// Package output provides formatters for writing query results.
//
// This package defines the Formatter interface and implementations for
// JSON Lines, JSON arrays, CSV, Excel workbooks and aligned text tables. All formatters
// write a *table.Table and keep its column order.
//
// # Supported Formats
//
//   - jsonl: One JSON object per line (suitable for streaming)
//   - json: A single JSON array of objects
//   - csv: Comma-separated values with header row
//   - table: An aligned grid for terminals
//   - xlsx: An Excel workbook with one sheet (binary; redirect to a file)
//
// # Basic Usage
//
// Pick a formatter by name:
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// Change output destination dynamically:
//
//	formatter := output.NewCSVFormatter(os.Stdout)
//
//	file, err := os.Create("result.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	formatter.SetOutput(file)
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
//
// # Type Handling
//
//   - Times are written as RFC 3339 strings
//   - NaN (the result of averaging nothing) is null in JSON and empty in CSV
//   - Missing cells are null in JSON and empty in CSV
//   - CSV text cells starting with =, +, -, @ and similar are prefixed with
//     a quote so spreadsheets do not evaluate them
package output
