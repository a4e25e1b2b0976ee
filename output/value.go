package output

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vegasq/tabask/table"
)

// rowKeys extracts all unique column names from all rows, sorted. This
// handles sparse rows where different rows carry different keys.
func rowKeys(rows []table.Row) []string {
	set := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			set[col] = true
		}
	}

	keys := make([]string, 0, len(set))
	for col := range set {
		keys = append(keys, col)
	}
	sort.Strings(keys)
	return keys
}

// jsonValue maps cell values onto something encoding/json can represent.
// NaN and infinities have no JSON form and become null.
func jsonValue(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil
		}
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	}
	return v
}

// formatValue converts a value to text for CSV and table output.
func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return formatFloat(float64(val))
	case float64:
		return formatFloat(val)
	case bool:
		return fmt.Sprintf("%t", val)
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return fmt.Sprintf("%g", f)
}

// sanitizeCell guards against CSV injection by prefixing characters that
// could trigger formula execution in spreadsheet applications.
func sanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '\n', '|':
		return "'" + strings.ReplaceAll(s, "'", "''")
	}
	return s
}
