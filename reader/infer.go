package reader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vegasq/tabask/table"
)

// missingTokens are the cell spellings treated as missing when loading text.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"null": true,
	"NULL": true,
	"NaN":  true,
}

// dateLayouts are tried in order when promoting text to timestamps.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// parseDate parses s with the first matching layout.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDateColumn reports whether a column name asks for date promotion.
func isDateColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// inferText converts one column of raw text cells into typed values and
// picks the column kind.
//
// Columns where every present cell is an integer become int64 numeric,
// any float makes the whole column float64. true/false columns keep bool
// values but count as numeric, so they can be summed like 0/1. Columns whose name contains "date" and whose
// cells all parse as dates become datetime. Everything else is categorical
// text. A column with no present cells is numeric.
func inferText(name string, cells []string) (table.Kind, []interface{}) {
	values := make([]interface{}, len(cells))
	present := make([]int, 0, len(cells))
	for i, cell := range cells {
		if !missingTokens[strings.TrimSpace(cell)] {
			present = append(present, i)
		}
	}

	if ints, ok := parseAll(cells, present, func(s string) (interface{}, bool) {
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	}); ok {
		fill(values, present, ints)
		return table.KindNumeric, values
	}

	if floats, ok := parseAll(cells, present, func(s string) (interface{}, bool) {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil && !math.IsNaN(f)
	}); ok {
		fill(values, present, floats)
		return table.KindNumeric, values
	}

	if bools, ok := parseAll(cells, present, parseBool); ok {
		fill(values, present, bools)
		return table.KindNumeric, values
	}

	if isDateColumn(name) {
		if dates, ok := parseAll(cells, present, func(s string) (interface{}, bool) {
			t, ok := parseDate(s)
			return t, ok
		}); ok {
			fill(values, present, dates)
			return table.KindDatetime, values
		}
	}

	for _, i := range present {
		values[i] = cells[i]
	}
	return table.KindCategorical, values
}

func parseBool(s string) (interface{}, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}

// parseAll parses the present cells with parse and fails as soon as one
// cell is rejected.
func parseAll(cells []string, present []int, parse func(string) (interface{}, bool)) ([]interface{}, bool) {
	out := make([]interface{}, len(present))
	for j, i := range present {
		v, ok := parse(strings.TrimSpace(cells[i]))
		if !ok {
			return nil, false
		}
		out[j] = v
	}
	return out, true
}

func fill(values []interface{}, present []int, parsed []interface{}) {
	for j, i := range present {
		values[i] = parsed[j]
	}
}

// normalizeScanned maps driver-specific scan results onto the value types
// tables carry.
func normalizeScanned(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case float32:
		return float64(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case interface{ Float64() float64 }:
		return val.Float64()
	default:
		return v
	}
}

// inferScanned picks a kind for values that already carry Go types, as
// returned by database drivers. Text columns named like dates are promoted
// the same way CSV columns are.
func inferScanned(name string, values []interface{}) table.Kind {
	var numeric, times, bools, texts, present int
	for _, v := range values {
		if table.IsMissing(v) {
			continue
		}
		present++
		switch v.(type) {
		case time.Time:
			times++
		case bool:
			bools++
		case string:
			texts++
		default:
			if _, ok := table.ToFloat64(v); ok {
				numeric++
			}
		}
	}

	switch {
	case present == 0 || numeric+bools == present:
		return table.KindNumeric
	case times == present:
		return table.KindDatetime
	case texts == present:
		if isDateColumn(name) && promoteDates(values) {
			return table.KindDatetime
		}
		return table.KindCategorical
	default:
		return table.KindOther
	}
}

// promoteDates replaces every string in values with its parsed time when
// all of them parse. values is left untouched otherwise.
func promoteDates(values []interface{}) bool {
	parsed := make([]interface{}, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		t, ok := parseDate(s)
		if !ok {
			return false
		}
		parsed[i] = t
	}
	copy(values, parsed)
	return true
}
