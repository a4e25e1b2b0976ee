package query

import (
	"time"

	"github.com/vegasq/tabask/table"
)

// ApplyFilters keeps the rows matching every filter, applied in order.
func ApplyFilters(t *table.Table, filters []Filter) *table.Table {
	for _, f := range filters {
		f := f
		t = t.Select(func(row table.Row) bool {
			return table.Equal(row[f.Column], f.Value)
		})
	}
	return t
}

// ApplyTimeFilter keeps the rows whose value in column falls in the
// filter's year and month. Rows with a missing or non-time value never
// match.
func ApplyTimeFilter(t *table.Table, column string, tf TimeFilter) *table.Table {
	if tf.IsEmpty() {
		return t
	}
	return t.Select(func(row table.Row) bool {
		ts, ok := row[column].(time.Time)
		if !ok {
			return false
		}
		if tf.Year != 0 && ts.Year() != tf.Year {
			return false
		}
		if tf.Month != 0 && int(ts.Month()) != tf.Month {
			return false
		}
		return true
	})
}
