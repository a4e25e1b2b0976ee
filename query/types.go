package query

import (
	"errors"
	"fmt"
)

// Aggregation is a scalar reduction applied to the metric column.
type Aggregation string

const (
	AggNone  Aggregation = ""
	AggSum   Aggregation = "sum"
	AggMean  Aggregation = "mean"
	AggCount Aggregation = "count"
	AggMax   Aggregation = "max"
	AggMin   Aggregation = "min"
)

// Valid reports whether a is one of the supported reductions. AggNone is
// not valid.
func (a Aggregation) Valid() bool {
	switch a {
	case AggSum, AggMean, AggCount, AggMax, AggMin:
		return true
	default:
		return false
	}
}

// Filter is a single equality constraint: rows are kept iff
// row[Column] == Value.
type Filter struct {
	Column string      `json:"column"`
	Value  interface{} `json:"value"`
}

// TimeFilter restricts rows by the year and month of the table's first
// datetime column. Zero means the field is absent.
type TimeFilter struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"` // 1 = January
}

// IsEmpty reports whether neither year nor month is set.
func (tf TimeFilter) IsEmpty() bool {
	return tf.Year == 0 && tf.Month == 0
}

// Plan is the structured form of a parsed question.
//
// Filters compose as logical AND, in listed order. An Aggregation without a
// Metric (or the reverse) is not an error; the executor simply returns the
// filtered rows unaggregated.
type Plan struct {
	Aggregation Aggregation `json:"aggregation,omitempty"`
	Metric      string      `json:"metric,omitempty"`
	Filters     []Filter    `json:"filters"`
	TimeFilter  TimeFilter  `json:"time_filter"`
}

// Aggregates reports whether executing the plan yields a single-row summary.
func (p Plan) Aggregates() bool {
	return p.Aggregation != AggNone && p.Metric != ""
}

// ResultColumn returns the name of the summary column an aggregating plan
// produces, e.g. "sum_sales".
func (p Plan) ResultColumn() string {
	return fmt.Sprintf("%s_%s", p.Aggregation, p.Metric)
}

// Errors returned by Execute for plans that reference things the table does
// not have. Natural-language ambiguity never produces these; they only show
// up for plans built or edited by hand.
var (
	ErrUnknownColumn      = errors.New("unknown column")
	ErrUnknownAggregation = errors.New("unknown aggregation")
	ErrNotNumeric         = errors.New("non-numeric value")
)
