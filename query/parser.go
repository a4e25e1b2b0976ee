package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vegasq/tabask/schema"
	"github.com/vegasq/tabask/table"
)

// aggregationKeywords is scanned in this order; the first keyword found
// anywhere in the question wins, regardless of where it appears.
var aggregationKeywords = []struct {
	keyword     string
	aggregation Aggregation
}{
	{"total", AggSum},
	{"sum", AggSum},
	{"average", AggMean},
	{"mean", AggMean},
	{"count", AggCount},
	{"max", AggMax},
	{"min", AggMin},
}

var yearPattern = regexp.MustCompile(`20\d\d`)

// monthNames holds the lowercased full month names in calendar order.
var monthNames = func() []string {
	names := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		names[m-1] = strings.ToLower(m.String())
	}
	return names
}()

// categoryValues caches the distinct values of one categorical column and
// their lowercased string forms.
type categoryValues struct {
	column  string
	values  []interface{}
	lowered []string
}

// Parser turns questions into plans for one table snapshot.
//
// Matching is plain substring search over the lowercased question. The
// fuzzy column matcher is intentionally not consulted here.
type Parser struct {
	idx        *schema.Index
	categories []categoryValues
}

// NewParser prepares a parser for t. The distinct values of every
// categorical column are collected once up front.
func NewParser(t *table.Table, idx *schema.Index) *Parser {
	p := &Parser{idx: idx}
	for _, column := range idx.ColumnsOfKind(table.KindCategorical) {
		values := t.Distinct(column)
		lowered := make([]string, len(values))
		for i, v := range values {
			lowered[i] = strings.ToLower(fmt.Sprint(v))
		}
		p.categories = append(p.categories, categoryValues{
			column:  column,
			values:  values,
			lowered: lowered,
		})
	}
	return p
}

// Parse builds a plan for question against t.
func Parse(question string, t *table.Table) Plan {
	return NewParser(t, schema.Build(t)).Parse(question)
}

// Parse builds a plan for question. Parts of the question that refer to no
// known column or value are silently left out of the plan.
func (p *Parser) Parse(question string) Plan {
	q := strings.ToLower(question)

	plan := Plan{
		Aggregation: detectAggregation(q),
		Metric:      p.detectMetric(q),
		Filters:     p.detectFilters(q),
	}
	plan.TimeFilter.Month = detectMonth(q)
	plan.TimeFilter.Year = detectYear(q)

	return plan
}

func detectAggregation(q string) Aggregation {
	for _, kw := range aggregationKeywords {
		if strings.Contains(q, kw.keyword) {
			return kw.aggregation
		}
	}
	return AggNone
}

// detectMetric returns the first numeric column, in table order, whose
// lowercased name occurs in the question.
func (p *Parser) detectMetric(q string) string {
	for _, c := range p.idx.Columns() {
		if c.Kind != table.KindNumeric {
			continue
		}
		if strings.Contains(q, strings.ToLower(c.Name)) {
			return c.Name
		}
	}
	return ""
}

func detectMonth(q string) int {
	for i, name := range monthNames {
		if strings.Contains(q, name) {
			return i + 1
		}
	}
	return 0
}

func detectYear(q string) int {
	match := yearPattern.FindString(q)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}

// detectFilters appends one equality filter for every categorical value
// whose text occurs in the question. Short values can match unrelated
// words; that over-filtering is accepted.
func (p *Parser) detectFilters(q string) []Filter {
	filters := make([]Filter, 0)
	for _, cat := range p.categories {
		for i, lowered := range cat.lowered {
			if strings.Contains(q, lowered) {
				filters = append(filters, Filter{Column: cat.column, Value: cat.values[i]})
			}
		}
	}
	return filters
}
