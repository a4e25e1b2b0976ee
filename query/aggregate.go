package query

import (
	"fmt"
	"math"

	"github.com/vegasq/tabask/table"
)

// aggregate reduces the metric column of t to a single-row table with one
// column named after the plan (e.g. "mean_revenue").
func aggregate(t *table.Table, plan Plan) (*table.Table, error) {
	value, err := evaluateAggregate(plan.Aggregation, plan.Metric, t.Values(plan.Metric))
	if err != nil {
		return nil, err
	}

	name := plan.ResultColumn()
	result := table.New(table.Column{Name: name, Kind: table.KindNumeric})
	result.Append(table.Row{name: value})
	return result, nil
}

// evaluateAggregate applies one reduction to a column's values. Missing
// values are skipped. Reductions over no values follow the usual numeric
// conventions: sum is 0, count is 0, mean/max/min are NaN.
func evaluateAggregate(agg Aggregation, column string, values []interface{}) (interface{}, error) {
	switch agg {
	case AggSum:
		return evaluateSum(column, values)
	case AggMean:
		return evaluateMean(column, values)
	case AggCount:
		return evaluateCount(values), nil
	case AggMax:
		return evaluateExtreme(column, values, func(a, b float64) bool { return a > b })
	case AggMin:
		return evaluateExtreme(column, values, func(a, b float64) bool { return a < b })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, string(agg))
	}
}

// numbers converts the non-missing values to float64, failing on the first
// value that is not numeric. Booleans count as 1 and 0.
func numbers(column string, values []interface{}) ([]float64, error) {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if table.IsMissing(v) {
			continue
		}
		if b, ok := v.(bool); ok {
			nums = append(nums, boolToFloat(b))
			continue
		}
		num, ok := table.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("%w in column %q: %v (%T)", ErrNotNumeric, column, v, v)
		}
		nums = append(nums, num)
	}
	return nums, nil
}

func evaluateSum(column string, values []interface{}) (interface{}, error) {
	nums, err := numbers(column, values)
	if err != nil {
		return nil, fmt.Errorf("sum: %w", err)
	}

	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return sum, nil
}

func evaluateMean(column string, values []interface{}) (interface{}, error) {
	nums, err := numbers(column, values)
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}

	if len(nums) == 0 {
		return math.NaN(), nil
	}

	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return sum / float64(len(nums)), nil
}

// evaluateCount counts non-missing values. Like a plain count it works on
// any column kind.
func evaluateCount(values []interface{}) interface{} {
	count := int64(0)
	for _, v := range values {
		if !table.IsMissing(v) {
			count++
		}
	}
	return count
}

// evaluateExtreme returns the value v for which better(v, other) holds
// against every other value, i.e. the max or min.
func evaluateExtreme(column string, values []interface{}, better func(a, b float64) bool) (interface{}, error) {
	nums, err := numbers(column, values)
	if err != nil {
		return nil, err
	}

	if len(nums) == 0 {
		return math.NaN(), nil
	}

	best := nums[0]
	for _, n := range nums[1:] {
		if better(n, best) {
			best = n
		}
	}
	return best, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
