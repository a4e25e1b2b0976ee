package table

import (
	"math"
	"time"
)

// IsMissing reports whether v counts as a missing cell: nil, an empty
// string or a NaN float.
func IsMissing(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	default:
		return false
	}
}

// ToFloat64 converts a numeric value to float64 if possible.
func ToFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// Equal compares two cell values for equality. Numbers compare by value
// across int and float representations, times compare by instant and
// everything else uses Go equality. Missing values never equal anything.
func Equal(left, right interface{}) bool {
	if left == nil || right == nil {
		return false
	}

	leftNum, leftIsNum := ToFloat64(left)
	rightNum, rightIsNum := ToFloat64(right)
	if leftIsNum && rightIsNum {
		return equalNumbers(leftNum, rightNum)
	}
	if leftIsNum != rightIsNum {
		return false
	}

	if lt, ok := left.(time.Time); ok {
		rt, ok := right.(time.Time)
		return ok && lt.Equal(rt)
	}

	switch left.(type) {
	case []interface{}, map[string]interface{}, []byte:
		return false
	}
	switch right.(type) {
	case []interface{}, map[string]interface{}, []byte:
		return false
	}

	return left == right
}

// equalNumbers uses an epsilon scaled by the larger magnitude so large and
// small values compare consistently.
func equalNumbers(left, right float64) bool {
	const epsilon = 1e-9
	diff := math.Abs(left - right)
	maxAbs := max(math.Abs(left), math.Abs(right))
	return diff < epsilon*max(1.0, maxAbs)
}
