package jsonutil

import (
	"encoding/json"
)

// NumericValue converts a decoded JSONB/YAML scalar to float64, handling the
// type zoo different decoders produce (float64 from encoding/json, int from
// yaml.v3, json.Number when UseNumber is set). Returns false for anything
// non-numeric.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// BoolValue converts a decoded scalar to bool. Returns false for non-booleans.
func BoolValue(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// RangeBounds extracts a [low, high] pair from a decoded two-element array.
// Both elements must be numeric.
func RangeBounds(v any) (low, high float64, ok bool) {
	switch arr := v.(type) {
	case []any:
		if len(arr) != 2 {
			return 0, 0, false
		}
		lo, lowOK := NumericValue(arr[0])
		hi, highOK := NumericValue(arr[1])
		if !lowOK || !highOK {
			return 0, 0, false
		}
		return lo, hi, true
	case []float64:
		if len(arr) != 2 {
			return 0, 0, false
		}
		return arr[0], arr[1], true
	case []int:
		if len(arr) != 2 {
			return 0, 0, false
		}
		return float64(arr[0]), float64(arr[1]), true
	default:
		return 0, 0, false
	}
}
