package planning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/craftline/aps-engine/pkg/jsonutil"
)

// MatchResult reports whether required process parameters fit within a set of
// advertised capabilities. Headroom maps each satisfied parameter to its
// fractional margin: 0 means no slack, 1 means double the required capacity.
type MatchResult struct {
	IsMatch  bool               `json:"is_match"`
	Reasons  []string           `json:"reasons,omitempty"`
	Headroom map[string]float64 `json:"headroom,omitempty"`
}

// MeanHeadroom averages the recorded per-parameter margins. 0 when nothing was
// measured.
func (m MatchResult) MeanHeadroom() float64 {
	if len(m.Headroom) == 0 {
		return 0
	}
	var sum float64
	for _, h := range m.Headroom {
		sum += h
	}
	return sum / float64(len(m.Headroom))
}

// Match checks required process parameters against available capabilities.
//
// Keys are evaluated in sorted order so the reasons list is stable for a given
// input. An empty requirement always matches. For each required key, a
// heuristically related range key in available (one ending "_range" whose base
// name occurs in the required key, e.g. peak_temperature vs temperature_range)
// takes priority over an exact-key comparison; the required value must then
// fall inside [low, high] inclusive. Exact-key comparisons are numeric
// (required <= available), string equality, or boolean (fails only on
// required true vs available false). A key absent from available is a
// mismatch. Mixed-type pairs fail through the ordinary comparison messages;
// there is no dedicated type-mismatch reason.
func Match(required, available map[string]any) MatchResult {
	result := MatchResult{IsMatch: true}
	if len(required) == 0 {
		return result
	}
	result.Headroom = make(map[string]float64)

	keys := make([]string, 0, len(required))
	for k := range required {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := required[key]

		if rangeKey, bounds, ok := findRangeKey(available, key); ok {
			matchRange(&result, key, value, rangeKey, bounds)
			continue
		}

		avail, exists := available[key]
		if !exists {
			result.addReason("%s not available", key)
			continue
		}
		matchScalar(&result, key, value, avail)
	}

	result.IsMatch = len(result.Reasons) == 0
	if len(result.Headroom) == 0 {
		result.Headroom = nil
	}
	return result
}

func (m *MatchResult) addReason(format string, args ...any) {
	m.Reasons = append(m.Reasons, fmt.Sprintf(format, args...))
}

// findRangeKey scans available (in sorted key order, for determinism) for a
// key ending "_range" whose base name is contained in the required key.
func findRangeKey(available map[string]any, requiredKey string) (string, any, bool) {
	if len(available) == 0 {
		return "", nil, false
	}
	keys := make([]string, 0, len(available))
	for k := range available {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		base, found := strings.CutSuffix(k, "_range")
		if !found || base == "" {
			continue
		}
		if strings.Contains(requiredKey, base) {
			return k, available[k], true
		}
	}
	return "", nil, false
}

func matchRange(result *MatchResult, key string, value any, rangeKey string, bounds any) {
	low, high, boundsOK := jsonutil.RangeBounds(bounds)
	num, numOK := jsonutil.NumericValue(value)
	if !boundsOK || !numOK {
		result.addReason("%s %v does not satisfy %s %v", key, value, rangeKey, bounds)
		return
	}
	if num < low || num > high {
		result.addReason("%s %v outside %s [%g, %g]", key, value, rangeKey, low, high)
		return
	}
	headroom := 0.0
	if span := high - low; span > 0 {
		headroom = (high - num) / span
	}
	result.Headroom[key] = headroom
}

func matchScalar(result *MatchResult, key string, required, available any) {
	if reqNum, ok := jsonutil.NumericValue(required); ok {
		availNum, numOK := jsonutil.NumericValue(available)
		if !numOK || reqNum > availNum {
			result.addReason("%s requires %v, available %v", key, required, available)
			return
		}
		headroom := 0.0
		if availNum > 0 {
			headroom = (availNum - reqNum) / availNum
		}
		result.Headroom[key] = headroom
		return
	}

	if reqStr, ok := required.(string); ok {
		availStr, strOK := available.(string)
		if !strOK || availStr != reqStr {
			result.addReason("%s requires %q, available %v", key, reqStr, available)
		}
		return
	}

	if reqBool, ok := jsonutil.BoolValue(required); ok {
		if availBool, boolOK := jsonutil.BoolValue(available); boolOK {
			if reqBool && !availBool {
				result.addReason("%s required but not supported", key)
			}
			return
		}
		if reqBool {
			result.addReason("%s required but not supported", key)
		}
		return
	}

	// Structured required values (arrays, maps) are not comparable; skip.
}
