package tabular

import (
	"math"
	"strconv"
	"strings"
)

// CoerceFloatOrZero parses s as a float64. Empty, unparsable and non-finite
// values become 0; a bad cell never aborts a load.
func CoerceFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CoerceNonNegativeOrZero applies CoerceFloatOrZero and clamps negatives to 0.
// Census sentinel values such as -666666666 land here.
func CoerceNonNegativeOrZero(s string) float64 {
	v := CoerceFloatOrZero(s)
	if v < 0 {
		return 0
	}
	return v
}

// CoerceIntOrZero parses s as an integer, returning 0 when it cannot.
// A float spelling ("120.0") is accepted and truncated toward zero.
func CoerceIntOrZero(s string) int {
	v, ok := ParseInt(s)
	if !ok {
		return 0
	}
	return v
}

// ParseInt parses s as an integer and reports whether it succeeded.
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt || f < math.MinInt {
		return 0, false
	}
	return int(f), true
}
