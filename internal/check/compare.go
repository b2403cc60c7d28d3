package check

import (
	"math"

	"github.com/spf13/cast"
)

// equalWithTolerance reports whether observed matches expected, allowing a
// relative tolerance when one is supplied. A tolerance is a fraction of
// the expected value, so 1 means 100%.
func equalWithTolerance(observed, expected float64, tolerance *float64) bool {
	if tolerance == nil {
		return observed == expected
	}
	return math.Abs(observed-expected) <= math.Abs(expected)*(*tolerance)
}

// maxOverMinRatio computes max(current, reference) / min(current, reference).
// A zero on either side makes the ratio undefined.
func maxOverMinRatio(current, reference float64) (float64, bool) {
	if current == 0 || reference == 0 {
		return 0, false
	}
	return math.Max(current, reference) / math.Min(current, reference), true
}

// relativeDiffRatio computes |current - reference| / reference. A zero
// reference makes the ratio undefined.
func relativeDiffRatio(current, reference float64) (float64, bool) {
	if reference == 0 {
		return 0, false
	}
	return math.Abs(current-reference) / reference, true
}

// asFloat coerces a scalar fetched from the database into a float64.
// Drivers hand back a mix of integer widths, floats and strings depending
// on the backing column type.
func asFloat(value any) (float64, error) {
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, &ExecError{Reason: "query returned a non-numeric value", Err: err}
	}
	return f, nil
}
