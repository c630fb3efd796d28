// Package analysis implements the pattern-matching and severity-scoring
// core: month-over-month delta computation over a fixed indicator set, rule
// matching against a declarative catalog, and severity classification. All
// functions are pure and total over well-typed input.
package analysis

import "math"

// CoerceNumeric converts a nullable indicator value to a usable float.
// Absent (nil) and NaN values coerce to 0.0; the computation never aborts
// on a bad cell.
func CoerceNumeric(v *float64) float64 {
	if v == nil {
		return 0.0
	}
	if math.IsNaN(*v) {
		return 0.0
	}
	return *v
}
