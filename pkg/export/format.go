// Package export writes the viewer's output files: text dumps of the depth
// buffer, PNG snapshots, and numbered key-press saves.
package export

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v the way a default-configured C++ ostream does with
// the given precision (significant digits): shortest of fixed or scientific
// notation, no trailing zeros, two-digit minimum exponent, and nan/inf
// spelled in lower case.
func FormatFloat(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		if math.Signbit(v) {
			return "-nan"
		}
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if precision <= 0 {
		precision = 1
	}
	s := strconv.FormatFloat(v, 'g', precision, 64)
	// Go prints e+06 like C; a single-digit exponent gets padded to two.
	if i := strings.IndexAny(s, "e"); i >= 0 {
		mant, exp := s[:i], s[i+1:]
		sign := exp[:1]
		digits := exp[1:]
		if len(digits) < 2 {
			digits = "0" + digits
		}
		return mant + "e" + sign + digits
	}
	return s
}

// FormatDepth renders one depth sample with the default precision of 6.
func FormatDepth(v float32) string {
	return FormatFloat(float64(v), 6)
}
