package library

import (
	"strconv"
	"strings"
)

// CompareISBN imposes a total order on ISBN-like identifiers. Both sides are
// compared as integers when they parse as such; otherwise the comparison
// falls back to plain lexicographic order. Numeric-first matters for short
// identifier schemes, where a byte-wise sort would put "9" after "123".
//
// Returns -1, 0 or 1.
func CompareISBN(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
