package sorting

import (
	"github.com/maruel/natural"
)

// CompareAlphanumeric compares two strings, treating runs of ASCII digits as
// numbers, so "track2" sorts before "track10". Other characters compare by
// code point. Numbers that are equal but written differently, like "007"
// and "7", fall back to byte order.
func CompareAlphanumeric(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	default:
		return 0
	}
}
