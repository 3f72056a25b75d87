// Package collate provides the deterministic case-insensitive ordering used
// by every sorted snapshot field: compare case-folded text first, then the
// exact text as a tie-break.
package collate

import (
	"sort"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case folding of s.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Compare orders a and b by (Fold(x), x).
func Compare(a, b string) int {
	fa, fb := Fold(a), Fold(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sorted returns a sorted copy of values.
func Sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// IsSorted reports whether values already follow the collation order.
func IsSorted(values []string) bool {
	return sort.SliceIsSorted(values, func(i, j int) bool { return Less(values[i], values[j]) })
}
