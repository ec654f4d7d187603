// Package textutil holds the case-folding rules shared by every component
// that compares words or names.
package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key returns the comparison key for s: trimmed and Unicode case-folded.
// Two strings are the same word iff their keys are equal.
func Key(s string) string {
	// Casers carry state, so one is built per call.
	return cases.Fold().String(strings.TrimSpace(s))
}

// Equal reports whether a and b are the same under Key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// Contains reports whether needle occurs in haystack ignoring case.
func Contains(haystack, needle string) bool {
	return strings.Contains(Key(haystack), Key(needle))
}
