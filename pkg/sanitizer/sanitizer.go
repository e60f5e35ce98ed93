// Package sanitizer normalizes caller-supplied strings before they reach
// validation or persistence.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace runs
// to a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeResource normalizes a bookable resource name.
func NormalizeResource(resource string) string {
	return TrimAndNormalize(resource)
}

// ResourcePrefix returns the resource name up to its first digit, so that
// 회의실3 and 회의실7 share the prefix 회의실. A name without digits is its own
// prefix.
func ResourcePrefix(resource string) string {
	for i, r := range resource {
		if unicode.IsDigit(r) {
			return resource[:i]
		}
	}
	return resource
}
