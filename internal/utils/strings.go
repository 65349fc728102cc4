// Package utils holds small shared helpers for HTTP plumbing and
// string handling.
package utils

import "fmt"

// DefaultMaxStringLength is the cap applied by TruncateString when the
// caller passes a non-positive limit.
const DefaultMaxStringLength = 1000

// TruncateString shortens s to at most maxLen characters, appending a suffix
// that records the original total length so callers know data was omitted.
// If maxLen is zero or negative, [DefaultMaxStringLength] is used instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}
