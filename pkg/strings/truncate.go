package strings

import (
	"strings"
)

// DefaultMessageMaxLen is the default maximum length for status messages in
// formatted output. The instance list table and the event recorder share this
// value so truncation looks the same everywhere.
const DefaultMessageMaxLen = 60

// MinTruncateLen is the minimum maxLen value for TruncateMessage.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// TruncateMessage truncates a string to maxLen characters and ensures
// single-line output. It replaces newlines with spaces, collapses multiple
// whitespace characters into single spaces, and adds "..." if truncated.
// Status messages often carry wrapped provisioner error chains spanning
// several lines; table cells and event rows need them flattened.
//
// The function handles Unicode correctly by operating on runes rather than
// bytes, preventing truncation in the middle of multi-byte characters.
//
// If maxLen is less than MinTruncateLen (4), it is clamped to MinTruncateLen
// to ensure there is room for at least one character plus "...".
func TruncateMessage(s string, maxLen int) string {
	// Clamp maxLen to minimum value to prevent panic from negative slice index
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	// Use strings.Fields to split on any whitespace (handles \n, \r, \t,
	// multiple spaces) then rejoin with single spaces.
	s = strings.Join(strings.Fields(s), " ")

	// Use rune-based slicing to handle Unicode correctly
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
