package utils

import "strings"

// TruncateForLog folds whitespace runs (model output is usually multi-line)
// into single spaces and cuts the result to limit runes, appending an
// ellipsis when it had to cut.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}
