package logger

import "strings"

// TruncateForLog folds s onto one line and keeps at most limit runes, appending
// an ellipsis when anything was cut. A non-positive limit yields "".
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
