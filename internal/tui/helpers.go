package tui

import (
	"strings"
	"time"
	"unicode/utf8"
)

// formatDate renders an API date or timestamp as YYYY-MM-DD.
func formatDate(raw string) string {
	if raw == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces to width runes, truncating longer strings.
func padRight(s string, width int) string {
	s = truncStr(s, width)
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// cleanText collapses newlines and runs of whitespace so descriptions fit one row.
func cleanText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// matches reports whether any field contains the filter, case-insensitively.
func matches(filter string, fields ...string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), filter) {
			return true
		}
	}
	return false
}

// moveCursor handles j/k navigation over n rows.
func moveCursor(cursor, n int, key string) int {
	switch key {
	case "j", "down":
		if cursor < n-1 {
			cursor++
		}
	case "k", "up":
		if cursor > 0 {
			cursor--
		}
	case "g", "home":
		cursor = 0
	case "G", "end":
		cursor = n - 1
	}
	return clampCursor(cursor, n)
}

// clampCursor keeps cursor within [0, n).
func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// visibleRange returns the window of rows to draw so cursor stays on screen.
func visibleRange(cursor, n, rows int) (int, int) {
	if rows <= 0 || n <= rows {
		return 0, n
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}
