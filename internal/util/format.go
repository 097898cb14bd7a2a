package util

import (
	"fmt"
	"strings"
	"time"

	"fieldreport/internal/model"
)

// FormatTimestamp formats a time for tables and exports, in local time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatTimeHuman formats a time with humanized relative display.
// "just now", "5m ago", "3h ago", "Yesterday", "Jan 15", "Jan 15 '24"
func FormatTimeHuman(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	now = now.Local()

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	days := int(today.Sub(day).Hours() / 24)

	switch {
	case days == 0:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("%dd ago", days)
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// FormatStatusSymbol formats the last submission status: ✓, ✗, or –
func FormatStatusSymbol(status string) string {
	switch model.SubmissionStatus(status) {
	case model.SubmissionSucceeded:
		return "✓"
	case model.SubmissionFailed:
		return "✗"
	default:
		return "–"
	}
}

// Pluralize returns "1 photo" / "3 photos".
func Pluralize(n int, singular string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %ss", n, singular)
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SingleLine collapses whitespace so multi-line notes fit in a table cell.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
