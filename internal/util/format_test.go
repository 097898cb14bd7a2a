package util

import (
	"testing"
	"time"
)

func TestFormatTimeHuman(t *testing.T) {
	now := time.Date(2024, 6, 12, 15, 0, 0, 0, time.Local)
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "—"},
		{now.Add(-20 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.AddDate(0, 0, -1), "Yesterday"},
		{now.AddDate(0, 0, -3), "3d ago"},
		{time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local), "Jan 15"},
		{time.Date(2023, 1, 15, 9, 0, 0, 0, time.Local), "Jan 15 '23"},
	}
	for _, c := range cases {
		if got := FormatTimeHuman(c.at, now); got != c.want {
			t.Errorf("FormatTimeHuman(%v) = %q, want %q", c.at, got, c.want)
		}
	}
}

func TestTruncateAndSingleLine(t *testing.T) {
	if got := TruncateString("Box of widgets", 8); got != "Box o..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := TruncateString("short", 8); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := SingleLine("dented\n  lid\ttorn"); got != "dented lid torn" {
		t.Fatalf("unexpected single line %q", got)
	}
	if Pluralize(1, "photo") != "1 photo" || Pluralize(0, "photo") != "0 photos" {
		t.Fatalf("unexpected pluralization")
	}
	if FormatStatusSymbol("succeeded") != "✓" || FormatStatusSymbol("") != "–" {
		t.Fatalf("unexpected status symbols")
	}
}
