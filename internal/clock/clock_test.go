package clock

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tod, err := Parse("08:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tod.Hour != 8 || tod.Minute != 0 || tod.Second != 0 {
		t.Fatalf("expected 08:00:00, got %s", tod)
	}

	tod, err = Parse("17:30:45")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tod.String() != "17:30:45" {
		t.Fatalf("expected 17:30:45, got %s", tod)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, v := range []string{"", "8", "25:00", "08:61", "08:00:99", "ab:cd"} {
		if _, err := Parse(v); err == nil {
			t.Fatalf("expected error for %q", v)
		}
	}
}

func TestSub(t *testing.T) {
	start, _ := Parse("08:00")
	first, _ := Parse("07:15")
	if got := start.Sub(first); got != 45*time.Minute {
		t.Fatalf("expected 45m, got %s", got)
	}
	if got := first.Sub(start); got != -45*time.Minute {
		t.Fatalf("expected -45m, got %s", got)
	}
}

func TestFormatHMS(t *testing.T) {
	if got := FormatHMS(20 * time.Minute); got != "00:20:00" {
		t.Fatalf("expected 00:20:00, got %s", got)
	}
	if got := FormatHMS(90*time.Minute + 5*time.Second); got != "01:30:05" {
		t.Fatalf("expected 01:30:05, got %s", got)
	}
	// Exceeds 24h before normalization; FormatHMS does not wrap.
	if got := FormatHMS(25 * time.Hour); got != "25:00:00" {
		t.Fatalf("expected 25:00:00, got %s", got)
	}
	if got := FormatHMS(-time.Minute); got != "00:00:00" {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
}

func TestWrapDayTotal(t *testing.T) {
	if got := WrapDayTotal(90 * time.Minute); got != "01:30" {
		t.Fatalf("expected 01:30, got %s", got)
	}
	// Display wraps at exactly 24h.
	if got := WrapDayTotal(24 * time.Hour); got != "00:00" {
		t.Fatalf("expected 00:00, got %s", got)
	}
	if got := WrapDayTotal(25*time.Hour + 10*time.Minute); got != "01:10" {
		t.Fatalf("expected 01:10, got %s", got)
	}
}

func TestMinutes(t *testing.T) {
	if got := Minutes(90*time.Minute + 59*time.Second); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	if got := Minutes(-time.Hour); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestAtUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2025, 1, 10, 3, 20, 0, 500, time.UTC)
	tod := At(ts, loc)
	if tod.String() != "08:20:00" {
		t.Fatalf("expected 08:20:00, got %s", tod)
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 21:00 UTC is already the next day at UTC+5.
	ts := time.Date(2025, 1, 10, 21, 0, 0, 0, time.UTC)
	d := DateOf(ts, loc)
	if d.Year() != 2025 || d.Month() != 1 || d.Day() != 11 {
		t.Fatalf("expected 2025-01-11, got %s", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Fatalf("expected midnight, got %s", d)
	}
}
