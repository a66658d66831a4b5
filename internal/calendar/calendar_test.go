package calendar

import (
	"testing"
	"time"
)

func TestKeyUsesCalendarLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	cal := In(manila)
	// 20:30 UTC on the 17th is already the 18th in UTC+8.
	now := time.Date(2026, 10, 17, 20, 30, 0, 0, time.UTC)
	if got := cal.Today(now); got != "2026-10-18" {
		t.Fatalf("expected 2026-10-18, got %s", got)
	}
	if got := In(time.UTC).Today(now); got != "2026-10-17" {
		t.Fatalf("expected 2026-10-17, got %s", got)
	}
}

func TestWeekStartIsSunday(t *testing.T) {
	cal := In(time.UTC)
	tuesday := time.Date(2026, 10, 13, 15, 0, 0, 0, time.UTC)
	start := cal.WeekStart(tuesday)
	if start.Weekday() != time.Sunday {
		t.Fatalf("expected Sunday, got %s", start.Weekday())
	}
	if got := cal.Key(start); got != "2026-10-11" {
		t.Fatalf("expected 2026-10-11, got %s", got)
	}
	sunday := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	if got := cal.Key(cal.WeekStart(sunday)); got != "2026-10-11" {
		t.Fatalf("Sunday should start its own week, got %s", got)
	}
}

func TestDaysInclusive(t *testing.T) {
	cal := In(time.UTC)
	start := time.Date(2026, 10, 11, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 13, 1, 0, 0, 0, time.UTC)
	days := cal.Days(start, end)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if cal.Key(days[2]) != "2026-10-13" {
		t.Fatalf("unexpected last day %s", cal.Key(days[2]))
	}
	if got := cal.Days(end, start); got != nil {
		t.Fatalf("expected nil for reversed range, got %v", got)
	}
}

func TestParseRejectsBadKey(t *testing.T) {
	cal := In(time.UTC)
	if _, err := cal.Parse("17/10/2026"); err == nil {
		t.Fatalf("expected error for malformed key")
	}
	got, err := cal.Parse("2026-10-17")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Day() != 17 || got.Hour() != 0 {
		t.Fatalf("unexpected parsed time %v", got)
	}
}

func TestNewLocal(t *testing.T) {
	cal, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cal.Location() != time.Local {
		t.Fatalf("expected local location")
	}
	if _, err := New("Not/AZone"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
