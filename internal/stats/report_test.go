package stats

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/studyclock/internal/calendar"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/store"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "studyclock.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func seed(t *testing.T, st store.TimeStore, records map[string]model.DailyRecord) {
	t.Helper()
	for date, rec := range records {
		if err := st.Set(context.Background(), "u1", date, rec); err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
	}
}

// 2026-10-13 is a Tuesday; its week starts on Sunday 2026-10-11.
var tuesday = time.Date(2026, 10, 13, 15, 0, 0, 0, time.UTC)

func TestBuildWeekReport(t *testing.T) {
	st := openTestStore(t)
	seed(t, st, map[string]model.DailyRecord{
		"2026-10-11": {},
		"2026-10-12": {StudySeconds: 600, BreakSeconds: 125},
		"2026-10-13": {StudySeconds: 1200},
		"2026-10-14": {StudySeconds: 9999},
		"2026-10-10": {StudySeconds: 3600},
		"2026-10-03": {StudySeconds: 9999},
	})
	report := BuildWeekReport(context.Background(), st, "u1", calendar.In(time.UTC), tuesday)

	if len(report.Days) != 3 {
		t.Fatalf("expected Sun..Tue, got %d days", len(report.Days))
	}
	if report.Days[0].Key != "2026-10-11" || report.Days[0].Label != "Sun" {
		t.Fatalf("expected week to start on Sunday, got %+v", report.Days[0])
	}
	if report.Days[1].StudyMinutes != 10 || report.Days[1].BreakMinutes != 2 {
		t.Fatalf("expected floored minutes, got %+v", report.Days[1])
	}
	if report.StudyHours != 0.5 {
		t.Fatalf("expected 0.5 hours, got %v", report.StudyHours)
	}
	if report.PrevStudyHours != 1 {
		t.Fatalf("expected previous week 1 hour, got %v", report.PrevStudyHours)
	}
	if report.PercentChange != "-50%" {
		t.Fatalf("expected -50%%, got %s", report.PercentChange)
	}
	if report.Today != "2026-10-13" {
		t.Fatalf("unexpected today %s", report.Today)
	}
}

func TestBuildWeekReportOnSunday(t *testing.T) {
	st := openTestStore(t)
	seed(t, st, map[string]model.DailyRecord{"2026-10-11": {StudySeconds: 60}})
	sunday := time.Date(2026, 10, 11, 8, 0, 0, 0, time.UTC)
	report := BuildWeekReport(context.Background(), st, "u1", calendar.In(time.UTC), sunday)
	if len(report.Days) != 1 || report.Days[0].StudySeconds != 60 {
		t.Fatalf("expected a single day, got %+v", report.Days)
	}
	if report.PercentChange != "+100%" {
		t.Fatalf("expected +100%%, got %s", report.PercentChange)
	}
}

type brokenReader struct{}

func (brokenReader) Get(context.Context, string, string) (model.DailyRecord, error) {
	return model.DailyRecord{}, errors.New("offline")
}

func TestBuildWeekReportReadFailuresAreZero(t *testing.T) {
	report := BuildWeekReport(context.Background(), brokenReader{}, "u1", calendar.In(time.UTC), tuesday)
	if len(report.Days) != 3 || report.StudySeconds != 0 {
		t.Fatalf("expected three zero days, got %+v", report)
	}
	if report.PercentChange != "0%" {
		t.Fatalf("expected 0%%, got %s", report.PercentChange)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		prev, cur float64
		want      string
	}{
		{0, 0, "0%"},
		{0, 5, "+100%"},
		{10, 5, "-50%"},
		{10, 15, "+50%"},
		{10, 10, "0%"},
		{3, 4, "+33%"},
		{1000, 1002, "0%"},
	}
	for _, tc := range cases {
		if got := PercentChange(tc.prev, tc.cur); got != tc.want {
			t.Fatalf("PercentChange(%v, %v) = %s, want %s", tc.prev, tc.cur, got, tc.want)
		}
	}
}

func TestBuildHistory(t *testing.T) {
	st := openTestStore(t)
	seed(t, st, map[string]model.DailyRecord{
		"2026-10-07": {StudySeconds: 60},
		"2026-10-13": {StudySeconds: 120},
	})
	days := BuildHistory(context.Background(), st, "u1", calendar.In(time.UTC), tuesday, 7)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if days[0].Key != "2026-10-07" || days[0].StudySeconds != 60 {
		t.Fatalf("expected oldest first, got %+v", days[0])
	}
	if days[6].Key != "2026-10-13" || days[6].StudySeconds != 120 {
		t.Fatalf("expected today last, got %+v", days[6])
	}
}

func TestRenderWeek(t *testing.T) {
	report := WeekReport{
		Today: "2026-10-12",
		Days: []model.DayTotal{
			DayTotalFor(time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), "2026-10-11", model.DailyRecord{}),
			DayTotalFor(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), "2026-10-12", model.DailyRecord{StudySeconds: 1800}),
		},
		StudySeconds:  1800,
		StudyHours:    0.5,
		PercentChange: "+100%",
	}
	var buf bytes.Buffer
	if err := RenderWeekWithSize(&buf, report, 60, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Study (min)", "Mon *", "0.50h", "+100%", "30m 00s", "Total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for a buffer")
	}
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No days") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}
	buf.Reset()
	days := []model.DayTotal{
		DayTotalFor(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), "2026-10-12", model.DailyRecord{}),
		DayTotalFor(time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC), "2026-10-13", model.DailyRecord{StudySeconds: 3900}),
	}
	if err := RenderHistory(&buf, days); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[ @]") {
		t.Fatalf("expected sparkline in output:\n%s", out)
	}
	if !strings.Contains(out, "1h 05m") {
		t.Fatalf("expected formatted duration in output:\n%s", out)
	}
	if strings.Index(out, "2026-10-13") > strings.Index(out, "2026-10-12") {
		t.Fatalf("expected newest day first:\n%s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{0: "0s", 45: "45s", 750: "12m 30s", 3900: "1h 05m", -3: "0s"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d) = %s, want %s", in, got, want)
		}
	}
	if got := FormatClock(1499); got != "24:59" {
		t.Fatalf("FormatClock(1499) = %s", got)
	}
	if got := FormatClock(3661); got != "1:01:01" {
		t.Fatalf("FormatClock(3661) = %s", got)
	}
}

func TestRenderBarsScales(t *testing.T) {
	var buf bytes.Buffer
	err := RenderBars(&buf, "", []Bar{{Label: "a", Value: 10, Note: "x"}, {Label: "b", Value: 5, Note: "y"}, {Label: "c"}}, 30)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	width := BarWidthFor(30, 1, 1)
	if got := strings.Count(lines[0], "█"); got != width {
		t.Fatalf("expected full bar of %d, got %d", width, got)
	}
	if got := strings.Count(lines[1], "█"); got != width/2 {
		t.Fatalf("expected half bar of %d, got %d", width/2, got)
	}
	if strings.Count(lines[2], "█") != 0 {
		t.Fatalf("expected empty bar for zero value")
	}
}
