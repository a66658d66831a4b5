// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/verte-zerg/studyclock/internal/calendar"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/store"
)

// DefaultHistoryDays is the history length used when none is requested.
const DefaultHistoryDays = 14

// WeekReport is the current week's per-day totals and the comparison with the
// previous week.
type WeekReport struct {
	Today          string
	Days           []model.DayTotal
	StudySeconds   int64
	BreakSeconds   int64
	StudyHours     float64
	PrevStudyHours float64
	PercentChange  string
}

// BuildWeekReport loads the days from Sunday of the current week through
// today, and the full previous week for comparison. Days that cannot be read
// count as zero.
func BuildWeekReport(ctx context.Context, rd store.Reader, userID string, cal calendar.Calendar, now time.Time) WeekReport {
	weekStart := cal.WeekStart(now)
	days := loadDays(ctx, rd, userID, cal, cal.Days(weekStart, now))

	var study, rest int64
	for _, d := range days {
		study += d.StudySeconds
		rest += d.BreakSeconds
	}

	prevStart := weekStart.AddDate(0, 0, -7)
	prevEnd := weekStart.AddDate(0, 0, -1)
	var prevStudy int64
	for _, d := range loadDays(ctx, rd, userID, cal, cal.Days(prevStart, prevEnd)) {
		prevStudy += d.StudySeconds
	}

	return WeekReport{
		Today:          cal.Today(now),
		Days:           days,
		StudySeconds:   study,
		BreakSeconds:   rest,
		StudyHours:     Hours(study),
		PrevStudyHours: Hours(prevStudy),
		PercentChange:  PercentChange(float64(prevStudy), float64(study)),
	}
}

// BuildHistory loads the last n days ending today, oldest first.
func BuildHistory(ctx context.Context, rd store.Reader, userID string, cal calendar.Calendar, now time.Time, n int) []model.DayTotal {
	if n <= 0 {
		n = DefaultHistoryDays
	}
	start := cal.StartOfDay(now).AddDate(0, 0, -(n - 1))
	return loadDays(ctx, rd, userID, cal, cal.Days(start, now))
}

func loadDays(ctx context.Context, rd store.Reader, userID string, cal calendar.Calendar, days []time.Time) []model.DayTotal {
	out := make([]model.DayTotal, 0, len(days))
	for _, day := range days {
		key := cal.Key(day)
		rec, err := rd.Get(ctx, userID, key)
		if err != nil {
			log.Printf("stats: read %s: %v", key, err)
			rec = model.DailyRecord{}
		}
		out = append(out, DayTotalFor(day, key, rec))
	}
	return out
}

// DayTotalFor converts a record to a report row.
func DayTotalFor(day time.Time, key string, rec model.DailyRecord) model.DayTotal {
	return model.DayTotal{
		Date:         day,
		Key:          key,
		Label:        day.Format("Mon"),
		StudySeconds: rec.StudySeconds,
		BreakSeconds: rec.BreakSeconds,
		StudyMinutes: rec.StudySeconds / 60,
		BreakMinutes: rec.BreakSeconds / 60,
	}
}

// Hours converts seconds to hours rounded to two decimals.
func Hours(seconds int64) float64 {
	return round2(float64(seconds) / 3600)
}

// PercentChange formats the change from prev to cur as a signed whole
// percentage.
func PercentChange(prev, cur float64) string {
	if prev == 0 {
		if cur > 0 {
			return "+100%"
		}
		return "0%"
	}
	pct := math.Round((cur - prev) / prev * 100)
	switch {
	case pct > 0:
		return fmt.Sprintf("+%.0f%%", pct)
	case pct < 0:
		return fmt.Sprintf("-%.0f%%", -pct)
	default:
		return "0%"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
