package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/studyclock/internal/model"
)

const sparkChars = " .:-=+*#%@"

// FormatDuration renders seconds as "1h 05m", "12m 30s" or "45s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatClock renders seconds as MM:SS, or H:MM:SS past an hour.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// StudyMinutesSeries returns the study minutes of each day.
func StudyMinutesSeries(days []model.DayTotal) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = float64(d.StudySeconds) / 60
	}
	return out
}

// WeekRows returns the table rows of a week report.
func WeekRows(report WeekReport) [][]string {
	rows := make([][]string, 0, len(report.Days))
	for _, d := range report.Days {
		day := d.Label
		if d.Key == report.Today {
			day += " *"
		}
		rows = append(rows, []string{
			day,
			d.Key,
			fmt.Sprintf("%d", d.StudyMinutes),
			fmt.Sprintf("%d", d.BreakMinutes),
			FormatDuration(d.StudySeconds),
		})
	}
	return rows
}

// WeekHeaders are the column titles of WeekRows.
var WeekHeaders = []string{"Day", "Date", "Study (min)", "Break (min)", "Study"}

// WeekTotals is the totals row under WeekRows.
func WeekTotals(report WeekReport) []string {
	var studyMin, breakMin int64
	for _, d := range report.Days {
		studyMin += d.StudyMinutes
		breakMin += d.BreakMinutes
	}
	return []string{
		"Total",
		"",
		fmt.Sprintf("%d", studyMin),
		fmt.Sprintf("%d", breakMin),
		FormatDuration(report.StudySeconds),
	}
}

// WeekSummary is the one-line comparison with the previous week.
func WeekSummary(report WeekReport) string {
	return fmt.Sprintf("This week: %.2fh study, %s break. Last week: %.2fh (%s)",
		report.StudyHours, FormatDuration(report.BreakSeconds), report.PrevStudyHours, report.PercentChange)
}

// RenderWeek prints the week table, the summary line and per-day bars.
func RenderWeek(w io.Writer, report WeekReport) error {
	return RenderWeekWithSize(w, report, 0, false)
}

// RenderWeekWithSize prints the week report with bars sized to totalWidth.
func RenderWeekWithSize(w io.Writer, report WeekReport, totalWidth int, forceColor bool) error {
	if _, err := fmt.Fprintln(w, "Week"); err != nil {
		return err
	}
	for _, line := range formatTable(WeekHeaders, WeekRows(report), WeekTotals(report)) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, WeekSummary(report)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	bars := make([]Bar, 0, len(report.Days))
	for _, d := range report.Days {
		bars = append(bars, Bar{Label: d.Label, Value: float64(d.StudySeconds), Note: FormatDuration(d.StudySeconds)})
	}
	return RenderBarsWithColor(w, "Study per day", bars, totalWidth, forceColor)
}

// HistoryHeaders are the column titles of HistoryRows.
var HistoryHeaders = []string{"Date", "Day", "Study", "Break", "7d avg"}

// HistoryRows returns the table rows of a day history, newest first.
func HistoryRows(days []model.DayTotal) [][]string {
	avg := MovingAverage(StudyMinutesSeries(days), 7)
	rows := make([][]string, 0, len(days))
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		rows = append(rows, []string{
			d.Key,
			d.Label,
			FormatDuration(d.StudySeconds),
			FormatDuration(d.BreakSeconds),
			fmt.Sprintf("%.0fm", avg[i]),
		})
	}
	return rows
}

// RenderHistory prints a day table and a study sparkline.
func RenderHistory(w io.Writer, days []model.DayTotal) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No days to show.")
		return err
	}
	if _, err := fmt.Fprintf(w, "History (%d days)\n", len(days)); err != nil {
		return err
	}
	var total, breaks int64
	for _, d := range days {
		total += d.StudySeconds
		breaks += d.BreakSeconds
	}
	totals := []string{"Total", "", FormatDuration(total), FormatDuration(breaks), ""}
	for _, line := range formatTable(HistoryHeaders, HistoryRows(days), totals) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Study: [%s] total %s\n", Sparkline(StudyMinutesSeries(days)), FormatDuration(total)); err != nil {
		return err
	}
	return nil
}

// RenderToday prints a single day's totals.
func RenderToday(w io.Writer, date string, rec model.DailyRecord) error {
	_, err := fmt.Fprintf(w, "%s  study %s  break %s\n", date, FormatDuration(rec.StudySeconds), FormatDuration(rec.BreakSeconds))
	return err
}
