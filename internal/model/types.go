// Package model defines shared data structures.
package model

import "time"

// Mode is the timer mode.
type Mode int

const (
	// ModeFocus counts down a configured study interval.
	ModeFocus Mode = iota
	// ModeBreak counts up wall-clock time since the break started.
	ModeBreak
)

func (m Mode) String() string {
	if m == ModeBreak {
		return "break"
	}
	return "focus"
}

// CommitReason names the boundary at which elapsed time is committed.
type CommitReason int

const (
	// CommitFinish ends a focus session.
	CommitFinish CommitReason = iota
	// CommitResumeFromBreak ends a break and returns to focus.
	CommitResumeFromBreak
)

func (r CommitReason) String() string {
	if r == CommitResumeFromBreak {
		return "resume-from-break"
	}
	return "finish"
}

// Config defines timer settings.
type Config struct {
	UserID       string
	FocusMinutes int
	Timezone     string
}

// StoreConfig selects and configures the time store backend.
type StoreConfig struct {
	Backend string
	Path    string
	URL     string
	Auth    string
}

// StatsConfig defines options for stats output.
type StatsConfig struct {
	UserID      string
	HistoryDays int
}

// DailyRecord holds the accumulated study and break seconds of one day.
type DailyRecord struct {
	StudySeconds int64
	BreakSeconds int64
}

// Add returns the record with the delta applied. Negative deltas are ignored.
func (r DailyRecord) Add(d Delta) DailyRecord {
	if d.StudySeconds > 0 {
		r.StudySeconds += d.StudySeconds
	}
	if d.BreakSeconds > 0 {
		r.BreakSeconds += d.BreakSeconds
	}
	return r
}

// DatedRecord is a DailyRecord together with its date key.
type DatedRecord struct {
	Date   string
	Record DailyRecord
}

// Delta is the time to add to a day's record at commit time.
type Delta struct {
	Reason       CommitReason
	StudySeconds int64
	BreakSeconds int64
}

// Empty reports whether the delta adds nothing.
func (d Delta) Empty() bool {
	return d.StudySeconds <= 0 && d.BreakSeconds <= 0
}

// DayTotal summarizes a single day for reporting.
type DayTotal struct {
	Date         time.Time
	Key          string
	Label        string
	StudySeconds int64
	BreakSeconds int64
	StudyMinutes int64
	BreakMinutes int64
}
