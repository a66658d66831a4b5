// Package timer implements the focus/break timer state machine.
package timer

import (
	"time"

	"github.com/verte-zerg/studyclock/internal/model"
)

const (
	// DefaultFocusMinutes is the focus length used when none is configured.
	DefaultFocusMinutes = 25
	// MinFocusMinutes is the shortest focus length accepted by Configure.
	MinFocusMinutes = 1
	// MaxFocusMinutes is the longest focus length accepted by Configure.
	MaxFocusMinutes = 600
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// State is the externally visible state of the engine.
type State int

const (
	// StateFocusIdle is focus mode with the countdown paused.
	StateFocusIdle State = iota
	// StateFocusRunning is focus mode with the countdown running.
	StateFocusRunning
	// StateBreak is break mode.
	StateBreak
)

func (s State) String() string {
	switch s {
	case StateFocusRunning:
		return "focus-running"
	case StateBreak:
		return "break"
	default:
		return "focus-idle"
	}
}

// Snapshot is a copy of the engine's session state.
type Snapshot struct {
	Mode                model.Mode
	ConfiguredSeconds   int64
	// SessionSeconds is the countdown length the current session started
	// from. Study time is SessionSeconds - RemainingSeconds rather than
	// ConfiguredSeconds - RemainingSeconds, so changing the focus length while
	// a countdown runs neither adds nor drops counted study.
	SessionSeconds      int64
	RemainingSeconds    int64
	BreakStartedAt      time.Time
	ElapsedBreakSeconds int64
	Running             bool
}

// ElapsedFocusSeconds is the focus time counted down in the current session.
func (s Snapshot) ElapsedFocusSeconds() int64 {
	elapsed := s.SessionSeconds - s.RemainingSeconds
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Engine is the focus/break state machine. It is not safe for concurrent use;
// a single owner drives it.
type Engine struct {
	clock Clock
	s     Snapshot
}

// New returns an engine in focus-idle state with the given focus length.
func New(clock Clock, focusMinutes int) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	e := &Engine{clock: clock}
	e.s.ConfiguredSeconds = int64(ClampMinutes(focusMinutes)) * 60
	e.Reset()
	return e
}

// ClampMinutes bounds a focus length to the accepted range.
func ClampMinutes(minutes int) int {
	if minutes < MinFocusMinutes {
		return MinFocusMinutes
	}
	if minutes > MaxFocusMinutes {
		return MaxFocusMinutes
	}
	return minutes
}

// Configure sets the focus length and returns the clamped value. The running
// countdown is left alone; an idle focus session restarts from the new length.
func (e *Engine) Configure(focusMinutes int) int {
	minutes := ClampMinutes(focusMinutes)
	e.s.ConfiguredSeconds = int64(minutes) * 60
	if !e.s.Running && e.s.Mode == model.ModeFocus {
		e.s.SessionSeconds = e.s.ConfiguredSeconds
		e.s.RemainingSeconds = e.s.ConfiguredSeconds
	}
	return minutes
}

// FocusMinutes returns the configured focus length in minutes.
func (e *Engine) FocusMinutes() int {
	return int(e.s.ConfiguredSeconds / 60)
}

// Start resumes the focus countdown. It reports whether the state changed.
func (e *Engine) Start() bool {
	if e.s.Running || e.s.Mode != model.ModeFocus || e.s.RemainingSeconds <= 0 {
		return false
	}
	e.s.Running = true
	return true
}

// Pause stops the focus countdown. It reports whether the state changed.
func (e *Engine) Pause() bool {
	if !e.s.Running {
		return false
	}
	e.s.Running = false
	return true
}

// Toggle starts an idle countdown or pauses a running one.
func (e *Engine) Toggle() bool {
	if e.s.Running {
		return e.Pause()
	}
	return e.Start()
}

// Tick advances the engine by one elapsed second. It reports whether the focus
// countdown reached zero on this tick.
func (e *Engine) Tick() bool {
	switch e.s.Mode {
	case model.ModeBreak:
		e.refreshBreak()
		return false
	default:
		if !e.s.Running {
			return false
		}
		if e.s.RemainingSeconds > 0 {
			e.s.RemainingSeconds--
		}
		if e.s.RemainingSeconds <= 0 {
			e.s.RemainingSeconds = 0
			e.s.Running = false
			return true
		}
		return false
	}
}

// EnterBreak switches from focus to break. The focus countdown is kept but not
// committed. It reports whether the state changed.
func (e *Engine) EnterBreak() bool {
	if e.s.Mode == model.ModeBreak {
		return false
	}
	e.s.Mode = model.ModeBreak
	e.s.Running = false
	e.s.BreakStartedAt = e.clock.Now()
	e.s.ElapsedBreakSeconds = 0
	return true
}

// Reset returns to focus-idle with a full countdown. Nothing is committed.
func (e *Engine) Reset() {
	e.s.Mode = model.ModeFocus
	e.s.Running = false
	e.s.SessionSeconds = e.s.ConfiguredSeconds
	e.s.RemainingSeconds = e.s.ConfiguredSeconds
	e.s.BreakStartedAt = time.Time{}
	e.s.ElapsedBreakSeconds = 0
}

// CommitAndReset computes the delta owed to the day's record and resets.
func (e *Engine) CommitAndReset(reason model.CommitReason) model.Delta {
	if e.s.Mode == model.ModeBreak {
		e.refreshBreak()
	}
	delta := ComputeDelta(e.s, reason)
	e.Reset()
	return delta
}

// Restore loads a cached focus length and remaining time. The restored engine
// is always idle in focus mode.
func (e *Engine) Restore(focusMinutes int, remainingSeconds int64) {
	e.s.ConfiguredSeconds = int64(ClampMinutes(focusMinutes)) * 60
	e.Reset()
	if remainingSeconds >= 0 && remainingSeconds < e.s.ConfiguredSeconds {
		e.s.RemainingSeconds = remainingSeconds
	}
}

// Snapshot returns a copy of the session state.
func (e *Engine) Snapshot() Snapshot {
	return e.s
}

// State returns the current state machine state.
func (e *Engine) State() State {
	switch {
	case e.s.Mode == model.ModeBreak:
		return StateBreak
	case e.s.Running:
		return StateFocusRunning
	default:
		return StateFocusIdle
	}
}

func (e *Engine) refreshBreak() {
	if e.s.BreakStartedAt.IsZero() {
		e.s.ElapsedBreakSeconds = 0
		return
	}
	elapsed := int64(e.clock.Now().Sub(e.s.BreakStartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	e.s.ElapsedBreakSeconds = elapsed
}

// ComputeDelta derives the seconds to commit from a session snapshot.
func ComputeDelta(s Snapshot, reason model.CommitReason) model.Delta {
	delta := model.Delta{Reason: reason}
	breakSeconds := int64(0)
	if s.Mode == model.ModeBreak && s.ElapsedBreakSeconds > 0 {
		breakSeconds = s.ElapsedBreakSeconds
	}
	switch reason {
	case model.CommitResumeFromBreak:
		delta.BreakSeconds = breakSeconds
	default:
		if s.Mode == model.ModeFocus {
			delta.StudySeconds = s.ElapsedFocusSeconds()
		}
		delta.BreakSeconds = breakSeconds
	}
	return delta
}
