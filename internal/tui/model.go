// Package tui provides the Bubble Tea timer interface.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/studyclock/internal/cache"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/session"
	"github.com/verte-zerg/studyclock/internal/stats"
	"github.com/verte-zerg/studyclock/internal/timer"
)

const progressWidth = 30

// TimerCache persists the timer between runs.
type TimerCache interface {
	Save(state cache.TimerState) error
}

type tickMsg time.Time

type todayMsg struct {
	record model.DailyRecord
	err    error
}

type committedMsg struct {
	result session.Result
}

// Model implements the Bubble Tea timer UI.
type Model struct {
	ctrl   *session.Controller
	cache  TimerCache
	userID string
	clock  timer.Clock

	keys    keyMap
	help    help.Model
	input   textinput.Model
	editing bool
	ticking bool

	// pending counts commits whose store write has not returned yet.
	pending sync.WaitGroup

	today  model.DailyRecord
	status string
	errMsg string

	width  int
	height int
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	breakStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB3B3")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs a timer TUI model. tc may be nil.
func NewModel(ctrl *session.Controller, tc TimerCache, userID string, clock timer.Clock) *Model {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	input := textinput.New()
	input.Prompt = "Focus minutes: "
	input.Placeholder = "25 or 1h30m"
	input.CharLimit = 8
	return &Model{
		ctrl:   ctrl,
		cache:  tc,
		userID: userID,
		clock:  clock,
		keys:   defaultKeys(),
		help:   help.New(),
		input:  input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.loadToday()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		return m, m.handleTick()
	case todayMsg:
		if msg.err != nil {
			m.errMsg = "Could not load today's totals."
			return m, nil
		}
		m.today = msg.record
		return m, nil
	case committedMsg:
		m.handleCommitted(msg.result)
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

// Wait blocks until every background commit has finished writing. Callers
// run it after the program exits and before closing the store.
func (m *Model) Wait() {
	m.pending.Wait()
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderTimer()
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	footerHeight := lipgloss.Height(footer)
	bodyHeight := m.height - footerHeight
	if bodyHeight < 1 {
		return content
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + footer
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	engine := m.ctrl.Engine
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.saveCache()
		return tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		if engine.Snapshot().Mode == model.ModeBreak {
			m.status = "On a break: r to end it."
			return nil
		}
		if !engine.Toggle() {
			if engine.Snapshot().RemainingSeconds == 0 {
				m.status = "Focus complete: f to save or x to reset."
			}
			return nil
		}
		m.status = ""
		m.saveCache()
		return m.ensureTicking()
	case key.Matches(msg, m.keys.Break):
		if !engine.EnterBreak() {
			return nil
		}
		m.status = "Break started."
		m.saveCache()
		return m.ensureTicking()
	case key.Matches(msg, m.keys.Resume):
		if engine.State() != timer.StateBreak {
			m.status = "Not on a break."
			return nil
		}
		return m.commit(model.CommitResumeFromBreak)
	case key.Matches(msg, m.keys.Finish):
		return m.commit(model.CommitFinish)
	case key.Matches(msg, m.keys.Reset):
		engine.Reset()
		m.status = "Timer reset."
		m.saveCache()
		return nil
	case key.Matches(msg, m.keys.More):
		m.setMinutes(engine.FocusMinutes() + 1)
		return nil
	case key.Matches(msg, m.keys.Less):
		m.setMinutes(engine.FocusMinutes() - 1)
		return nil
	case key.Matches(msg, m.keys.Duration):
		m.editing = true
		m.input.SetValue(strconv.Itoa(engine.FocusMinutes()))
		m.input.CursorEnd()
		return m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}
	return nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.saveCache()
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		minutes, err := parseMinutes(m.input.Value())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.setMinutes(minutes)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setMinutes(minutes int) {
	got := m.ctrl.Engine.Configure(minutes)
	m.status = fmt.Sprintf("Focus length %d min.", got)
	m.saveCache()
}

// handleTick advances the engine and schedules the next tick while the timer
// is active. Only one tick chain is ever in flight.
func (m *Model) handleTick() tea.Cmd {
	engine := m.ctrl.Engine
	if engine.State() == timer.StateFocusIdle {
		m.ticking = false
		return nil
	}
	if engine.Tick() {
		m.status = "Focus complete: f to save."
		m.saveCache()
		m.ticking = false
		return nil
	}
	return tick()
}

func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// commit resets the engine now and writes the delta in the background.
func (m *Model) commit(reason model.CommitReason) tea.Cmd {
	delta := m.ctrl.Commit(reason)
	m.saveCache()
	if delta.Empty() {
		m.status = "Nothing to save."
		return nil
	}
	m.status = "Saving..."
	finalizer := m.ctrl.Finalizer
	m.pending.Add(1)
	return func() tea.Msg {
		defer m.pending.Done()
		return committedMsg{result: finalizer.Apply(context.Background(), delta)}
	}
}

func (m *Model) handleCommitted(res session.Result) {
	if res.Err != nil {
		m.errMsg = "Save failed; the session was not recorded."
		m.status = ""
		return
	}
	m.errMsg = ""
	m.today = res.Record
	parts := []string{}
	if res.Delta.StudySeconds > 0 {
		parts = append(parts, "+"+stats.FormatDuration(res.Delta.StudySeconds)+" study")
	}
	if res.Delta.BreakSeconds > 0 {
		parts = append(parts, "+"+stats.FormatDuration(res.Delta.BreakSeconds)+" break")
	}
	m.status = "Saved " + strings.Join(parts, ", ") + "."
}

func (m *Model) loadToday() tea.Cmd {
	finalizer := m.ctrl.Finalizer
	return func() tea.Msg {
		rec, err := finalizer.Today(context.Background())
		return todayMsg{record: rec, err: err}
	}
}

func (m *Model) saveCache() {
	if m.cache == nil {
		return
	}
	snap := m.ctrl.Engine.Snapshot()
	state := cache.TimerState{
		FocusMinutes:     m.ctrl.Engine.FocusMinutes(),
		RemainingSeconds: snap.RemainingSeconds,
		UserID:           m.userID,
		SavedAt:          m.clock.Now(),
	}
	if err := m.cache.Save(state); err != nil {
		m.errMsg = "Could not save timer state."
	}
}

func (m *Model) renderTimer() string {
	snap := m.ctrl.Engine.Snapshot()
	lines := []string{titleStyle.Render("studyclock"), ""}
	switch snap.Mode {
	case model.ModeBreak:
		lines = append(lines,
			breakStyle.Render("BREAK"),
			breakStyle.Render(stats.FormatClock(snap.ElapsedBreakSeconds)),
			mutedStyle.Render("elapsed"),
		)
	default:
		state := "paused"
		if snap.Running {
			state = "running"
		}
		lines = append(lines,
			focusStyle.Render("FOCUS"),
			focusStyle.Render(stats.FormatClock(snap.RemainingSeconds)),
			progressStyle.Render(progressBar(snap.ElapsedFocusSeconds(), snap.SessionSeconds, progressWidth)),
			mutedStyle.Render(fmt.Sprintf("%s · %d min", state, m.ctrl.Engine.FocusMinutes())),
		)
	}
	lines = append(lines, "", m.renderToday())
	if m.editing {
		lines = append(lines, "", m.input.View())
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderToday() string {
	return mutedStyle.Render(fmt.Sprintf("Today: study %s · break %s",
		stats.FormatDuration(m.today.StudySeconds), stats.FormatDuration(m.today.BreakSeconds)))
}

func (m *Model) renderFooter() string {
	lines := []string{}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(truncateLine(m.errMsg, m.width)))
	}
	if m.status != "" {
		lines = append(lines, footerStyle.Render(truncateLine(m.status, m.width)))
	}
	if m.editing {
		lines = append(lines, footerStyle.Render("enter: apply  esc: cancel"))
	} else {
		lines = append(lines, m.help.View(m.keys))
	}
	return strings.Join(lines, "\n")
}

func progressBar(done, total int64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = int(done * int64(width) / total)
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// parseMinutes accepts whole minutes ("45") or a duration ("1h30m"). Values
// outside the focus range are clamped.
func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("enter a number of minutes")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return timer.ClampMinutes(n), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return timer.ClampMinutes(int(d / time.Minute)), nil
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
