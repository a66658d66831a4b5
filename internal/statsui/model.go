// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/studyclock/internal/calendar"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/stats"
	"github.com/verte-zerg/studyclock/internal/store"
	"github.com/verte-zerg/studyclock/internal/timer"
)

const (
	tabWeek = iota
	tabHistory
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	reader store.Reader
	cfg    model.StatsConfig
	cal    calendar.Calendar
	clock  timer.Clock

	week    stats.WeekReport
	history []model.DayTotal

	tabs        []string
	activeTab   int
	weekTable   table.Model
	historyView viewport.Model

	width  int
	height int
}

// NewModel constructs a stats UI model and loads the first report.
func NewModel(rd store.Reader, cfg model.StatsConfig, cal calendar.Calendar, clock timer.Clock) *Model {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	m := &Model{
		reader:      rd,
		cfg:         cfg,
		cal:         cal,
		clock:       clock,
		tabs:        []string{"Week", "History"},
		historyView: viewport.New(0, 0),
	}
	m.weekTable = buildWeekTable(nil, 0)
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshReport()
			return m, nil
		case "g", "home":
			if m.activeTab == tabWeek {
				m.weekTable.GotoTop()
			} else {
				m.historyView.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabWeek {
				m.weekTable.GotoBottom()
			} else {
				m.historyView.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabWeek {
				m.weekTable, cmd = m.weekTable.Update(msg)
				return m, cmd
			}
			m.historyView, cmd = m.historyView.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) refreshReport() {
	ctx := context.Background()
	now := m.clock.Now()
	m.week = stats.BuildWeekReport(ctx, m.reader, m.cfg.UserID, m.cal, now)
	m.history = stats.BuildHistory(ctx, m.reader, m.cfg.UserID, m.cal, now, m.cfg.HistoryDays)
	m.weekTable.SetRows(weekTableRows(m.week))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	var buf bytes.Buffer
	if err := stats.RenderHistory(&buf, m.history); err != nil {
		m.historyView.SetContent("Failed to render history.")
		return
	}
	m.historyView.SetContent(buf.String())
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.historyView.Width = m.width
	m.historyView.Height = bodyHeight
	cardsHeight := lipgloss.Height(m.renderCards())
	m.weekTable.SetWidth(m.width)
	m.weekTable.SetHeight(maxInt(2, bodyHeight-cardsHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabWeek {
		m.weekTable.Focus()
	} else {
		m.weekTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("User: %s  Today: %s  Zone: %s  History: %d days",
		m.cfg.UserID, m.week.Today, m.cal.Location(), len(m.history))
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	return headerStyle.Render(truncateLine("Nav: left/right  Scroll: up/down/pgup/pgdn  Refresh: r  Quit: q", m.width))
}

func (m *Model) renderBody() string {
	if m.activeTab == tabHistory {
		return m.historyView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderCards(),
		tableMutedStyle.Render(m.weekTable.View()),
	)
}

func (m *Model) renderCards() string {
	var todayStudy int64
	for _, d := range m.week.Days {
		if d.Key == m.week.Today {
			todayStudy = d.StudySeconds
		}
	}
	cards := []string{
		metricCard("This week", fmt.Sprintf("%.2fh", m.week.StudyHours)),
		metricCard("Last week", fmt.Sprintf("%.2fh", m.week.PrevStudyHours)),
		metricCard("Change", m.week.PercentChange),
		metricCard("Today", stats.FormatDuration(todayStudy)),
		metricCard("Breaks", stats.FormatDuration(m.week.BreakSeconds)),
	}
	if m.width > 0 && m.width < 60 {
		return lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[2])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildWeekTable(rows []table.Row, height int) table.Model {
	columns := make([]table.Column, 0, len(stats.WeekHeaders))
	for _, title := range stats.WeekHeaders {
		columns = append(columns, table.Column{Title: title, Width: maxInt(runewidth.StringWidth(title), 10)})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(2, height)),
		table.WithFocused(true),
	)
	t.SetStyles(weekTableStyles())
	return t
}

func weekTableRows(report stats.WeekReport) []table.Row {
	src := stats.WeekRows(report)
	rows := make([]table.Row, 0, len(src))
	for _, r := range src {
		rows = append(rows, table.Row(r))
	}
	return rows
}

func weekTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
