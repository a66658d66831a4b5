package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Bar is one labeled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	Note  string
}

const (
	barFull             = '█'
	barEmpty            = '·'
	minBarWidth         = 10
	maxBarWidth         = 60
	barColor            = "\x1b[36m"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// RenderBars prints a horizontal bar chart scaled to the largest value.
func RenderBars(w io.Writer, title string, bars []Bar, totalWidth int) error {
	return RenderBarsWithColor(w, title, bars, totalWidth, false)
}

// RenderBarsWithColor prints a bar chart with optional forced color output.
func RenderBarsWithColor(w io.Writer, title string, bars []Bar, totalWidth int, forceColor bool) error {
	if len(bars) == 0 {
		return nil
	}
	labelWidth := 0
	noteWidth := 0
	maxVal := 0.0
	for _, b := range bars {
		if lw := runewidth.StringWidth(b.Label); lw > labelWidth {
			labelWidth = lw
		}
		if nw := runewidth.StringWidth(b.Note); nw > noteWidth {
			noteWidth = nw
		}
		if b.Value > maxVal {
			maxVal = b.Value
		}
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	width := BarWidthFor(totalWidth, labelWidth, noteWidth)
	useColor := shouldUseColor(w, forceColor)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, b := range bars {
		filled := 0
		if maxVal > 0 && b.Value > 0 {
			filled = int(b.Value / maxVal * float64(width))
			if filled == 0 {
				filled = 1
			}
		}
		bar := strings.Repeat(string(barFull), filled)
		if useColor && filled > 0 {
			bar = barColor + bar + colorReset
		}
		line := fmt.Sprintf("%s %s%s %s",
			runewidth.FillRight(b.Label, labelWidth),
			bar,
			strings.Repeat(string(barEmpty), width-filled),
			b.Note)
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// BarWidthFor returns the bar area width that fits totalWidth next to the
// label and note columns.
func BarWidthFor(totalWidth, labelWidth, noteWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	width := totalWidth - labelWidth - noteWidth - 2
	if width < minBarWidth {
		width = minBarWidth
	}
	if width > maxBarWidth {
		width = maxBarWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
