package stats

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

const (
	columnGap = "  "
	ruleRune  = "─"
)

// formatTable lays rows out under headers. Columns whose cells are all
// quantities ("12", "1h 05m", "+50%") are right-aligned. A non-nil totals row
// is printed under a rule spanning the table.
func formatTable(headers []string, rows [][]string, totals []string) []string {
	all := make([][]string, 0, len(rows)+1)
	all = append(all, rows...)
	if totals != nil {
		all = append(all, totals)
	}
	colCount := len(headers)
	for _, row := range all {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range all {
		for i := 0; i < colCount; i++ {
			if w := displayWidth(cellAt(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	right := quantityColumns(rows, colCount)

	lines := make([]string, 0, len(rows)+3)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, right))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, right))
	}
	if totals != nil {
		lines = append(lines, strings.Repeat(ruleRune, tableWidth(widths)))
		lines = append(lines, formatRow(totals, widths, right))
	}
	return lines
}

func formatRow(row []string, widths []int, right []bool) string {
	var b strings.Builder
	for i, width := range widths {
		if i > 0 {
			b.WriteString(columnGap)
		}
		b.WriteString(padCell(cellAt(row, i), width, right[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

// quantityColumns marks columns with at least one non-empty cell where every
// non-empty cell starts with a digit or a signed digit.
func quantityColumns(rows [][]string, colCount int) []bool {
	right := make([]bool, colCount)
	for i := range right {
		seen := false
		ok := true
		for _, row := range rows {
			cell := strings.TrimSpace(cellAt(row, i))
			if cell == "" {
				continue
			}
			seen = true
			if !isQuantity(cell) {
				ok = false
				break
			}
		}
		right[i] = seen && ok
	}
	return right
}

// isQuantity reports whether a cell reads as a number or duration. Dates
// ("2026-10-12") are labels, not quantities.
func isQuantity(cell string) bool {
	if len(cell) == len("2006-01-02") && cell[4] == '-' && cell[7] == '-' {
		return false
	}
	s := strings.TrimLeft(cell, "+-")
	if s == "" {
		return false
	}
	return unicode.IsDigit(rune(s[0]))
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func tableWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += len(columnGap) * (len(widths) - 1)
	}
	return total
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
