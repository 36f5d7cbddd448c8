package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/commitspread/pkg/grid"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// Each matrix column takes a glyph and a space.
const (
	cellChars  = 2
	gridIndent = 2
	gridTop    = 2 // header line plus a blank line
)

// gridCapacity is how many days fit across the terminal.
func (m Model) gridCapacity() int {
	rows := m.opts.Grid.Rows
	if rows <= 0 {
		rows = grid.DefaultOptions().Rows
	}
	cols := (m.width - 2*gridIndent) / cellChars
	if cols < 1 {
		cols = 1
	}
	return cols * rows
}

// relayout recomputes the matrix for the current window and terminal width,
// keeping the focused date when it is still on screen.
func (m *Model) relayout() {
	var focusedDate string
	if m.focus != nil && m.focus.Focused() {
		if sel, ok := m.focus.Current(); ok {
			focusedDate = sel.Date
		}
	}

	window := m.opts.Grid.Window
	if fit := m.gridCapacity(); window <= 0 || window > fit {
		window = fit
	}
	records := grid.Window(m.records, window)
	m.windowLen = len(records)
	m.layout = grid.Layout(records, m.palette, m.opts.Grid)
	m.focus = grid.NewFocus(m.layout)

	if focusedDate != "" {
		for _, c := range m.layout.Cells {
			if c.Date == focusedDate {
				m.focus.Focus(c.Index)
				break
			}
		}
	}
}

// cellAtScreen maps a terminal coordinate to a record index of the window.
func (m Model) cellAtScreen(x, y int) (int, bool) {
	dx := x - gridIndent
	row := y - gridTop
	if dx < 0 || dx%cellChars != 0 || row < 0 || row >= m.layout.Rows {
		return 0, false
	}
	col := dx / cellChars
	if col >= m.layout.Cols {
		return 0, false
	}
	i := col*m.layout.Rows + row
	if _, _, ok := m.layout.Cell(i); !ok {
		return 0, false
	}
	return i, true
}

func (m Model) renderSpread(height int) string {
	if m.layout.Empty() {
		return m.renderEmpty(height)
	}

	focusIdx, focused := m.focus.Index()
	focused = focused && m.focus.Focused()
	indent := strings.Repeat(" ", gridIndent)

	var b strings.Builder
	b.WriteString("\n")
	for r := 0; r < m.layout.Rows; r++ {
		b.WriteString(indent)
		for c := 0; c < m.layout.Cols; c++ {
			i := c*m.layout.Rows + r
			_, rect, ok := m.layout.Cell(i)
			switch {
			case ok:
				glyph, opacity := "■", rect.Opacity
				if focused && i == focusIdx {
					glyph, opacity = "◆", 1
				}
				b.WriteString(m.theme.Cell(scale.Blend(rect.Fill, m.opts.Background, opacity)).Render(glyph))
			case i < m.windowLen:
				b.WriteString(m.theme.MutedText.Render("·"))
			default:
				b.WriteString(" ")
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(indent + m.renderLegend() + "\n")
	if sel, ok := m.focus.Current(); ok {
		line := fmt.Sprintf("%s  %d commits", m.theme.Label.Render(sel.Label()), sel.Total)
		if !m.focus.Focused() {
			line += m.theme.MutedText.Render("  (latest)")
		}
		b.WriteString(indent + line + "\n")
	}
	if m.layout.Skipped > 0 {
		b.WriteString(indent + m.theme.MutedText.Render(fmt.Sprintf("%d days without activity", m.layout.Skipped)) + "\n")
	}
	return fitHeight(b.String(), height)
}

// renderLegend lists the dominant categories of the window in first-seen
// order.
func (m Model) renderLegend() string {
	seen := make(map[string]bool)
	var parts []string
	width := 0
	for _, c := range m.layout.Cells {
		if seen[c.DominantCategory] {
			continue
		}
		seen[c.DominantCategory] = true
		part := m.theme.Cell(m.palette.ColorOf(c.DominantCategory)).Render("■") + " " + truncate(c.DominantCategory, 16)
		width += 4 + len(truncate(c.DominantCategory, 16))
		if width > m.width-2*gridIndent {
			parts = append(parts, m.theme.MutedText.Render("…"))
			break
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderEmpty(height int) string {
	msg := m.theme.MutedText.Render(center("no data", m.width))
	return fitHeight("\n"+msg+"\n", height)
}

// fitHeight pads or cuts s to exactly height lines.
func fitHeight(s string, height int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
