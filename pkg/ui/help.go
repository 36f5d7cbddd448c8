package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const helpMarkdown = `# Keys

| Key | Action |
| --- | --- |
| tab, v | switch between spread and network |
| ←↓↑→, hjkl | move the focused day, or the selected category |
| esc | drop the focus and return to the latest day |
| y | copy the focused day or selected category |
| r | reheat the network layout |
| ? | toggle this help |
| q | quit |

# Mouse

Click a day to focus it. In the network view, drag a circle to pin it while
the others make room; releasing it lets the layout settle again.
`

// renderHelp renders the help overlay as markdown, falling back to the
// raw text when glamour cannot render it.
func (m Model) renderHelp(height int) string {
	width := clampInt(m.width-6, 20, 80)
	body := helpMarkdown
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if out, err := r.Render(helpMarkdown); err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	box := m.theme.Overlay.Render(body)
	return fitHeight(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box), height)
}
