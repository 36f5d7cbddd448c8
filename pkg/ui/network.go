package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// A terminal cell stands for a pxW by pxH patch of the simulation canvas.
// Cells are about twice as tall as wide, so circles stay round.
const (
	pxW = 4.0
	pxH = 8.0
)

// canvasSize is the simulation canvas matching a body of cols by rows cells.
func canvasSize(cols, rows int) (float64, float64) {
	return float64(cols) * pxW, float64(rows) * pxH
}

// toCanvas maps the center of a body cell to simulation coordinates.
func toCanvas(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * pxW, (float64(row) + 0.5) * pxH
}

type canvasCell struct {
	owner int // node index, -1 for background
	ch    rune
}

// rasterize paints the frame's circles onto a cols by rows character grid.
// Later nodes are drawn on top, matching hit testing.
func rasterize(nodes []model.NodeDescriptor, cols, rows int) [][]canvasCell {
	canvas := make([][]canvasCell, rows)
	for r := range canvas {
		canvas[r] = make([]canvasCell, cols)
		for c := range canvas[r] {
			canvas[r][c] = canvasCell{owner: -1, ch: ' '}
		}
	}
	for k, n := range nodes {
		c0 := clampInt(int((n.X-n.Radius)/pxW), 0, cols-1)
		c1 := clampInt(int((n.X+n.Radius)/pxW), 0, cols-1)
		r0 := clampInt(int((n.Y-n.Radius)/pxH), 0, rows-1)
		r1 := clampInt(int((n.Y+n.Radius)/pxH), 0, rows-1)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				x, y := toCanvas(c, r)
				dx, dy := x-n.X, y-n.Y
				if dx*dx+dy*dy <= n.Radius*n.Radius {
					canvas[r][c] = canvasCell{owner: k, ch: ' '}
				}
			}
		}
	}
	for k, n := range nodes {
		placeLabel(canvas, k, n)
	}
	return canvas
}

// placeLabel writes the node id across the middle row of its disc, inside
// the cells the node still owns.
func placeLabel(canvas [][]canvasCell, k int, n model.NodeDescriptor) {
	if len(canvas) == 0 {
		return
	}
	row := clampInt(int(n.Y/pxH), 0, len(canvas)-1)
	line := canvas[row]
	first, last := -1, -1
	for c := range line {
		if line[c].owner == k {
			if first < 0 {
				first = c
			}
			last = c
		}
	}
	if first < 0 {
		return
	}
	label := n.ID
	if n.Icon != "" {
		label = n.Icon
	}
	label = truncate(label, last-first+1)
	start := first + (last-first+1-runewidth.StringWidth(label))/2
	c := start
	for _, ch := range label {
		if c > last {
			break
		}
		if runewidth.RuneWidth(ch) != 1 {
			ch = '?'
		}
		if line[c].owner == k {
			line[c].ch = ch
		}
		c++
	}
}

func (m Model) renderNetwork(height int) string {
	if m.totals.Empty() {
		return m.renderEmpty(height)
	}
	rows := height - 1
	if rows < 1 {
		return fitHeight("", height)
	}
	nodes := m.frame.Nodes
	canvas := rasterize(nodes, m.width, rows)

	styles := make([]string, len(nodes))
	for k, n := range nodes {
		styles[k] = scale.Blend(n.Color, m.opts.Background, n.Opacity)
	}

	var b strings.Builder
	for _, line := range canvas {
		c := 0
		for c < len(line) {
			owner := line[c].owner
			var run strings.Builder
			for c < len(line) && line[c].owner == owner {
				run.WriteRune(line[c].ch)
				c++
			}
			if owner < 0 {
				b.WriteString(run.String())
				continue
			}
			st := m.theme.Renderer.NewStyle().
				Background(ThemeFg(styles[owner])).
				Foreground(ThemeFg("#282A36"))
			if nodes[owner].ID == m.selected {
				st = st.Bold(true).Underline(true)
			}
			b.WriteString(st.Render(run.String()))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.networkStatus())
	return fitHeight(b.String(), height)
}

// networkStatus describes the simulation and the selected node.
func (m Model) networkStatus() string {
	state := m.theme.OKText.Render("settled")
	if m.frame.Running {
		state = m.theme.Label.Render("running")
	}
	line := fmt.Sprintf(" %s  tick %d  alpha %.3f", state, m.frame.Tick, m.frame.Alpha)
	if m.selected != "" {
		line += fmt.Sprintf("  %s %s (%d)", m.theme.MutedText.Render("selected"),
			m.theme.Label.Render(m.selected), m.totals.Counts[m.selected])
	}
	return line
}

// selectNext moves the selection through the nodes in frame order.
func (m *Model) selectNext(step int) {
	nodes := m.frame.Nodes
	if len(nodes) == 0 {
		m.selected = ""
		return
	}
	i := -1
	for k, n := range nodes {
		if n.ID == m.selected {
			i = k
			break
		}
	}
	if i < 0 {
		if step < 0 {
			i = 0
		} else {
			i = len(nodes) - 1
		}
	}
	m.selected = nodes[((i+step)%len(nodes)+len(nodes))%len(nodes)].ID
}
