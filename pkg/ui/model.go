// Package ui is the terminal front end: a spread grid of days and a network
// of categories, both live over the same dataset.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/commitspread/pkg/aggregate"
	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/force"
	"github.com/vanderheijden86/commitspread/pkg/grid"
	"github.com/vanderheijden86/commitspread/pkg/interact"
	"github.com/vanderheijden86/commitspread/pkg/metrics"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
	"github.com/vanderheijden86/commitspread/pkg/watcher"
)

// View selects what the body shows.
type View int

const (
	ViewSpread View = iota
	ViewNetwork
)

func (v View) String() string {
	switch v {
	case ViewSpread:
		return "spread"
	case ViewNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ParseView maps a configured view name to a View.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spread", "grid":
		return ViewSpread, nil
	case "network":
		return ViewNetwork, nil
	}
	return ViewSpread, fmt.Errorf("unknown view %q", s)
}

// Options configures the model.
type Options struct {
	Grid       grid.Options
	Force      force.Options
	Palette    []string
	Background string
	FPS        int
	View       View
	Theme      string // auto, dark, light
	Source     string // shown in the header
}

// Messages.
type (
	// frameTickMsg advances the network simulation by one tick.
	frameTickMsg struct{}

	// ReloadMsg carries a reloaded dataset.
	ReloadMsg struct{ Update watcher.Update }

	// statusClearMsg clears a transient status line.
	statusClearMsg struct{ seq int }
)

// The mouse is the only pointer a terminal has.
const mousePointer interact.PointerID = 0

const headerLines = 1

var writeClipboard = clipboard.WriteAll

// Model is the Bubble Tea model.
type Model struct {
	opts  Options
	theme Theme

	records []model.Record
	totals  aggregate.Totals
	palette *scale.Palette

	layout    grid.Result
	focus     *grid.Focus
	windowLen int

	sim      *force.Simulation
	ctrl     *interact.Controller
	frame    force.Frame
	ticking  bool
	selected string

	view     View
	width    int
	height   int
	showHelp bool
	help     help.Model

	status        string
	statusIsError bool
	statusSeq     int

	reloader   *watcher.Reloader
	lastReload time.Time
}

// NewModel builds the model over records. It starts at a default terminal
// size until the first WindowSizeMsg arrives.
func NewModel(records []model.Record, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Background == "" {
		opts.Background = "#1e1e2e"
	}
	if opts.Force.AlphaDecay == 0 {
		opts.Force = force.DefaultOptions()
	}
	m := Model{
		opts:   opts,
		theme:  DefaultTheme(lipgloss.DefaultRenderer(), opts.Theme),
		view:   opts.View,
		width:  100,
		height: 30,
	}
	m.help = newHelp(m.theme)
	m.setRecords(records)
	return m
}

// WithReloader makes the model follow dataset updates.
func (m Model) WithReloader(r *watcher.Reloader) Model {
	m.reloader = r
	return m
}

// WithRenderer swaps the lipgloss renderer, e.g. for a custom output.
func (m Model) WithRenderer(r *lipgloss.Renderer) Model {
	m.theme = DefaultTheme(r, m.opts.Theme)
	m.help = newHelp(m.theme)
	return m
}

// setRecords replaces the dataset and rebuilds both views. Categories
// that survive keep their network position.
func (m *Model) setRecords(records []model.Record) {
	m.records = records
	m.totals = aggregate.Aggregate(records)
	m.palette = scale.NewPalette(m.totals.Order, m.opts.Palette)
	m.relayout()

	fopts := m.opts.Force
	fopts.Width, fopts.Height = canvasSize(m.width, m.canvasRows())
	nodes := force.FromTotals(m.totals, m.palette, fopts)
	if m.sim != nil {
		for i := range nodes {
			if old, ok := m.sim.Node(nodes[i].ID); ok {
				nodes[i].X, nodes[i].Y = old.X, old.Y
			}
		}
		m.sim.Close()
	}
	m.sim = force.New(nodes, fopts)
	m.ctrl = interact.New(m.sim)
	m.frame = m.sim.Frame()
	if _, ok := m.sim.Node(m.selected); !ok {
		m.selected = ""
	}
}

func (m Model) bodyHeight() int {
	h := m.height - headerLines - 1
	if h < 1 {
		return 1
	}
	return h
}

// canvasRows is the body minus the network status line.
func (m Model) canvasRows() int {
	return max(m.bodyHeight()-1, 1)
}

func frameTickCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(time.Time) tea.Msg {
		return frameTickMsg{}
	})
}

// WaitForReloadCmd waits for the next dataset update.
func WaitForReloadCmd(r *watcher.Reloader) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		return ReloadMsg{Update: <-r.Updates()}
	}
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}

// ensureTicking starts the frame loop if the network is visible and has
// energy left. The loop stops itself once the layout settles.
func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking || m.view != ViewNetwork || !m.sim.Running() {
		return nil
	}
	m.ticking = true
	return frameTickCmd(m.opts.FPS)
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.status = msg
	m.statusIsError = isErr
	m.statusSeq++
	return clearStatusCmd(m.statusSeq)
}

// Init waits for reloads. The frame loop starts with the first
// WindowSizeMsg, which sizes the canvas.
func (m Model) Init() tea.Cmd {
	return WaitForReloadCmd(m.reloader)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.relayout()
		m.sim.Resize(canvasSize(m.width, m.canvasRows()))
		m.frame = m.sim.Frame()
		cmds = append(cmds, m.ensureTicking())

	case frameTickMsg:
		m.ticking = false
		if m.view != ViewNetwork {
			break
		}
		m.sim.Tick()
		m.frame = m.sim.Frame()
		cmds = append(cmds, m.ensureTicking())

	case ReloadMsg:
		u := msg.Update
		if u.Err != nil {
			debug.Log("ui: reload failed: %v", u.Err)
			cmds = append(cmds, m.setStatus("reload failed: "+u.Err.Error(), true))
		} else {
			m.ctrl.Reset()
			m.setRecords(u.Records)
			m.lastReload = u.At
			text := fmt.Sprintf("reloaded %d days", len(u.Records))
			if u.Skipped > 0 {
				text += fmt.Sprintf(", %d skipped", u.Skipped)
			}
			cmds = append(cmds, m.setStatus(text, false), m.ensureTicking())
		}
		cmds = append(cmds, WaitForReloadCmd(m.reloader))

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusIsError = false
		}

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			m.ctrl.Reset()
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.showHelp {
		switch {
		case msg.String() == "ctrl+c":
			return nil, true
		case key.Matches(msg, keys.Help, keys.Clear, keys.Quit):
			m.showHelp = false
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return nil, true
	case key.Matches(msg, keys.Help):
		m.showHelp = true
	case key.Matches(msg, keys.Switch):
		m.ctrl.Reset()
		if m.view == ViewSpread {
			m.view = ViewNetwork
		} else {
			m.view = ViewSpread
		}
		return m.ensureTicking(), false
	case key.Matches(msg, keys.Clear):
		if m.view == ViewSpread {
			m.focus.Blur()
		} else {
			m.selected = ""
		}
	case key.Matches(msg, keys.Copy):
		return m.copySelection(), false
	case key.Matches(msg, keys.Reheat):
		if m.view == ViewNetwork {
			m.sim.Restart()
			return m.ensureTicking(), false
		}
	case key.Matches(msg, keys.Left):
		m.move(0, -1)
	case key.Matches(msg, keys.Right):
		m.move(0, 1)
	case key.Matches(msg, keys.Up):
		m.move(-1, 0)
	case key.Matches(msg, keys.Down):
		m.move(1, 0)
	}
	return nil, false
}

// move shifts the spread focus, or cycles the network selection.
func (m *Model) move(dRow, dCol int) {
	if m.view == ViewNetwork {
		m.selectNext(dRow + dCol)
		return
	}
	m.focus.Move(dRow, dCol)
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.showHelp {
		return nil
	}
	y := msg.Y - headerLines
	if m.view == ViewSpread {
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if i, ok := m.cellAtScreen(msg.X, msg.Y); ok {
				m.focus.Focus(i)
			}
		}
		return nil
	}

	x, cy := toCanvas(msg.X, y)
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if id, ok := m.ctrl.PointerDown(mousePointer, x, cy); ok {
			m.selected = id
		}
	case msg.Action == tea.MouseActionMotion:
		m.ctrl.PointerMove(mousePointer, x, cy)
	case msg.Action == tea.MouseActionRelease:
		m.ctrl.PointerUp(mousePointer)
	}
	m.frame = m.sim.Frame()
	return m.ensureTicking()
}

// copySelection puts the focused day or the selected category on the
// clipboard.
func (m *Model) copySelection() tea.Cmd {
	var text string
	if m.view == ViewSpread {
		text = m.focus.Label()
	} else if m.selected != "" {
		text = fmt.Sprintf("%s (%d)", m.selected, m.totals.Counts[m.selected])
	}
	if text == "" {
		return m.setStatus("nothing to copy", true)
	}
	if err := writeClipboard(text); err != nil {
		return m.setStatus("clipboard: "+err.Error(), true)
	}
	return m.setStatus("copied "+text, false)
}

func (m Model) View() string {
	start := time.Now()
	defer func() { metrics.UIRender.Record(time.Since(start)) }()

	body := m.bodyHeight()
	var content string
	switch {
	case m.showHelp:
		content = m.renderHelp(body)
	case m.view == ViewNetwork:
		content = m.renderNetwork(body)
	default:
		content = m.renderSpread(body)
	}
	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("spread")
	var tabs []string
	for _, v := range []View{ViewSpread, ViewNetwork} {
		if v == m.view {
			tabs = append(tabs, m.theme.ActiveTab.Render(v.String()))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(v.String()))
		}
	}
	left := title + " " + strings.Join(tabs, "")
	right := ""
	if m.opts.Source != "" {
		right = m.theme.MutedText.Render(truncate(m.opts.Source, 40))
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderFooter() string {
	if m.status != "" {
		if m.statusIsError {
			return m.theme.ErrorText.Render(truncate(m.status, m.width))
		}
		return m.theme.OKText.Render(truncate(m.status, m.width))
	}
	hints := m.help.View(keys)
	info := fmt.Sprintf("%d days  %d categories", len(m.records), m.totals.Len())
	if !m.lastReload.IsZero() {
		info += "  reloaded " + FormatTimeRel(m.lastReload)
	}
	return m.theme.Footer.Render(padRight(info, m.width-lipgloss.Width(hints)) + hints)
}

// CurrentView returns the visible view.
func (m Model) CurrentView() View { return m.view }

// FocusLabel returns the label of the spread selection.
func (m Model) FocusLabel() string { return m.focus.Label() }

// Selected returns the selected network category.
func (m Model) Selected() string { return m.selected }

// Frame returns the last network frame.
func (m Model) Frame() force.Frame { return m.frame }

// Status returns the footer status message.
func (m Model) Status() string { return m.status }

// Dragging reports whether the mouse holds a node.
func (m Model) Dragging() bool { return m.ctrl.Active() }

// Close releases the simulation.
func (m Model) Close() {
	m.ctrl.Reset()
	m.sim.Close()
}
