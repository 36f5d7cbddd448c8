// Package force positions category nodes with an iterative physics
// simulation: many-body repulsion, a centering pull and collision
// resolution, cooled by a decaying energy level (alpha) until the layout
// settles.
//
// Step is the pure tick function. Simulation owns a node set, advances it one
// frame at a time and hands snapshots to subscribers; it never draws.
package force

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/vanderheijden86/commitspread/pkg/aggregate"
	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/metrics"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// Frame is the snapshot a render sink draws for one tick.
type Frame struct {
	Tick    int                    `json:"tick"`
	Alpha   float64                `json:"alpha"`
	Running bool                   `json:"running"`
	Nodes   []model.NodeDescriptor `json:"nodes"`
}

// Simulation steps a node set until its energy drops below AlphaMin.
//
// The tick loop is the only writer of node positions and velocities; Fix
// and Unfix are the only writers of fixed positions. The mutex exists so
// frames can be read from other goroutines.
type Simulation struct {
	mu sync.Mutex

	opts   Options
	forces []Force
	nodes  []model.Node
	index  map[string]int

	alpha       float64
	alphaTarget float64
	tick        int
	running     bool

	subs    map[int]func(Frame)
	nextSub int
}

// New returns a simulation over a copy of nodes. Nodes without a usable
// position are seeded on a spiral around the canvas center. An empty node
// set yields a simulation that is idle from the start.
func New(nodes []model.Node, opts Options) *Simulation {
	s := &Simulation{
		opts:   opts,
		forces: opts.forces(),
		nodes:  make([]model.Node, len(nodes)),
		index:  make(map[string]int, len(nodes)),
		alpha:  1,
		subs:   make(map[int]func(Frame)),
	}
	copy(s.nodes, nodes)
	b := s.boundsLocked()
	for i := range s.nodes {
		n := &s.nodes[i]
		s.index[n.ID] = i
		if (n.X == 0 && n.Y == 0) || !n.Finite() {
			n.X, n.Y = spiral(i, b)
			n.Vx, n.Vy = 0, 0
		}
		b.clamp(n)
	}
	s.running = len(s.nodes) > 0
	debug.Log("force: new simulation with %d nodes on %vx%v", len(s.nodes), opts.Width, opts.Height)
	return s
}

// spiral is the phyllotaxis arrangement: node i sits at radius 10*sqrt(i+0.5)
// and golden angle i*pi*(3-sqrt(5)) around the center.
func spiral(i int, b bounds) (float64, float64) {
	cx, cy := b.center()
	r := 10 * math.Sqrt(0.5+float64(i))
	a := float64(i) * math.Pi * (3 - math.Sqrt(5))
	return cx + r*math.Cos(a), cy + r*math.Sin(a)
}

// FromTotals builds one node per category in first-seen order, sized by the
// category total and colored by the palette.
func FromTotals(t aggregate.Totals, palette *scale.Palette, opts Options) []model.Node {
	if t.Empty() {
		return nil
	}
	if palette == nil {
		palette = scale.NewPalette(t.Order, nil)
	}
	radius := scale.NewRadius(t.Min(), t.Max(), opts.Radius)
	nodes := make([]model.Node, 0, t.Len())
	for _, c := range t.Order {
		nodes = append(nodes, model.Node{
			ID:     c,
			Count:  t.Counts[c],
			Radius: radius.Of(t.Counts[c]),
			Color:  palette.ColorOf(c),
			Icon:   opts.Icons[c],
		})
	}
	return nodes
}

func (s *Simulation) boundsLocked() bounds {
	return bounds{width: s.opts.Width, height: s.opts.Height, margin: s.opts.Margin}
}

// Tick advances the simulation by one frame and notifies subscribers. It
// reports whether more ticks are pending; an idle simulation does nothing
// and returns false.
func (s *Simulation) Tick() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	start := time.Now()

	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay
	s.nodes = Step(s.nodes, s.forces, StepParams{
		Alpha:         s.alpha,
		VelocityDecay: s.opts.VelocityDecay,
		Width:         s.opts.Width,
		Height:        s.opts.Height,
		Margin:        s.opts.Margin,
	})
	s.tick++

	if s.alpha < s.opts.AlphaMin {
		s.running = false
		relax(s.nodes, s.opts.CollidePadding, s.boundsLocked(), s.opts.RelaxPasses)
		for i := range s.nodes {
			s.nodes[i].Vx, s.nodes[i].Vy = 0, 0
		}
		debug.Log("force: settled after %d ticks", s.tick)
	}
	running := s.running
	frame := s.frameLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	metrics.ForceTick.Record(time.Since(start))
	for _, fn := range subs {
		fn(frame)
	}
	return running
}

// RunUntilIdle ticks until the simulation settles or maxTicks frames have
// run, and returns the number of ticks taken.
func (s *Simulation) RunUntilIdle(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Running() {
		s.Tick()
		n++
	}
	return n
}

// Run ticks once per value received from ticks and sends each frame to out.
// It returns nil when the simulation settles or ticks is closed, and the
// context error on cancellation.
func (s *Simulation) Run(ctx context.Context, ticks <-chan time.Time, out chan<- Frame) error {
	if !s.Running() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			more := s.Tick()
			select {
			case out <- s.Frame():
			case <-ctx.Done():
				return ctx.Err()
			}
			if !more {
				return nil
			}
		}
	}
}

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// SetAlpha sets the current energy, e.g. to reheat after new data.
func (s *Simulation) SetAlpha(a float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alpha = a
}

// AlphaTarget returns the energy the simulation cools toward.
func (s *Simulation) AlphaTarget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphaTarget
}

// SetAlphaTarget sets the energy the simulation cools toward. A target at or
// above AlphaMin keeps it running.
func (s *Simulation) SetAlphaTarget(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTarget = t
}

// Restart resumes ticking without resetting alpha.
func (s *Simulation) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = len(s.nodes) > 0
}

// Stop halts ticking; Restart resumes it.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Close stops the simulation and drops its nodes and subscribers.
func (s *Simulation) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.nodes = nil
	s.index = map[string]int{}
	s.subs = map[int]func(Frame){}
}

// Running reports whether ticks are pending.
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Options returns the options the simulation runs with.
func (s *Simulation) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Resize changes the canvas, re-centers the layout and reheats it.
func (s *Simulation) Resize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width <= 0 || height <= 0 || (width == s.opts.Width && height == s.opts.Height) {
		return
	}
	s.opts.Width, s.opts.Height = width, height
	s.forces = s.opts.forces()
	b := s.boundsLocked()
	for i := range s.nodes {
		b.clamp(&s.nodes[i])
	}
	s.alpha = math.Max(s.alpha, s.opts.HotAlphaTarget)
	s.running = len(s.nodes) > 0
}

// Len returns the number of nodes.
func (s *Simulation) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Nodes returns a copy of the node set.
func (s *Simulation) Nodes() []model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Node(nil), s.nodes...)
}

// Node returns one node by id.
func (s *Simulation) Node(id string) (model.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return model.Node{}, false
	}
	return s.nodes[i], true
}

// Find returns the topmost node whose circle contains (x, y). Later nodes
// are drawn on top.
func (s *Simulation) Find(x, y float64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		dx, dy := x-n.X, y-n.Y
		if dx*dx+dy*dy <= n.Radius*n.Radius {
			return n.ID, true
		}
	}
	return "", false
}

// Fix pins a node at (x, y), moved inside its containment box, and returns
// the position actually applied. The node jumps there immediately.
func (s *Simulation) Fix(id string, x, y float64) (float64, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok || !isFinite(x) || !isFinite(y) {
		return 0, 0, false
	}
	n := &s.nodes[i]
	px, py := Clamp(x, y, n.Radius, s.opts.Width, s.opts.Height, s.opts.Margin)
	n.Fx, n.Fy = &px, &py
	n.X, n.Y = px, py
	n.Vx, n.Vy = 0, 0
	return px, py, true
}

// Unfix releases a pinned node back to the simulation.
func (s *Simulation) Unfix(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].Fx, s.nodes[i].Fy = nil, nil
	return true
}

// Subscribe registers fn to receive every frame and returns a function that
// removes it.
func (s *Simulation) Subscribe(fn func(Frame)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Simulation) subscribersLocked() []func(Frame) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(Frame), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Frame returns the current snapshot.
func (s *Simulation) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Simulation) frameLocked() Frame {
	f := Frame{
		Tick:    s.tick,
		Alpha:   s.alpha,
		Running: s.running,
		Nodes:   make([]model.NodeDescriptor, len(s.nodes)),
	}
	for i, n := range s.nodes {
		d := n.Descriptor(s.opts.NodeOpacity)
		if d.Icon == "" {
			d.Icon = s.opts.Icons[n.ID]
		}
		f.Nodes[i] = d
	}
	return f
}
