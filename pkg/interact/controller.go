// Package interact turns pointer events into drags over a force simulation.
//
// Every node is either Idle or Dragging. A pointer going down over an idle
// node starts a DragSession that pins the node under the pointer and heats
// the simulation so its neighbors react; moving the pointer moves the pin;
// releasing it frees the node and, once no drag remains, lets the layout
// cool down again.
package interact

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/force"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

// PointerID distinguishes simultaneous pointers (mouse, touches, pen).
type PointerID int

// State is the drag state of one node.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// DragSession is one pointer holding one node.
type DragSession struct {
	Pointer PointerID
	NodeID  string

	// Offset is the pointer position minus the node center at pointer-down.
	Offset r2.Vec

	// Hot is whether the session raised the simulation's target energy.
	Hot bool
}

// Simulation is the part of force.Simulation the controller drives.
type Simulation interface {
	Find(x, y float64) (string, bool)
	Node(id string) (model.Node, bool)
	Fix(id string, x, y float64) (float64, float64, bool)
	Unfix(id string) bool
	SetAlphaTarget(t float64)
	Restart()
}

// Controller owns the drag sessions over one simulation. It is the only
// writer of fixed positions.
type Controller struct {
	mu sync.Mutex

	sim      Simulation
	hot      float64
	baseline float64

	sessions map[PointerID]*DragSession
	byNode   map[string]PointerID

	onSelected func(id string)
	onRelease  func(id string)
}

// New returns a controller driving sim. While any drag is active the alpha
// target is opts.HotAlphaTarget; afterwards it returns to zero.
func New(sim *force.Simulation) *Controller {
	return NewWith(sim, sim.Options().HotAlphaTarget, 0)
}

// NewWith returns a controller over any Simulation with explicit hot and
// baseline alpha targets.
func NewWith(sim Simulation, hot, baseline float64) *Controller {
	return &Controller{
		sim:      sim,
		hot:      hot,
		baseline: baseline,
		sessions: make(map[PointerID]*DragSession),
		byNode:   make(map[string]PointerID),
	}
}

// OnNodeSelected registers the observer raised when a drag starts.
func (c *Controller) OnNodeSelected(fn func(id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSelected = fn
}

// OnNodeReleased registers the observer raised when a drag ends.
func (c *Controller) OnNodeReleased(fn func(id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRelease = fn
}

// HitTest returns the node under (x, y).
func (c *Controller) HitTest(x, y float64) (string, bool) {
	return c.sim.Find(x, y)
}

// PointerDown starts a drag if (x, y) is over an idle node and pointer p is
// not already dragging. It returns the node taken. Pressing on a node that
// another pointer holds does nothing.
func (c *Controller) PointerDown(p PointerID, x, y float64) (string, bool) {
	c.mu.Lock()
	if _, busy := c.sessions[p]; busy {
		c.mu.Unlock()
		return "", false
	}
	id, ok := c.sim.Find(x, y)
	if !ok {
		c.mu.Unlock()
		return "", false
	}
	if _, taken := c.byNode[id]; taken {
		c.mu.Unlock()
		debug.Log("interact: pointer %d ignored, %s already dragging", p, id)
		return "", false
	}
	n, _ := c.sim.Node(id)
	if _, _, ok := c.sim.Fix(id, x, y); !ok {
		c.mu.Unlock()
		return "", false
	}

	c.sessions[p] = &DragSession{
		Pointer: p,
		NodeID:  id,
		Offset:  r2.Sub(r2.Vec{X: x, Y: y}, r2.Vec{X: n.X, Y: n.Y}),
		Hot:     true,
	}
	c.byNode[id] = p
	c.sim.SetAlphaTarget(c.hot)
	c.sim.Restart()
	fn := c.onSelected
	c.mu.Unlock()

	debug.Log("interact: pointer %d took %s", p, id)
	if fn != nil {
		fn(id)
	}
	return id, true
}

// PointerMove pins the node held by p at (x, y), clamped into the canvas.
// It reports whether p is dragging.
func (c *Controller) PointerMove(p PointerID, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[p]
	if !ok {
		return false
	}
	c.sim.Fix(s.NodeID, x, y)
	c.sim.Restart()
	return true
}

// PointerUp ends the drag of p and frees its node. It reports whether p was
// dragging.
func (c *Controller) PointerUp(p PointerID) bool {
	c.mu.Lock()
	s, ok := c.sessions[p]
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.release(s)
	fn := c.onRelease
	c.mu.Unlock()

	debug.Log("interact: pointer %d released %s", p, s.NodeID)
	if fn != nil {
		fn(s.NodeID)
	}
	return true
}

// release must be called with c.mu held.
func (c *Controller) release(s *DragSession) {
	c.sim.Unfix(s.NodeID)
	delete(c.sessions, s.Pointer)
	delete(c.byNode, s.NodeID)
	if len(c.sessions) == 0 {
		c.sim.SetAlphaTarget(c.baseline)
	}
}

// State returns the drag state of a node.
func (c *Controller) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byNode[id]; ok {
		return Dragging
	}
	return Idle
}

// Session returns the drag held by pointer p.
func (c *Controller) Session(p PointerID) (DragSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[p]
	if !ok {
		return DragSession{}, false
	}
	return *s, true
}

// Sessions returns the active drags ordered by pointer.
func (c *Controller) Sessions() []DragSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DragSession, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pointer < out[j].Pointer })
	return out
}

// Active reports whether any drag is in progress.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions) > 0
}

// Reset releases every drag, as when the view unmounts.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		c.release(s)
	}
}
