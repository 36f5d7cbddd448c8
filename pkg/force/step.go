package force

import (
	"math"

	"github.com/vanderheijden86/commitspread/pkg/model"
)

// StepParams is everything one tick needs besides the nodes and forces.
type StepParams struct {
	Alpha         float64
	VelocityDecay float64
	Width         float64
	Height        float64
	Margin        float64
}

func (p StepParams) bounds() bounds {
	return bounds{width: p.Width, height: p.Height, margin: p.Margin}
}

// Step advances a copy of nodes by one tick and returns it.
//
// Fixed nodes are held at (Fx, Fy) and skip integration but still take part
// in every force. A node whose position is not finite is reset to the canvas
// center. Every node ends the tick inside the canvas, inset by its radius and
// the margin.
func Step(nodes []model.Node, forces []Force, p StepParams) []model.Node {
	out := make([]model.Node, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}
	b := p.bounds()

	for i := range out {
		n := &out[i]
		if n.Fixed() {
			n.X, n.Y = *n.Fx, *n.Fy
			n.Vx, n.Vy = 0, 0
		}
		b.sanitize(n)
	}

	for _, f := range forces {
		f.Apply(out, p.Alpha)
	}

	keep := 1 - p.VelocityDecay
	for i := range out {
		n := &out[i]
		if n.Fixed() {
			n.X, n.Y = *n.Fx, *n.Fy
			n.Vx, n.Vy = 0, 0
		} else {
			n.Vx *= keep
			n.Vy *= keep
			n.X += n.Vx
			n.Y += n.Vy
		}
		b.sanitize(n)
		b.clamp(n)
	}
	return out
}

// bounds is the containment box of a canvas.
type bounds struct {
	width, height, margin float64
}

func (b bounds) center() (float64, float64) {
	return b.width / 2, b.height / 2
}

// sanitize resets a node with a non-finite position or velocity to the
// canvas center at rest.
func (b bounds) sanitize(n *model.Node) {
	if n.Finite() && isFinite(n.Vx) && isFinite(n.Vy) {
		return
	}
	n.X, n.Y = b.center()
	n.Vx, n.Vy = 0, 0
}

// clamp keeps a node inside [r+margin, size-r-margin] on both axes and stops
// its motion along an axis it hit. A node too large for an axis is centered.
func (b bounds) clamp(n *model.Node) {
	n.X, n.Vx = clampAxis(n.X, n.Vx, n.Radius+b.margin, b.width-n.Radius-b.margin)
	n.Y, n.Vy = clampAxis(n.Y, n.Vy, n.Radius+b.margin, b.height-n.Radius-b.margin)
}

func clampAxis(x, v, lo, hi float64) (float64, float64) {
	switch {
	case lo > hi:
		return (lo + hi) / 2, 0
	case x < lo:
		return lo, 0
	case x > hi:
		return hi, 0
	}
	return x, v
}

// Clamp returns (x, y) moved inside the containment box of a node of the
// given radius.
func Clamp(x, y, radius, width, height, margin float64) (float64, float64) {
	n := model.Node{X: x, Y: y, Radius: radius}
	bounds{width: width, height: height, margin: margin}.clamp(&n)
	return n.X, n.Y
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
