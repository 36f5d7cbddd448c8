package force

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/commitspread/pkg/model"
)

// Force adjusts node velocities, or positions for purely geometric forces,
// for one tick at the given energy level.
type Force interface {
	Apply(nodes []model.Node, alpha float64)
}

// ManyBody is inverse-square repulsion between every pair of nodes.
// A negative Strength repels.
type ManyBody struct {
	Strength    float64
	DistanceMin float64

	// ParallelThreshold is the node count at which the pair sums are split
	// across goroutines. Zero keeps the computation on the calling goroutine.
	ParallelThreshold int
}

// Apply accumulates the repulsion of every node into its velocity.
func (f ManyBody) Apply(nodes []model.Node, alpha float64) {
	n := len(nodes)
	if n < 2 || f.Strength == 0 {
		return
	}
	dv := make([]r2.Vec, n)
	sum := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dv[i] = f.accumulate(nodes, i, alpha)
		}
	}

	if f.ParallelThreshold > 0 && n >= f.ParallelThreshold {
		workers := runtime.GOMAXPROCS(0)
		chunk := (n + workers - 1) / workers
		var g errgroup.Group
		for lo := 0; lo < n; lo += chunk {
			hi := min(lo+chunk, n)
			g.Go(func() error {
				sum(lo, hi)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		sum(0, n)
	}

	for i := range nodes {
		nodes[i].Vx += dv[i].X
		nodes[i].Vy += dv[i].Y
	}
}

// accumulate reads positions only, so goroutines may run it for disjoint i.
func (f ManyBody) accumulate(nodes []model.Node, i int, alpha float64) r2.Vec {
	dmin2 := f.DistanceMin * f.DistanceMin
	pi := r2.Vec{X: nodes[i].X, Y: nodes[i].Y}
	var acc r2.Vec
	for j := range nodes {
		if j == i {
			continue
		}
		d := r2.Sub(r2.Vec{X: nodes[j].X, Y: nodes[j].Y}, pi)
		if d.X == 0 {
			d.X = jiggle(i, j)
		}
		if d.Y == 0 {
			d.Y = jiggle(j, i)
		}
		l := r2.Norm2(d)
		if l < dmin2 {
			l = math.Sqrt(dmin2 * l)
		}
		acc = r2.Add(acc, r2.Scale(f.Strength*alpha/l, d))
	}
	return acc
}

// Center shifts all nodes so that their centroid moves toward (X, Y).
// Strength 1 moves it all the way each tick.
type Center struct {
	X, Y     float64
	Strength float64
}

// Apply translates node positions.
func (f Center) Apply(nodes []model.Node, _ float64) {
	if len(nodes) == 0 {
		return
	}
	var c r2.Vec
	for _, n := range nodes {
		c = r2.Add(c, r2.Vec{X: n.X, Y: n.Y})
	}
	c = r2.Scale(1/float64(len(nodes)), c)
	shift := r2.Scale(f.Strength, r2.Sub(r2.Vec{X: f.X, Y: f.Y}, c))
	for i := range nodes {
		nodes[i].X += shift.X
		nodes[i].Y += shift.Y
	}
}

// Collide pushes apart any two nodes closer than the sum of their radii plus
// Padding. Strength below 1 spreads the correction over several ticks.
type Collide struct {
	Padding    float64
	Strength   float64
	Iterations int
}

// Apply resolves overlaps against the positions the nodes are about to
// reach, splitting each correction by radius. A fixed node takes no share.
func (f Collide) Apply(nodes []model.Node, _ float64) {
	iterations := max(f.Iterations, 1)
	for k := 0; k < iterations; k++ {
		for i := range nodes {
			a := &nodes[i]
			pa := r2.Vec{X: a.X + a.Vx, Y: a.Y + a.Vy}
			for j := i + 1; j < len(nodes); j++ {
				b := &nodes[j]
				if a.Fixed() && b.Fixed() {
					continue
				}
				r := a.Radius + b.Radius + f.Padding
				d := r2.Sub(pa, r2.Vec{X: b.X + b.Vx, Y: b.Y + b.Vy})
				l := r2.Norm2(d)
				if l >= r*r {
					continue
				}
				if d.X == 0 {
					d.X = jiggle(i, j)
					l += d.X * d.X
				}
				if d.Y == 0 {
					d.Y = jiggle(j, i)
					l += d.Y * d.Y
				}
				l = math.Sqrt(l)
				push := r2.Scale((r-l)/l*f.Strength, d)

				wa, wb := shares(a, b)
				a.Vx += push.X * wa
				a.Vy += push.Y * wa
				b.Vx -= push.X * wb
				b.Vy -= push.Y * wb
				pa = r2.Vec{X: a.X + a.Vx, Y: a.Y + a.Vy}
			}
		}
	}
}

// shares splits a correction between a and b: the smaller node moves more,
// and a fixed node does not move at all.
func shares(a, b *model.Node) (wa, wb float64) {
	switch {
	case a.Fixed():
		return 0, 1
	case b.Fixed():
		return 1, 0
	}
	ra, rb := a.Radius*a.Radius, b.Radius*b.Radius
	if ra+rb == 0 {
		return 0.5, 0.5
	}
	wa = rb / (ra + rb)
	return wa, 1 - wa
}

// jiggle separates coincident nodes deterministically. jiggle(i, j) is the
// negation of jiggle(j, i), so a pair always moves apart.
func jiggle(i, j int) float64 {
	lo, hi := min(i, j), max(i, j)
	v := float64((lo*31+hi)%7+1) * 1e-6
	if i < j {
		return -v
	}
	return v
}

// relax moves overlapping nodes apart by position until every pair keeps
// its distance or the pass budget runs out. Positions stay inside bounds.
func relax(nodes []model.Node, padding float64, b bounds, passes int) {
	for pass := 0; pass < passes; pass++ {
		moved := false
		for i := range nodes {
			a := &nodes[i]
			for j := i + 1; j < len(nodes); j++ {
				c := &nodes[j]
				if a.Fixed() && c.Fixed() {
					continue
				}
				want := a.Radius + c.Radius + padding
				d := r2.Vec{X: c.X - a.X, Y: c.Y - a.Y}
				l := r2.Norm(d)
				if l >= want {
					continue
				}
				if l == 0 {
					d = r2.Vec{X: jiggle(j, i), Y: jiggle(i, j)}
					l = r2.Norm(d)
				}
				u := r2.Scale((want-l)/l, d)
				wa, wc := shares(a, c)
				a.X -= u.X * wa
				a.Y -= u.Y * wa
				c.X += u.X * wc
				c.Y += u.Y * wc
				moved = true
			}
		}
		for i := range nodes {
			b.clamp(&nodes[i])
		}
		if !moved {
			return
		}
	}
}
