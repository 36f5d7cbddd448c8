package force

import (
	"math"
	"testing"

	"github.com/vanderheijden86/commitspread/pkg/model"
)

func params() StepParams {
	o := DefaultOptions()
	return StepParams{Alpha: 1, VelocityDecay: o.VelocityDecay, Width: o.Width, Height: o.Height, Margin: o.Margin}
}

func ptr(v float64) *float64 { return &v }

func TestStep_DoesNotMutateInput(t *testing.T) {
	in := []model.Node{
		{ID: "a", Radius: 5, X: 100, Y: 100},
		{ID: "b", Radius: 5, X: 104, Y: 100},
	}
	forces := []Force{ManyBody{Strength: -5, DistanceMin: 1}, Collide{Padding: 1, Strength: 0.7, Iterations: 2}}
	out := Step(in, forces, params())
	if in[0].X != 100 || in[1].X != 104 || in[0].Vx != 0 {
		t.Errorf("input mutated: %+v", in)
	}
	if out[0].X >= in[0].X || out[1].X <= in[1].X {
		t.Errorf("overlapping nodes should move apart: %v -> %v, %v -> %v", in[0].X, out[0].X, in[1].X, out[1].X)
	}
}

func TestStep_Empty(t *testing.T) {
	if out := Step(nil, DefaultOptions().forces(), params()); len(out) != 0 {
		t.Errorf("empty step returned %d nodes", len(out))
	}
}

func TestStep_NonFiniteResetToCenter(t *testing.T) {
	p := params()
	in := []model.Node{
		{ID: "nan", Radius: 4, X: math.NaN(), Y: 10},
		{ID: "inf", Radius: 4, X: 10, Y: math.Inf(1)},
		{ID: "vel", Radius: 4, X: 50, Y: 50, Vx: math.NaN()},
	}
	out := Step(in, nil, p)
	for _, n := range out {
		if !n.Finite() || math.IsNaN(n.Vx) {
			t.Fatalf("node %s still not finite: %+v", n.ID, n)
		}
	}
	if out[0].X != p.Width/2 || out[0].Y != p.Height/2 {
		t.Errorf("NaN node should sit at center, got (%v,%v)", out[0].X, out[0].Y)
	}
	if out[2].X != p.Width/2 {
		t.Errorf("NaN velocity should reset to center, got %v", out[2].X)
	}
}

func TestStep_FixedNodeHeldButStillPushes(t *testing.T) {
	in := []model.Node{
		{ID: "held", Radius: 10, X: 0, Y: 0, Fx: ptr(200), Fy: ptr(160)},
		{ID: "free", Radius: 10, X: 205, Y: 160},
	}
	out := Step(in, []Force{Collide{Padding: 1, Strength: 0.7, Iterations: 2}}, params())
	if out[0].X != 200 || out[0].Y != 160 {
		t.Errorf("fixed node at (%v,%v), want (200,160)", out[0].X, out[0].Y)
	}
	if out[0].Vx != 0 || out[0].Vy != 0 {
		t.Errorf("fixed node must not carry velocity")
	}
	if out[1].X <= 205 {
		t.Errorf("free node should be pushed away from the fixed one, got x=%v", out[1].X)
	}
}

func TestStep_ClampStopsMotion(t *testing.T) {
	p := params()
	in := []model.Node{{ID: "a", Radius: 10, X: 395, Y: 160, Vx: 50, Vy: 1}}
	out := Step(in, nil, p)
	want := p.Width - 10 - p.Margin
	if out[0].X != want {
		t.Errorf("x = %v, want %v", out[0].X, want)
	}
	if out[0].Vx != 0 {
		t.Errorf("velocity along the clamped axis should be zero, got %v", out[0].Vx)
	}
	if out[0].Vy == 0 {
		t.Errorf("velocity along the free axis should survive")
	}
}

func TestClamp(t *testing.T) {
	x, y := Clamp(-5, 1000, 10, 400, 320, 1)
	if x != 11 || y != 309 {
		t.Errorf("Clamp = (%v,%v), want (11,309)", x, y)
	}
	x, _ = Clamp(50, 50, 300, 400, 320, 1)
	if x != 200 {
		t.Errorf("oversized node should be centered, got %v", x)
	}
}

func TestManyBody_Repels(t *testing.T) {
	nodes := []model.Node{{ID: "a", X: 100, Y: 100}, {ID: "b", X: 110, Y: 100}}
	ManyBody{Strength: -30, DistanceMin: 1}.Apply(nodes, 1)
	if nodes[0].Vx >= 0 || nodes[1].Vx <= 0 {
		t.Errorf("negative strength should push apart: %v %v", nodes[0].Vx, nodes[1].Vx)
	}
}

func TestManyBody_CoincidentNodesSeparate(t *testing.T) {
	nodes := []model.Node{{ID: "a", X: 50, Y: 50}, {ID: "b", X: 50, Y: 50}}
	ManyBody{Strength: -30, DistanceMin: 1}.Apply(nodes, 1)
	for _, n := range nodes {
		if math.IsNaN(n.Vx) || math.IsInf(n.Vx, 0) {
			t.Fatalf("velocity not finite: %+v", n)
		}
	}
	if nodes[0].Vx == nodes[1].Vx && nodes[0].Vy == nodes[1].Vy {
		t.Errorf("coincident nodes should be pushed in different directions")
	}
}

func TestManyBody_ParallelMatchesSerial(t *testing.T) {
	b := bounds{width: 2000, height: 2000, margin: 1}
	build := func() []model.Node {
		nodes := make([]model.Node, 300)
		for i := range nodes {
			nodes[i].X, nodes[i].Y = spiral(i, b)
		}
		return nodes
	}
	serial, parallel := build(), build()
	ManyBody{Strength: -5, DistanceMin: 1}.Apply(serial, 0.5)
	ManyBody{Strength: -5, DistanceMin: 1, ParallelThreshold: 1}.Apply(parallel, 0.5)
	for i := range serial {
		if serial[i].Vx != parallel[i].Vx || serial[i].Vy != parallel[i].Vy {
			t.Fatalf("node %d differs: %v,%v vs %v,%v", i, serial[i].Vx, serial[i].Vy, parallel[i].Vx, parallel[i].Vy)
		}
	}
}

func TestCenter_MovesCentroid(t *testing.T) {
	nodes := []model.Node{{X: 0, Y: 0}, {X: 10, Y: 20}}
	Center{X: 100, Y: 100, Strength: 1}.Apply(nodes, 1)
	cx := (nodes[0].X + nodes[1].X) / 2
	cy := (nodes[0].Y + nodes[1].Y) / 2
	if cx != 100 || cy != 100 {
		t.Errorf("centroid = (%v,%v), want (100,100)", cx, cy)
	}
	if nodes[1].X-nodes[0].X != 10 {
		t.Errorf("centering must not change relative positions")
	}
}

func TestJiggle_Antisymmetric(t *testing.T) {
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			if i == j {
				continue
			}
			if jiggle(i, j) != -jiggle(j, i) || jiggle(i, j) == 0 {
				t.Fatalf("jiggle(%d,%d)=%v jiggle(%d,%d)=%v", i, j, jiggle(i, j), j, i, jiggle(j, i))
			}
		}
	}
}

func TestRelax_RemovesOverlap(t *testing.T) {
	b := bounds{width: 400, height: 320, margin: 1}
	nodes := []model.Node{
		{ID: "a", Radius: 10, X: 200, Y: 160},
		{ID: "b", Radius: 10, X: 200, Y: 160},
		{ID: "c", Radius: 10, X: 205, Y: 162},
	}
	relax(nodes, 1, b, 200)
	assertNoOverlap(t, nodes, 1e-6)
}

func assertNoOverlap(t *testing.T, nodes []model.Node, tol float64) {
	t.Helper()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			a, c := nodes[i], nodes[j]
			d := math.Hypot(a.X-c.X, a.Y-c.Y)
			if d < a.Radius+c.Radius-tol {
				t.Fatalf("%s and %s overlap: distance %v < %v", a.ID, c.ID, d, a.Radius+c.Radius)
			}
		}
	}
}
