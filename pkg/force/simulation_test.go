package force

import (
	"context"
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/commitspread/pkg/aggregate"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

func exampleTotals() aggregate.Totals {
	return aggregate.Aggregate([]model.Record{
		{Date: "2024-01-01", Total: 3, Counts: model.CategoryCounts{{Category: "java", Count: 3}}},
		{Date: "2024-01-02", Total: 3, Counts: model.CategoryCounts{{Category: "python", Count: 1}, {Category: "java", Count: 2}}},
	})
}

func assertContained(t interface {
	Helper()
	Fatalf(string, ...any)
}, nodes []model.NodeDescriptor, o Options) {
	t.Helper()
	const tol = 1e-9
	for _, n := range nodes {
		lo := n.Radius + o.Margin
		if n.X < lo-tol || n.X > o.Width-lo+tol || n.Y < lo-tol || n.Y > o.Height-lo+tol {
			t.Fatalf("node %s at (%v,%v) r=%v escapes %vx%v", n.ID, n.X, n.Y, n.Radius, o.Width, o.Height)
		}
	}
}

func TestFromTotals(t *testing.T) {
	opts := DefaultOptions()
	opts.Icons = map[string]string{"java": "coffee"}
	totals := exampleTotals()
	nodes := FromTotals(totals, scale.NewPalette(totals.Order, nil), opts)
	if len(nodes) != 2 || nodes[0].ID != "java" || nodes[1].ID != "python" {
		t.Fatalf("nodes = %+v", nodes)
	}
	if nodes[0].Radius <= nodes[1].Radius {
		t.Errorf("java (5) should be larger than python (1): %v vs %v", nodes[0].Radius, nodes[1].Radius)
	}
	if nodes[0].Color != scale.Set3[0] || nodes[1].Color != scale.Set3[1] {
		t.Errorf("colors should follow first-seen order")
	}
	if nodes[0].Icon != "coffee" || nodes[1].Icon != "" {
		t.Errorf("icons = %q %q", nodes[0].Icon, nodes[1].Icon)
	}
	if FromTotals(aggregate.Totals{}, nil, opts) != nil {
		t.Errorf("empty totals should produce no nodes")
	}
}

func TestSimulation_EmptyIsIdle(t *testing.T) {
	s := New(nil, DefaultOptions())
	if s.Running() || s.Tick() {
		t.Fatal("empty simulation must not tick")
	}
	if n := s.RunUntilIdle(100); n != 0 {
		t.Errorf("RunUntilIdle ran %d ticks", n)
	}
	if f := s.Frame(); len(f.Nodes) != 0 || f.Tick != 0 {
		t.Errorf("frame = %+v", f)
	}
	ticks := make(chan time.Time)
	if err := s.Run(context.Background(), ticks, make(chan Frame)); err != nil {
		t.Errorf("Run on empty simulation: %v", err)
	}
	s.Restart()
	if s.Running() {
		t.Errorf("restart must not wake an empty simulation")
	}
}

func TestSimulation_SeedsDeterministically(t *testing.T) {
	nodes := FromTotals(exampleTotals(), nil, DefaultOptions())
	a := New(nodes, DefaultOptions()).Nodes()
	b := New(nodes, DefaultOptions()).Nodes()
	for i := range a {
		if a[i].X != b[i].X || a[i].Y != b[i].Y {
			t.Fatalf("seed positions differ for %s", a[i].ID)
		}
		if !a[i].Finite() {
			t.Fatalf("seed position not finite")
		}
	}
	if a[0].X == a[1].X && a[0].Y == a[1].Y {
		t.Errorf("nodes seeded on top of each other")
	}
}

func TestSimulation_ContainmentAfterEveryTick(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		opts := DefaultOptions()
		n := rapid.IntRange(1, 25).Draw(t, "n")
		nodes := make([]model.Node, n)
		for i := range nodes {
			nodes[i] = model.Node{
				ID:     string(rune('a' + i)),
				Radius: rapid.Float64Range(opts.Radius.Min, opts.Radius.Max).Draw(t, "r"),
				X:      rapid.Float64Range(-200, 600).Draw(t, "x"),
				Y:      rapid.Float64Range(-200, 600).Draw(t, "y"),
			}
			if rapid.Bool().Draw(t, "nan") {
				nodes[i].X = math.NaN()
			}
		}
		s := New(nodes, opts)
		assertContained(t, s.Frame().Nodes, opts)

		if rapid.Bool().Draw(t, "drag") {
			s.SetAlphaTarget(opts.HotAlphaTarget)
			s.Fix(nodes[0].ID, rapid.Float64Range(-500, 900).Draw(t, "fx"), rapid.Float64Range(-500, 900).Draw(t, "fy"))
		}

		cancel := s.Subscribe(func(f Frame) { assertContained(t, f.Nodes, opts) })
		defer cancel()
		s.RunUntilIdle(rapid.IntRange(0, 120).Draw(t, "ticks"))
	})
}

func TestSimulation_SettlesWithoutOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		opts := DefaultOptions()
		k := rapid.IntRange(1, 15).Draw(t, "categories")
		var records []model.Record
		for i := 0; i < k; i++ {
			count := rapid.IntRange(0, 500).Draw(t, "count")
			records = append(records, model.Record{
				Date:   "d",
				Total:  count,
				Counts: model.CategoryCounts{{Category: string(rune('a' + i)), Count: count}},
			})
		}
		totals := aggregate.Aggregate(records)
		s := New(FromTotals(totals, nil, opts), opts)

		s.RunUntilIdle(5000)
		if s.Running() {
			t.Fatalf("simulation did not settle, alpha=%v", s.Alpha())
		}
		nodes := s.Nodes()
		for i := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				d := math.Hypot(nodes[i].X-nodes[j].X, nodes[i].Y-nodes[j].Y)
				if d < nodes[i].Radius+nodes[j].Radius-1e-6 {
					t.Fatalf("%s and %s overlap after settling: %v", nodes[i].ID, nodes[j].ID, d)
				}
			}
		}
		assertContained(t, s.Frame().Nodes, opts)
	})
}

func TestSimulation_CoolsInAboutThreeHundredTicks(t *testing.T) {
	s := New(FromTotals(exampleTotals(), nil, DefaultOptions()), DefaultOptions())
	n := s.RunUntilIdle(10000)
	if n < 250 || n > 350 {
		t.Errorf("settled after %d ticks, want about 300", n)
	}
	if s.Tick() {
		t.Errorf("idle simulation should not tick")
	}
}

func TestSimulation_HotTargetKeepsRunning(t *testing.T) {
	opts := DefaultOptions()
	s := New(FromTotals(exampleTotals(), nil, opts), opts)
	s.SetAlphaTarget(opts.HotAlphaTarget)
	if n := s.RunUntilIdle(1000); n != 1000 || !s.Running() {
		t.Fatalf("hot simulation stopped after %d ticks", n)
	}
	if math.Abs(s.Alpha()-opts.HotAlphaTarget) > 0.01 {
		t.Errorf("alpha should approach the target, got %v", s.Alpha())
	}
	s.SetAlphaTarget(0)
	s.RunUntilIdle(1000)
	if s.Running() {
		t.Errorf("simulation should settle once the target drops")
	}
}

func TestSimulation_FixAndUnfix(t *testing.T) {
	opts := DefaultOptions()
	s := New(FromTotals(exampleTotals(), nil, opts), opts)

	x, y, ok := s.Fix("python", 50, 60)
	if !ok || x != 50 || y != 60 {
		t.Fatalf("Fix = %v,%v,%v", x, y, ok)
	}
	for i := 0; i < 20; i++ {
		s.Tick()
		n, _ := s.Node("python")
		if n.X != 50 || n.Y != 60 {
			t.Fatalf("tick %d: fixed node drifted to (%v,%v)", i, n.X, n.Y)
		}
	}
	if f := s.Frame(); !f.Nodes[1].Fixed {
		t.Errorf("frame should mark the node fixed")
	}

	if !s.Unfix("python") {
		t.Fatal("Unfix failed")
	}
	if n, _ := s.Node("python"); n.Fixed() {
		t.Errorf("node still fixed after Unfix")
	}
	if _, _, ok := s.Fix("missing", 1, 1); ok {
		t.Errorf("fixing an unknown node should fail")
	}
	if _, _, ok := s.Fix("java", math.NaN(), 1); ok {
		t.Errorf("fixing at NaN should fail")
	}
}

func TestSimulation_FixClampsToBounds(t *testing.T) {
	opts := DefaultOptions()
	s := New(FromTotals(exampleTotals(), nil, opts), opts)
	n, _ := s.Node("java")
	x, y, _ := s.Fix("java", -100, 10000)
	if x != n.Radius+opts.Margin || y != opts.Height-n.Radius-opts.Margin {
		t.Errorf("Fix = (%v,%v)", x, y)
	}
}

func TestSimulation_Find(t *testing.T) {
	opts := DefaultOptions()
	s := New(FromTotals(exampleTotals(), nil, opts), opts)
	s.Fix("java", 100, 100)
	s.Fix("python", 300, 200)
	if id, ok := s.Find(101, 99); !ok || id != "java" {
		t.Errorf("Find = %q,%v", id, ok)
	}
	if _, ok := s.Find(200, 10); ok {
		t.Errorf("empty space should hit nothing")
	}
}

func TestSimulation_SubscribeAndCancel(t *testing.T) {
	s := New(FromTotals(exampleTotals(), nil, DefaultOptions()), DefaultOptions())
	var got []int
	cancel := s.Subscribe(func(f Frame) { got = append(got, f.Tick) })
	s.Tick()
	s.Tick()
	cancel()
	s.Tick()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("frames = %v", got)
	}
}

func TestSimulation_RunSendsFramesUntilTicksClose(t *testing.T) {
	s := New(FromTotals(exampleTotals(), nil, DefaultOptions()), DefaultOptions())
	ticks := make(chan time.Time, 3)
	for i := 0; i < 3; i++ {
		ticks <- time.Now()
	}
	close(ticks)
	out := make(chan Frame, 3)
	if err := s.Run(context.Background(), ticks, out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)
	var n int
	for f := range out {
		n++
		if f.Tick != n {
			t.Errorf("frame %d has tick %d", n, f.Tick)
		}
	}
	if n != 3 {
		t.Errorf("got %d frames, want 3", n)
	}
}

func TestSimulation_RunStopsOnCancel(t *testing.T) {
	s := New(FromTotals(exampleTotals(), nil, DefaultOptions()), DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Run(ctx, make(chan time.Time), make(chan Frame))
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSimulation_RunStopsWhenSettled(t *testing.T) {
	opts := DefaultOptions()
	opts.AlphaDecay = 0.9
	s := New(FromTotals(exampleTotals(), nil, opts), opts)
	ticks := make(chan time.Time)
	go func() {
		for {
			select {
			case ticks <- time.Now():
			case <-time.After(time.Second):
				return
			}
		}
	}()
	out := make(chan Frame, 100)
	if err := s.Run(context.Background(), ticks, out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Running() {
		t.Errorf("Run returned before settling")
	}
	close(out)
	var last Frame
	for f := range out {
		last = f
	}
	if last.Running {
		t.Errorf("last frame should report idle")
	}
}

func TestSimulation_CloseDiscardsState(t *testing.T) {
	s := New(FromTotals(exampleTotals(), nil, DefaultOptions()), DefaultOptions())
	called := false
	s.Subscribe(func(Frame) { called = true })
	s.Close()
	s.Restart()
	if s.Tick() || called || s.Len() != 0 {
		t.Errorf("closed simulation should be inert")
	}
}

func TestSimulation_Resize(t *testing.T) {
	opts := DefaultOptions()
	s := New(FromTotals(exampleTotals(), nil, opts), opts)
	s.RunUntilIdle(1000)
	s.Resize(120, 80)
	if !s.Running() {
		t.Fatal("resize should reheat")
	}
	small := s.Options()
	cancel := s.Subscribe(func(f Frame) { assertContained(t, f.Nodes, small) })
	defer cancel()
	s.RunUntilIdle(50)
}

func TestOptions_Validate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	o := DefaultOptions()
	o.CollideStrength = 1.5
	if err := o.Validate(); err == nil {
		t.Errorf("collide strength above 1 should be rejected")
	}
	o = DefaultOptions()
	o.AlphaDecay = 0
	if err := o.Validate(); err == nil {
		t.Errorf("zero alpha decay never settles and should be rejected")
	}
}
