package scale

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestRadiusOf_Example(t *testing.T) {
	r := Range{Min: 3, Max: 30}
	big := RadiusOf(5, 0, 5, r)
	small := RadiusOf(1, 0, 5, r)
	if !(big > small) {
		t.Errorf("radiusOf(5)=%v should exceed radiusOf(1)=%v", big, small)
	}
	if big != 30 {
		t.Errorf("max count should map to max radius, got %v", big)
	}
	// area, not radius, is linear: sqrt(1/5) of the span
	want := 3 + math.Sqrt(0.2)*27
	if math.Abs(small-want) > 1e-9 {
		t.Errorf("radiusOf(1) = %v, want %v", small, want)
	}
}

func TestRadiusOf_Degenerate(t *testing.T) {
	r := Range{Min: 3, Max: 20}
	if got := RadiusOf(0, 0, 0, r); got != 3 {
		t.Errorf("zero count should map to min radius, got %v", got)
	}
	if got := RadiusOf(7, 7, 7, r); got != r.Mid() {
		t.Errorf("single-value domain should map to midpoint, got %v", got)
	}
	if got := RadiusOf(-3, 0, 10, r); got != 3 {
		t.Errorf("negative count should map to min radius, got %v", got)
	}
	if got := RadiusOf(50, 0, 10, r); got != 20 {
		t.Errorf("count above domain should clamp to max, got %v", got)
	}
}

func TestRadiusOf_MonotonicAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.Float64Range(0.5, 10).Draw(t, "lo")
		hi := lo + rapid.Float64Range(0, 50).Draw(t, "span")
		r := Range{Min: lo, Max: hi}
		maxCount := rapid.IntRange(0, 10000).Draw(t, "max")
		a := rapid.IntRange(0, maxCount+10).Draw(t, "a")
		b := rapid.IntRange(a, maxCount+20).Draw(t, "b")

		ra := RadiusOf(a, 0, maxCount, r)
		rb := RadiusOf(b, 0, maxCount, r)
		if math.IsNaN(ra) || math.IsNaN(rb) {
			t.Fatalf("NaN radius for a=%d b=%d max=%d", a, b, maxCount)
		}
		if ra > rb {
			t.Fatalf("not monotonic: r(%d)=%v > r(%d)=%v", a, ra, b, rb)
		}
		for _, v := range []float64{ra, rb} {
			if v < r.Min || v > r.Max {
				t.Fatalf("radius %v outside [%v, %v]", v, r.Min, r.Max)
			}
		}
	})
}

func TestRadiusScale(t *testing.T) {
	s := NewRadius(0, 100, DefaultRadius)
	if s.Of(0) != DefaultRadius.Min || s.Of(100) != DefaultRadius.Max {
		t.Errorf("scale endpoints wrong: %v %v", s.Of(0), s.Of(100))
	}
}

func TestOpacityOf(t *testing.T) {
	if got := OpacityOf(3, 3, 0.4); math.Abs(got-1) > 1e-12 {
		t.Errorf("max total should be fully opaque, got %v", got)
	}
	if got := OpacityOf(0, 3, 0.4); got != 0.4 {
		t.Errorf("zero total should map to floor, got %v", got)
	}
	if got := OpacityOf(5, 0, 0.4); got != 0.4 {
		t.Errorf("degenerate max should map to floor, got %v", got)
	}
	if got := OpacityOf(1, 2, 0.4); math.Abs(got-0.7) > 1e-12 {
		t.Errorf("half total should be 0.7, got %v", got)
	}

	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(0, 500).Draw(t, "max")
		total := rapid.IntRange(0, 600).Draw(t, "total")
		floor := rapid.Float64Range(0.01, 0.99).Draw(t, "floor")
		got := OpacityOf(total, max, floor)
		if got < floor || got > 1 {
			t.Fatalf("opacity %v outside [%v, 1]", got, floor)
		}
	})
}

func TestPalette_PureAndDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		domain := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,8}`), func(s string) string { return s }).Draw(t, "domain")
		p := NewPalette(domain, Set3)

		seen := make(map[string]string)
		for _, c := range domain {
			first := p.ColorOf(c)
			if again := p.ColorOf(c); again != first {
				t.Fatalf("ColorOf(%q) not stable: %s vs %s", c, first, again)
			}
			if len(seen) < p.Size() {
				if other, dup := seen[first]; dup {
					t.Fatalf("%q and %q share %s within palette size", c, other, first)
				}
			}
			seen[first] = c
		}
	})
}

func TestPalette_IndependentOfIterationOrder(t *testing.T) {
	domain := []string{"java", "python", "go"}
	a := NewPalette(domain, nil)
	b := NewPalette(domain, nil)
	for _, c := range []string{"go", "java", "python"} {
		if a.ColorOf(c) != b.ColorOf(c) {
			t.Errorf("palettes built from the same domain disagree on %q", c)
		}
	}
	if a.ColorOf("java") != Set3[0] || a.ColorOf("go") != Set3[2] {
		t.Errorf("domain order should decide slots")
	}
	if a.ColorOf("unknown") != b.ColorOf("unknown") {
		t.Errorf("unknown categories must still be deterministic")
	}
}

func TestPalette_DuplicateDomainEntries(t *testing.T) {
	p := NewPalette([]string{"a", "b", "a"}, []string{"#000000", "#ffffff"})
	if got := p.Domain(); len(got) != 2 {
		t.Errorf("duplicates should be dropped, got %v", got)
	}
}

func TestBlend(t *testing.T) {
	if got := Blend("#ff0000", "#000000", 1); got != "#ff0000" {
		t.Errorf("full opacity should return color, got %s", got)
	}
	if got := Blend("#ff0000", "#000000", 0); got != "#000000" {
		t.Errorf("zero opacity should return background, got %s", got)
	}
	if got := Blend("not-a-color", "#000000", 0.5); got != "not-a-color" {
		t.Errorf("bad input should pass through, got %s", got)
	}
}
