package grid

import (
	"fmt"
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

func rec(date string, total int, counts ...model.TopicCount) model.Record {
	return model.Record{Date: date, Counts: counts, Total: total}
}

func tc(c string, n int) model.TopicCount { return model.TopicCount{Category: c, Count: n} }

func TestLayout_Example(t *testing.T) {
	records := []model.Record{
		rec("2024-01-01", 3, tc("java", 3)),
		rec("2024-01-02", 3, tc("python", 1), tc("java", 2)),
	}
	palette := scale.NewPalette([]string{"java", "python"}, nil)
	res := Layout(records, palette, DefaultOptions())

	if len(res.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(res.Cells))
	}
	if c := res.Cells[0]; c.Row != 0 || c.Col != 0 {
		t.Errorf("record 0 at (%d,%d), want (0,0)", c.Row, c.Col)
	}
	if c := res.Cells[1]; c.Row != 1 || c.Col != 0 {
		t.Errorf("record 1 at (%d,%d), want (1,0)", c.Row, c.Col)
	}
	if res.Rects[0].Opacity != res.Rects[1].Opacity {
		t.Errorf("equal totals should give equal opacity: %v vs %v", res.Rects[0].Opacity, res.Rects[1].Opacity)
	}
	// first key wins, not the largest share
	if got := res.Cells[1].DominantCategory; got != "python" {
		t.Errorf("dominant category = %q, want python", got)
	}
	if res.Rects[1].Fill != palette.ColorOf("python") {
		t.Errorf("fill should follow the dominant category")
	}
	if res.Cols != 1 {
		t.Errorf("cols = %d, want 1", res.Cols)
	}
}

func TestLayout_Empty(t *testing.T) {
	res := Layout(nil, nil, DefaultOptions())
	if !res.Empty() || res.Cols != 0 {
		t.Errorf("empty input should place nothing: %+v", res)
	}
	if _, ok := res.Latest(); ok {
		t.Errorf("empty result has no latest cell")
	}
}

func TestLayout_SkipsEmptyRecordsKeepingGap(t *testing.T) {
	records := []model.Record{
		rec("d0", 1, tc("a", 1)),
		rec("d1", 0),
		rec("d2", 2, tc("b", 2)),
	}
	res := Layout(records, nil, DefaultOptions())
	if len(res.Cells) != 2 || res.Skipped != 1 {
		t.Fatalf("cells=%d skipped=%d, want 2 and 1", len(res.Cells), res.Skipped)
	}
	if res.Cells[1].Index != 2 || res.Cells[1].Row != 2 {
		t.Errorf("record after gap should keep index 2, got %+v", res.Cells[1])
	}
	if _, _, ok := res.Cell(1); ok {
		t.Errorf("skipped index must not resolve to a cell")
	}
}

func TestLayout_Geometry(t *testing.T) {
	var records []model.Record
	for i := 0; i < 15; i++ {
		records = append(records, rec(fmt.Sprintf("d%02d", i), i+1, tc("x", i+1)))
	}
	opts := DefaultOptions()
	res := Layout(records, nil, opts)

	if res.Cols != 3 {
		t.Fatalf("cols = %d, want 3", res.Cols)
	}
	step := opts.CellSize + opts.Padding
	if res.Width != 3*step-opts.Padding || res.Height != 7*step-opts.Padding {
		t.Errorf("size = %vx%v", res.Width, res.Height)
	}
	last := res.Rects[14]
	if last.X != 2*step || last.Y != 0 {
		t.Errorf("record 14 should start column 2, got (%v,%v)", last.X, last.Y)
	}
	if math.Abs(last.Opacity-1) > 1e-12 {
		t.Errorf("busiest day should be opaque, got %v", last.Opacity)
	}
	if idx, ok := res.CellAt(last.X+1, last.Y+1); !ok || idx != 14 {
		t.Errorf("CellAt = %d,%v, want 14", idx, ok)
	}
	if _, ok := res.CellAt(opts.CellSize+opts.Padding/2, 1); ok {
		t.Errorf("padding should not hit a cell")
	}
}

func TestLayout_Bijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(t, "n")
		rows := rapid.IntRange(1, 12).Draw(t, "rows")
		records := make([]model.Record, n)
		for i := range records {
			total := rapid.IntRange(0, 50).Draw(t, "total")
			records[i] = rec(fmt.Sprintf("d%d", i), total, tc("c", total))
		}
		opts := DefaultOptions()
		opts.Rows = rows
		res := Layout(records, nil, opts)

		if len(res.Cells) != n {
			t.Fatalf("placed %d of %d", len(res.Cells), n)
		}
		seen := make(map[[2]int]int)
		for i, c := range res.Cells {
			if c.Row != c.Index%rows || c.Col != c.Index/rows {
				t.Fatalf("index %d at (%d,%d)", c.Index, c.Row, c.Col)
			}
			if c.Row < 0 || c.Row >= rows {
				t.Fatalf("row %d outside [0,%d)", c.Row, rows)
			}
			key := [2]int{c.Row, c.Col}
			if other, dup := seen[key]; dup {
				t.Fatalf("records %d and %d share cell %v", other, c.Index, key)
			}
			seen[key] = c.Index
			for j := 0; j < i; j++ {
				if res.Rects[i].Overlaps(res.Rects[j]) {
					t.Fatalf("rects %d and %d overlap", i, j)
				}
			}
			if o := res.Rects[i].Opacity; o < opts.OpacityFloor || o > 1 {
				t.Fatalf("opacity %v out of range", o)
			}
		}
	})
}

func TestWindow(t *testing.T) {
	records := make([]model.Record, 100)
	for i := range records {
		records[i].Date = fmt.Sprintf("d%d", i)
	}
	w := Window(records, 70)
	if len(w) != 70 || w[0].Date != "d30" || w[69].Date != "d99" {
		t.Errorf("window wrong: len=%d first=%s", len(w), w[0].Date)
	}
	if len(Window(records, 0)) != 100 || len(Window(records[:5], 70)) != 5 {
		t.Errorf("short or zero window should return everything")
	}
}

func TestOptions_Validate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	bad := DefaultOptions()
	bad.Rows = 0
	if err := bad.Validate(); err == nil {
		t.Errorf("zero rows should be rejected")
	}
	bad = DefaultOptions()
	bad.OpacityFloor = 0
	if err := bad.Validate(); err == nil {
		t.Errorf("zero opacity floor should be rejected")
	}
}
