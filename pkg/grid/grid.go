// Package grid places a chronological window of records on a fixed-height
// matrix. Records fill column-major, top to bottom then left to right, so the
// most recent day sits in the rightmost column.
package grid

import (
	"errors"
	"fmt"
	"time"

	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/metrics"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// Options controls the matrix geometry and encoding.
type Options struct {
	Rows         int     `yaml:"rows" toml:"rows" json:"rows"`
	CellSize     float64 `yaml:"cell_size" toml:"cell_size" json:"cell_size"`
	Padding      float64 `yaml:"padding" toml:"padding" json:"padding"`
	OpacityFloor float64 `yaml:"opacity_floor" toml:"opacity_floor" json:"opacity_floor"`
	FocusScale   float64 `yaml:"focus_scale" toml:"focus_scale" json:"focus_scale"`
	Window       int     `yaml:"window" toml:"window" json:"window"`
}

// DefaultOptions returns one row per weekday and the last ten weeks.
func DefaultOptions() Options {
	return Options{
		Rows:         7,
		CellSize:     12,
		Padding:      2,
		OpacityFloor: scale.DefaultOpacityFloor,
		FocusScale:   1.75,
		Window:       70,
	}
}

// ErrInvalidOptions is wrapped by Validate.
var ErrInvalidOptions = errors.New("invalid grid options")

// Validate checks the geometry.
func (o Options) Validate() error {
	switch {
	case o.Rows <= 0:
		return fmt.Errorf("%w: rows must be positive, got %d", ErrInvalidOptions, o.Rows)
	case o.CellSize <= 0:
		return fmt.Errorf("%w: cell size must be positive, got %v", ErrInvalidOptions, o.CellSize)
	case o.Padding < 0:
		return fmt.Errorf("%w: padding must not be negative, got %v", ErrInvalidOptions, o.Padding)
	case o.OpacityFloor <= 0 || o.OpacityFloor > 1:
		return fmt.Errorf("%w: opacity floor must be in (0, 1], got %v", ErrInvalidOptions, o.OpacityFloor)
	case o.FocusScale < 1:
		return fmt.Errorf("%w: focus scale must be at least 1, got %v", ErrInvalidOptions, o.FocusScale)
	case o.Window < 0:
		return fmt.Errorf("%w: window must not be negative, got %d", ErrInvalidOptions, o.Window)
	}
	return nil
}

// withDefaults fills zero fields so a zero Options still lays out.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Rows <= 0 {
		o.Rows = d.Rows
	}
	if o.CellSize <= 0 {
		o.CellSize = d.CellSize
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.OpacityFloor <= 0 || o.OpacityFloor > 1 {
		o.OpacityFloor = d.OpacityFloor
	}
	if o.FocusScale < 1 {
		o.FocusScale = d.FocusScale
	}
	return o
}

// Result is the placed matrix. Cells and Rects are parallel slices; skipped
// records leave their index unused so the matrix shows a gap.
type Result struct {
	Cells   []model.GridCell `json:"cells"`
	Rects   []model.Rect     `json:"rects"`
	Rows    int              `json:"rows"`
	Cols    int              `json:"cols"`
	Width   float64          `json:"width"`
	Height  float64          `json:"height"`
	Skipped int              `json:"skipped"`

	opts Options
	byIx map[int]int
}

// Empty reports whether nothing was placed.
func (r Result) Empty() bool { return len(r.Cells) == 0 }

// Options returns the options the layout used.
func (r Result) Options() Options { return r.opts }

// Cell returns the placed cell for a record index.
func (r Result) Cell(index int) (model.GridCell, model.Rect, bool) {
	i, ok := r.byIx[index]
	if !ok {
		return model.GridCell{}, model.Rect{}, false
	}
	return r.Cells[i], r.Rects[i], true
}

// CellAt returns the record index of the cell under a pixel coordinate.
// Points on the padding between cells hit nothing.
func (r Result) CellAt(x, y float64) (int, bool) {
	for i, rect := range r.Rects {
		if rect.Contains(x, y) {
			return r.Cells[i].Index, true
		}
	}
	return 0, false
}

// Latest returns the record index of the most recent placed cell.
func (r Result) Latest() (int, bool) {
	if len(r.Cells) == 0 {
		return 0, false
	}
	return r.Cells[len(r.Cells)-1].Index, true
}

// Position returns the matrix coordinate of record index i.
func Position(i, rows int) (row, col int) {
	return i % rows, i / rows
}

// Layout places records on the matrix. Color is the palette color of each
// record's first category key; opacity scales the day's total against the
// busiest day of the window. Records without category counts are skipped.
func Layout(records []model.Record, palette *scale.Palette, opts Options) Result {
	start := time.Now()
	defer func() { metrics.GridLayout.Record(time.Since(start)) }()

	opts = opts.withDefaults()
	res := Result{Rows: opts.Rows, opts: opts, byIx: make(map[int]int)}
	if len(records) == 0 {
		return res
	}
	if palette == nil {
		palette = scale.NewPalette(nil, nil)
	}

	maxTotal := 0
	for _, rec := range records {
		if len(rec.Counts) > 0 && rec.Total > maxTotal {
			maxTotal = rec.Total
		}
	}

	res.Cols = (len(records) + opts.Rows - 1) / opts.Rows
	step := opts.CellSize + opts.Padding
	res.Width = float64(res.Cols)*step - opts.Padding
	res.Height = float64(opts.Rows)*step - opts.Padding

	for i, rec := range records {
		if len(rec.Counts) == 0 {
			res.Skipped++
			debug.Log("grid: skipping record %d (%s): no category counts", i, rec.Date)
			continue
		}
		row, col := Position(i, opts.Rows)
		dominant := rec.DominantCategory()
		intensity := 0.0
		if maxTotal > 0 {
			intensity = float64(rec.Total) / float64(maxTotal)
		}

		res.byIx[i] = len(res.Cells)
		res.Cells = append(res.Cells, model.GridCell{
			Index:            i,
			Row:              row,
			Col:              col,
			Date:             rec.Date,
			DominantCategory: dominant,
			Total:            rec.Total,
			Intensity:        intensity,
		})
		res.Rects = append(res.Rects, model.Rect{
			X:       float64(col) * step,
			Y:       float64(row) * step,
			Width:   opts.CellSize,
			Height:  opts.CellSize,
			Fill:    palette.ColorOf(dominant),
			Opacity: scale.OpacityOf(rec.Total, maxTotal, opts.OpacityFloor),
		})
	}

	debug.Log("grid: placed %d of %d records on %dx%d", len(res.Cells), len(records), opts.Rows, res.Cols)
	return res
}

// Window returns the most recent n records. A non-positive n returns all.
func Window(records []model.Record, n int) []model.Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}
