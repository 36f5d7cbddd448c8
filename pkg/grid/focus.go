package grid

import (
	"fmt"

	"github.com/vanderheijden86/commitspread/pkg/model"
)

// Selection is what an info display shows for the focused cell.
type Selection struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Total    int    `json:"total"`
}

// Label formats the selection as "topic (date)".
func (s Selection) Label() string {
	return fmt.Sprintf("%s (%s)", s.Category, s.Date)
}

// Focus tracks the read-only current selection of a laid-out matrix.
// Without an explicit focus it reports the most recent cell.
type Focus struct {
	res     Result
	focused int
	active  bool

	onFocus func(category, date string)
}

// NewFocus returns a selection over res showing the most recent cell.
func NewFocus(res Result) *Focus {
	return &Focus{res: res}
}

// OnCellFocus registers the observer raised on every focus and blur.
func (f *Focus) OnCellFocus(fn func(category, date string)) {
	f.onFocus = fn
}

// Focus selects the cell of record index i. It returns false and leaves the
// selection alone when i is outside the matrix or a skipped record.
func (f *Focus) Focus(i int) bool {
	if _, _, ok := f.res.Cell(i); !ok {
		return false
	}
	f.focused = i
	f.active = true
	f.notify()
	return true
}

// Blur drops the explicit focus so the selection reverts to the latest cell.
func (f *Focus) Blur() {
	f.active = false
	f.notify()
}

// Focused reports whether a cell is explicitly focused.
func (f *Focus) Focused() bool { return f.active }

// Index returns the record index of the current selection.
func (f *Focus) Index() (int, bool) {
	if f.active {
		return f.focused, true
	}
	return f.res.Latest()
}

// Current returns the current selection.
func (f *Focus) Current() (Selection, bool) {
	i, ok := f.Index()
	if !ok {
		return Selection{}, false
	}
	cell, _, _ := f.res.Cell(i)
	return Selection{Index: cell.Index, Category: cell.DominantCategory, Date: cell.Date, Total: cell.Total}, true
}

// Label returns "topic (date)" for the current selection, or "" when the
// matrix is empty.
func (f *Focus) Label() string {
	s, ok := f.Current()
	if !ok {
		return ""
	}
	return s.Label()
}

// Highlight returns the explicitly focused cell enlarged around its center
// and fully opaque.
func (f *Focus) Highlight() (model.Rect, bool) {
	if !f.active {
		return model.Rect{}, false
	}
	_, rect, ok := f.res.Cell(f.focused)
	if !ok {
		return model.Rect{}, false
	}
	k := f.res.opts.FocusScale
	w, h := rect.Width*k, rect.Height*k
	rect.X -= (w - rect.Width) / 2
	rect.Y -= (h - rect.Height) / 2
	rect.Width, rect.Height = w, h
	rect.Opacity = 1
	return rect, true
}

// Move shifts the focus by whole rows and columns, starting from the current
// selection. It fails on the matrix edge and on gaps.
func (f *Focus) Move(dRow, dCol int) bool {
	i, ok := f.Index()
	if !ok {
		return false
	}
	rows := f.res.Rows
	row, col := Position(i, rows)
	row += dRow
	col += dCol
	if row < 0 || row >= rows || col < 0 || col >= f.res.Cols {
		return false
	}
	return f.Focus(col*rows + row)
}

func (f *Focus) notify() {
	if f.onFocus == nil {
		return
	}
	if s, ok := f.Current(); ok {
		f.onFocus(s.Category, s.Date)
	}
}
