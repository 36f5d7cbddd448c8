// Package aggregate reduces a day-by-day series to per-category totals.
package aggregate

import (
	"time"

	"github.com/vanderheijden86/commitspread/pkg/metrics"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

// Totals holds the summed count of every category seen in a series.
// Order is the first-seen order of the categories and is the canonical
// domain for color assignment.
type Totals struct {
	Counts map[string]int
	Order  []string
}

// Aggregate sums every record's category counts. An empty series yields empty
// Totals, which callers treat as nothing to render.
func Aggregate(records []model.Record) Totals {
	start := time.Now()
	defer func() { metrics.Aggregate.Record(time.Since(start)) }()

	t := Totals{Counts: make(map[string]int)}
	for _, rec := range records {
		for _, tc := range rec.Counts {
			if _, seen := t.Counts[tc.Category]; !seen {
				t.Order = append(t.Order, tc.Category)
			}
			t.Counts[tc.Category] += tc.Count
		}
	}
	return t
}

// Domain returns the first-seen category order of a series without summing.
func Domain(records []model.Record) []string {
	seen := make(map[string]struct{})
	var order []string
	for _, rec := range records {
		for _, tc := range rec.Counts {
			if _, ok := seen[tc.Category]; ok {
				continue
			}
			seen[tc.Category] = struct{}{}
			order = append(order, tc.Category)
		}
	}
	return order
}

// Len returns the number of distinct categories.
func (t Totals) Len() int { return len(t.Order) }

// Empty reports whether there is nothing to render.
func (t Totals) Empty() bool { return len(t.Order) == 0 }

// List returns the totals in first-seen order.
func (t Totals) List() []model.CategoryTotal {
	out := make([]model.CategoryTotal, 0, len(t.Order))
	for _, c := range t.Order {
		out = append(out, model.CategoryTotal{Category: c, Count: t.Counts[c]})
	}
	return out
}

// Max returns the largest category total, or 0 when empty.
func (t Totals) Max() int {
	max := 0
	for _, c := range t.Order {
		if t.Counts[c] > max {
			max = t.Counts[c]
		}
	}
	return max
}

// Min returns the smallest category total, or 0 when empty.
func (t Totals) Min() int {
	if len(t.Order) == 0 {
		return 0
	}
	min := t.Counts[t.Order[0]]
	for _, c := range t.Order[1:] {
		if t.Counts[c] < min {
			min = t.Counts[c]
		}
	}
	return min
}

// Sum returns the total of all categories.
func (t Totals) Sum() int {
	sum := 0
	for _, n := range t.Counts {
		sum += n
	}
	return sum
}
