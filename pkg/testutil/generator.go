// Package testutil provides dataset generators and layout assertions for
// tests. All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/commitspread/pkg/model"
)

// GeneratorConfig controls dataset generation.
type GeneratorConfig struct {
	Seed       int64     // Random seed for determinism (0 = use current time)
	Start      time.Time // First day of the series (default: fixed date)
	Categories []string  // Category names (default: DefaultCategories)
	MaxCount   int       // Upper bound of one category's daily count (default: 12)
	IdleRate   float64   // Probability that a day has no activity
}

// DefaultCategories are the topics used when none are configured.
var DefaultCategories = []string{"go", "python", "java", "rust", "docs", "ci"}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42,
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Categories: DefaultCategories,
		MaxCount:   12,
		IdleRate:   0.15,
	}
}

// Generator creates day-by-day series.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = 12
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Date returns the date string of day i of the series.
func (g *Generator) Date(i int) string {
	return g.cfg.Start.AddDate(0, 0, i).Format("2006-01-02")
}

// Series returns one record per day. Each active day carries between one
// and all categories, in a shuffled key order, and a matching total. Idle
// days have no counts and a zero total.
func (g *Generator) Series(days int) []model.Record {
	out := make([]model.Record, 0, days)
	for i := 0; i < days; i++ {
		if g.rng.Float64() < g.cfg.IdleRate {
			out = append(out, Idle(g.Date(i)))
			continue
		}
		n := 1 + g.rng.Intn(len(g.cfg.Categories))
		picked := g.rng.Perm(len(g.cfg.Categories))[:n]
		counts := make(model.CategoryCounts, 0, n)
		for _, p := range picked {
			counts = append(counts, model.TopicCount{
				Category: g.cfg.Categories[p],
				Count:    1 + g.rng.Intn(g.cfg.MaxCount),
			})
		}
		out = append(out, Day(g.Date(i), counts...))
	}
	return out
}

// Uniform returns days records where every day has the same single
// category and count.
func (g *Generator) Uniform(days int, category string, count int) []model.Record {
	out := make([]model.Record, days)
	for i := range out {
		out[i] = Day(g.Date(i), model.TopicCount{Category: category, Count: count})
	}
	return out
}

// Burst returns a quiet series with one busy day at index peak.
func (g *Generator) Burst(days, peak int) []model.Record {
	out := make([]model.Record, days)
	for i := range out {
		count := 1
		if i == peak {
			count = 50
		}
		out[i] = Day(g.Date(i), model.TopicCount{Category: g.cfg.Categories[i%len(g.cfg.Categories)], Count: count})
	}
	return out
}

// Totals returns totals for n categories named c0..c{n-1} with distinct
// counts 1..n, useful for network layouts.
func Totals(n int) []model.Record {
	counts := make(model.CategoryCounts, n)
	for i := range counts {
		counts[i] = model.TopicCount{Category: CategoryName(i), Count: i + 1}
	}
	return []model.Record{Day("2024-01-01", counts...)}
}

// Day builds an active record whose total is the sum of its counts.
func Day(date string, counts ...model.TopicCount) model.Record {
	c := model.CategoryCounts(counts)
	return model.Record{Date: date, Counts: c, Total: c.Sum()}
}

// Idle builds a record without activity.
func Idle(date string) model.Record {
	return model.Record{Date: date}
}

// CategoryName generates a consistent category name from an index.
func CategoryName(index int) string {
	return fmt.Sprintf("c%d", index)
}
