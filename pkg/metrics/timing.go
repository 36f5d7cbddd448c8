// Package metrics records timings for the hot paths of spread: dataset
// loading, aggregation, grid placement, simulation ticks and exports.
//
// Collection is on by default and costs a few atomic adds per measurement.
// Set SPREAD_METRICS=0 to turn it off.
//
//	func layoutSomething() {
//	    defer metrics.Timer(metrics.GridLayout)()
//	    // ...
//	}
package metrics

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("SPREAD_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns collection on or off.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates durations for one named operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first measurement
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if m == nil || !enabled.Load() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)

	for {
		old := m.max.Load()
		if ns <= old || m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.min.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats returns a snapshot of the metric.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.total.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(total) / 1e6,
		AvgMs:   float64(avg) / 1e6,
		MaxMs:   float64(m.max.Load()) / 1e6,
		MinMs:   float64(m.min.Load()) / 1e6,
	}
}

// Reset clears all measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is a point-in-time view of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records the elapsed time when called.
func Timer(m *TimingMetric) func() {
	if m == nil || !enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Registered metrics.
var (
	DatasetLoad = newTimingMetric("dataset_load")
	Aggregate   = newTimingMetric("aggregate")
	GridLayout  = newTimingMetric("grid_layout")
	ForceTick   = newTimingMetric("force_tick")
	Export      = newTimingMetric("export")
	UIRender    = newTimingMetric("ui_render")
)

// All returns every registered metric.
func All() []*TimingMetric {
	return []*TimingMetric{DatasetLoad, Aggregate, GridLayout, ForceTick, Export, UIRender}
}

// ResetAll clears every registered metric.
func ResetAll() {
	for _, m := range All() {
		m.Reset()
	}
}

// AllStats returns stats for the metrics that have data.
func AllStats() []TimingStats {
	var out []TimingStats
	for _, m := range All() {
		if m.Count() > 0 {
			out = append(out, m.Stats())
		}
	}
	return out
}

// Summary formats AllStats as an aligned text table.
func Summary() string {
	stats := AllStats()
	if len(stats) == 0 {
		return "no timings recorded"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %8s %10s %10s %10s\n", "metric", "count", "avg_ms", "max_ms", "total_ms")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-14s %8d %10.3f %10.3f %10.3f\n", s.Name, s.Count, s.AvgMs, s.MaxMs, s.TotalMs)
	}
	return strings.TrimRight(b.String(), "\n")
}
