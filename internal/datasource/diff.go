package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/commitspread/pkg/model"
)

// SourceDiff lists the differences between two sources.
type SourceDiff struct {
	SourceA string
	SourceB string
	// MissingInA holds dates present in B but not in A.
	MissingInA []string
	// MissingInB holds dates present in A but not in B.
	MissingInB    []string
	TotalMismatch []TotalDifference
	CountA        int
	CountB        int
}

// TotalDifference is a date whose total differs between two sources.
type TotalDifference struct {
	Date   string `json:"date"`
	TotalA int    `json:"total_a"`
	TotalB int    `json:"total_b"`
}

// HasInconsistencies reports whether the sources disagree.
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.TotalMismatch) > 0
}

// Summary returns a human-readable summary of the differences.
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d records each)", d.CountA)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&b, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	writeDates := func(dates []string, in, notIn string) {
		if len(dates) == 0 {
			return
		}
		fmt.Fprintf(&b, "  - %d dates in %s but not %s\n", len(dates), in, notIn)
		if len(dates) <= 5 {
			for _, date := range dates {
				fmt.Fprintf(&b, "    - %s\n", date)
			}
		}
	}
	writeDates(d.MissingInA, d.SourceB, d.SourceA)
	writeDates(d.MissingInB, d.SourceA, d.SourceB)
	if len(d.TotalMismatch) > 0 {
		fmt.Fprintf(&b, "  - %d dates with different totals\n", len(d.TotalMismatch))
		if len(d.TotalMismatch) <= 5 {
			for _, m := range d.TotalMismatch {
				fmt.Fprintf(&b, "    - %s: %d vs %d\n", m.Date, m.TotalA, m.TotalB)
			}
		}
	}
	return b.String()
}

// CompareRecords diffs two record series by date.
func CompareRecords(nameA string, a []model.Record, nameB string, b []model.Record) SourceDiff {
	diff := SourceDiff{SourceA: nameA, SourceB: nameB, CountA: len(a), CountB: len(b)}

	totalsA := make(map[string]int, len(a))
	for _, r := range a {
		totalsA[r.Date] = r.Total
	}
	totalsB := make(map[string]int, len(b))
	for _, r := range b {
		totalsB[r.Date] = r.Total
	}

	for date, ta := range totalsA {
		tb, ok := totalsB[date]
		if !ok {
			diff.MissingInB = append(diff.MissingInB, date)
			continue
		}
		if ta != tb {
			diff.TotalMismatch = append(diff.TotalMismatch, TotalDifference{Date: date, TotalA: ta, TotalB: tb})
		}
	}
	for date := range totalsB {
		if _, ok := totalsA[date]; !ok {
			diff.MissingInA = append(diff.MissingInA, date)
		}
	}

	sort.Strings(diff.MissingInA)
	sort.Strings(diff.MissingInB)
	sort.Slice(diff.TotalMismatch, func(i, j int) bool { return diff.TotalMismatch[i].Date < diff.TotalMismatch[j].Date })
	return diff
}

// CompareSources loads two sources and diffs them.
func CompareSources(a, b DataSource) (SourceDiff, error) {
	ra, err := LoadFromSource(a)
	if err != nil {
		return SourceDiff{}, fmt.Errorf("loading %s: %w", a.Path, err)
	}
	rb, err := LoadFromSource(b)
	if err != nil {
		return SourceDiff{}, fmt.Errorf("loading %s: %w", b.Path, err)
	}
	return CompareRecords(a.Path, ra.Records, b.Path, rb.Records), nil
}

// CheckAllSourcesConsistent compares every valid source with the first one
// and returns the diffs that found differences.
func CheckAllSourcesConsistent(sources []DataSource) ([]SourceDiff, error) {
	var valid []DataSource
	for _, s := range sources {
		if s.Valid {
			valid = append(valid, s)
		}
	}
	if len(valid) < 2 {
		return nil, nil
	}
	var diffs []SourceDiff
	for _, other := range valid[1:] {
		d, err := CompareSources(valid[0], other)
		if err != nil {
			return nil, err
		}
		if d.HasInconsistencies() {
			diffs = append(diffs, d)
		}
	}
	return diffs, nil
}
