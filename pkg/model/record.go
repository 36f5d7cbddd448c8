// Package model holds the data types shared by the layout engines and their
// render sinks.
package model

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TopicCount is one entry of a record's category mapping.
type TopicCount struct {
	Category string
	Count    int
}

// CategoryCounts maps category names to counts while remembering the order in
// which the keys appeared in the source document. The first key decides the
// dominant category of a grid cell, so the order is part of the data.
type CategoryCounts []TopicCount

// Keys returns the category names in source order.
func (c CategoryCounts) Keys() []string {
	keys := make([]string, len(c))
	for i, tc := range c {
		keys[i] = tc.Category
	}
	return keys
}

// First returns the first category in source order.
func (c CategoryCounts) First() (string, bool) {
	if len(c) == 0 {
		return "", false
	}
	return c[0].Category, true
}

// Get returns the count for a category.
func (c CategoryCounts) Get(category string) (int, bool) {
	for _, tc := range c {
		if tc.Category == category {
			return tc.Count, true
		}
	}
	return 0, false
}

// Sum adds up all counts.
func (c CategoryCounts) Sum() int {
	total := 0
	for _, tc := range c {
		total += tc.Count
	}
	return total
}

// UnmarshalJSON decodes a JSON object keeping key order. Negative counts are
// clamped to zero.
func (c *CategoryCounts) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}

	om := orderedmap.New[string, int]()
	if err := om.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("decoding category counts: %w", err)
	}

	out := make(CategoryCounts, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		n := pair.Value
		if n < 0 {
			n = 0
		}
		out = append(out, TopicCount{Category: pair.Key, Count: n})
	}
	*c = out
	return nil
}

// MarshalJSON encodes the counts as a JSON object in source order.
func (c CategoryCounts) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, int]()
	for _, tc := range c {
		om.Set(tc.Category, tc.Count)
	}
	return om.MarshalJSON()
}

// Record is one day of activity: counts per category and the day's total.
type Record struct {
	Date   string         `json:"date"`
	Counts CategoryCounts `json:"commits_by_topics"`
	Total  int            `json:"total_count"`
}

// ErrEmptyCounts marks a record without any category entry.
var ErrEmptyCounts = errors.New("record has no category counts")

// Validate reports whether the record can be placed on the grid.
func (r Record) Validate() error {
	if r.Date == "" {
		return errors.New("record has no date")
	}
	if len(r.Counts) == 0 {
		return ErrEmptyCounts
	}
	if r.Total < 0 {
		return fmt.Errorf("record %s has negative total %d", r.Date, r.Total)
	}
	return nil
}

// DominantCategory returns the first category key of the record. This is the
// key order of the source document, not the largest share.
func (r Record) DominantCategory() string {
	first, _ := r.Counts.First()
	return first
}

// CategoryTotal is the sum of one category's counts over a whole series.
type CategoryTotal struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// MarshalRecords encodes records as an indented JSON array, the same shape
// the dataset file uses.
func MarshalRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "    ")
}
