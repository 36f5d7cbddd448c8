// Package datasource discovers, validates and selects commit history
// sources. A directory may hold the dataset as a JSON file, a line-delimited
// JSON file or a SQLite database; the freshest valid one wins.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/commitspread/pkg/debug"
)

// SourceType identifies the storage format of a source.
type SourceType string

const (
	// SourceTypeSQLite is a database with a commit_history table.
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a JSON array file.
	SourceTypeJSON SourceType = "json"
	// SourceTypeJSONL holds one record per line.
	SourceTypeJSONL SourceType = "jsonl"
)

// Priority values break ties between sources modified at the same time.
const (
	PrioritySQLite = 100
	PriorityJSON   = 80
	PriorityJSONL  = 50
)

// ErrNoSource is returned when no valid source exists.
var ErrNoSource = errors.New("no valid data source")

// DataSource is one candidate dataset.
type DataSource struct {
	Type            SourceType `json:"type"`
	Path            string     `json:"path"`
	Priority        int        `json:"priority"`
	ModTime         time.Time  `json:"mod_time"`
	Valid           bool       `json:"valid"`
	ValidationError string     `json:"validation_error,omitempty"`
	RecordCount     int        `json:"record_count"`
	LastDate        string     `json:"last_date,omitempty"`
	Size            int64      `json:"size"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, records=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.RecordCount, status)
}

// DiscoveryOptions configures DiscoverSources.
type DiscoveryOptions struct {
	// Dir is searched for sources; cwd when empty.
	Dir string
	// ValidateAfterDiscovery validates every source concurrently.
	ValidateAfterDiscovery bool
	// IncludeInvalid keeps sources that failed validation.
	IncludeInvalid bool
}

// TypeForPath infers the source type from a file extension.
func TypeForPath(path string) (SourceType, int, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, PrioritySQLite, true
	case ".json":
		return SourceTypeJSON, PriorityJSON, true
	case ".jsonl", ".ndjson":
		return SourceTypeJSONL, PriorityJSONL, true
	}
	return "", 0, false
}

// NewSource describes a single file as a source.
func NewSource(path string) (DataSource, error) {
	typ, prio, ok := TypeForPath(path)
	if !ok {
		return DataSource{}, fmt.Errorf("unsupported source file %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return DataSource{Type: typ, Path: path, Priority: prio, ModTime: info.ModTime(), Size: info.Size()}, nil
}

// DiscoverSources lists the candidate sources in a directory, freshest
// first, breaking ties by priority.
func DiscoverSources(ctx context.Context, opts DiscoveryOptions) ([]DataSource, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}
	debug.Log("datasource: discovering sources in %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.Contains(name, ".backup") || strings.HasSuffix(name, ".orig") {
			continue
		}
		typ, prio, ok := TypeForPath(name)
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sources = append(sources, DataSource{
			Type:     typ,
			Path:     filepath.Join(dir, name),
			Priority: prio,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
	}

	if opts.ValidateAfterDiscovery {
		if err := ValidateSources(ctx, sources); err != nil {
			return nil, err
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sortSources(sources)
	debug.Log("datasource: discovered %d sources", len(sources))
	return sources, nil
}

func sortSources(sources []DataSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
}

// SelectBestSource returns the freshest valid source.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	var valid []DataSource
	for _, s := range sources {
		if s.Valid {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return DataSource{}, ErrNoSource
	}
	sortSources(valid)
	return valid[0], nil
}
