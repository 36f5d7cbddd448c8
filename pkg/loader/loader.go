// Package loader reads and writes commit history datasets: a JSON array of
// {date, commits_by_topics, total_count} records, or the same records one per
// line.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/metrics"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

// DataEnvVar names a dataset file that overrides discovery.
const DataEnvVar = "SPREAD_DATA"

// PreferredNames is the lookup order for dataset files in a directory.
var PreferredNames = []string{"commit_history.json", "history.json", "commit_history.jsonl"}

// DefaultMaxBufferSize is the longest line accepted in line-delimited input.
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ErrNotFound is returned when no dataset file can be located.
var ErrNotFound = errors.New("no dataset file found")

// ParseOptions configures ParseRecords.
type ParseOptions struct {
	// WarningHandler receives one message per skipped record. When nil,
	// warnings go to the debug log.
	WarningHandler func(string)

	// BufferSize bounds a single line of line-delimited input.
	BufferSize int
}

// Result is a parsed dataset.
type Result struct {
	Records []model.Record
	Skipped int
}

// FindDataFile returns the dataset path: SPREAD_DATA when set, otherwise the
// first non-empty preferred file in dir (cwd when dir is empty).
func FindDataFile(dir string) (string, error) {
	if env := os.Getenv(DataEnvVar); env != "" {
		return env, nil
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		dir = wd
	}
	for _, name := range PreferredNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() && info.Size() > 0 {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
}

// LoadFile reads a dataset file.
func LoadFile(path string) (Result, error) {
	return LoadFileWithOptions(path, ParseOptions{})
}

// LoadFileWithOptions reads a dataset file with custom options.
func LoadFileWithOptions(path string, opts ParseOptions) (Result, error) {
	start := time.Now()
	defer func() { metrics.DatasetLoad.Record(time.Since(start)) }()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return Result{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	res, err := ParseRecordsWithOptions(f, opts)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	debug.Log("loader: %d records from %s (%d skipped)", len(res.Records), path, res.Skipped)
	return res, nil
}

// ParseRecords parses a dataset from r.
func ParseRecords(r io.Reader) (Result, error) {
	return ParseRecordsWithOptions(r, ParseOptions{})
}

// ParseRecordsWithOptions parses a JSON array or line-delimited records.
//
// Elements that do not decode, or that have no date, are skipped with a
// warning. Records with an empty category mapping are kept: the grid shows
// them as gaps. Empty input is a valid empty dataset.
func ParseRecordsWithOptions(r io.Reader, opts ParseOptions) (Result, error) {
	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) { debug.Log("loader: %s", msg) }
	}
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}

	br := bufio.NewReaderSize(r, maxCapacity)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("error reading dataset: %w", err)
	}

	if first == '[' {
		return parseArray(br, warn)
	}
	return parseLines(br, maxCapacity, warn)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func parseArray(r io.Reader, warn func(string)) (Result, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("dataset is not a JSON array: %w", err)
	}
	res := Result{Records: make([]model.Record, 0, len(raw))}
	for i, elem := range raw {
		rec, err := decodeRecord(elem)
		if err != nil {
			res.Skipped++
			warn(fmt.Sprintf("skipping record %d: %v", i, err))
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func parseLines(br *bufio.Reader, maxCapacity int, warn func(string)) (Result, error) {
	var res Result
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Result{}, fmt.Errorf("error reading dataset at line %d: %w", lineNum, err)
		}
		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			res.Skipped++
			for isPrefix {
				_, isPrefix, err = br.ReadLine()
				if err != nil {
					break
				}
			}
			continue
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec, err := decodeRecord(line)
		if err != nil {
			res.Skipped++
			warn(fmt.Sprintf("skipping line %d: %v", lineNum, err))
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func decodeRecord(data []byte) (model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Record{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if err := rec.Validate(); err != nil && !errors.Is(err, model.ErrEmptyCounts) {
		return model.Record{}, err
	}
	return rec, nil
}

// SaveFile writes records as an indented JSON array, replacing path
// atomically.
func SaveFile(path string, records []model.Record) error {
	data, err := model.MarshalRecords(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".spread-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// MergeByDate appends every incoming record whose date is not yet present
// and returns the merged series with the number of records added. Existing
// records are never changed, and a date repeated within incoming is taken
// once.
func MergeByDate(existing, incoming []model.Record) ([]model.Record, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]model.Record, 0, len(existing)+len(incoming))
	for _, rec := range existing {
		seen[rec.Date] = struct{}{}
		merged = append(merged, rec)
	}
	added := 0
	for _, rec := range incoming {
		if _, ok := seen[rec.Date]; ok {
			continue
		}
		seen[rec.Date] = struct{}{}
		merged = append(merged, rec)
		added++
	}
	return merged, added
}

// SortByDate orders records chronologically. ISO dates sort as strings.
func SortByDate(records []model.Record) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })
}
