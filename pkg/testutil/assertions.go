package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/commitspread/pkg/model"
)

// AssertRecordCount verifies the expected number of records.
func AssertRecordCount(t *testing.T, records []model.Record, expected int) {
	t.Helper()
	if len(records) != expected {
		t.Errorf("expected %d records, got %d", expected, len(records))
	}
}

// AssertDatesAscending verifies records are ordered by date without
// duplicates.
func AssertDatesAscending(t *testing.T, records []model.Record) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		if records[i-1].Date >= records[i].Date {
			t.Errorf("records %d and %d out of order: %s, %s", i-1, i, records[i-1].Date, records[i].Date)
		}
	}
}

// AssertNoRectOverlap verifies no two rectangles share area.
func AssertNoRectOverlap(t *testing.T, rects []model.Rect) {
	t.Helper()
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				t.Errorf("rects %d and %d overlap: %+v %+v", i, j, rects[i], rects[j])
			}
		}
	}
}

// AssertOpacityRange verifies every rectangle's opacity is in [floor, 1].
func AssertOpacityRange(t *testing.T, rects []model.Rect, floor float64) {
	t.Helper()
	for i, r := range rects {
		if r.Opacity < floor-1e-9 || r.Opacity > 1+1e-9 {
			t.Errorf("rect %d opacity %v outside [%v, 1]", i, r.Opacity, floor)
		}
	}
}

// AssertNodesInside verifies every circle lies inside the canvas shrunk by
// margin.
func AssertNodesInside(t *testing.T, nodes []model.NodeDescriptor, width, height, margin float64) {
	t.Helper()
	const eps = 1e-6
	for _, n := range nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Errorf("node %s has no position", n.ID)
			continue
		}
		if n.X-n.Radius < margin-eps || n.X+n.Radius > width-margin+eps ||
			n.Y-n.Radius < margin-eps || n.Y+n.Radius > height-margin+eps {
			t.Errorf("node %s at (%.2f, %.2f) r=%.2f escapes %vx%v", n.ID, n.X, n.Y, n.Radius, width, height)
		}
	}
}

// AssertNodesApart verifies no two circles overlap by more than slack.
func AssertNodesApart(t *testing.T, nodes []model.NodeDescriptor, slack float64) {
	t.Helper()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			if d < a.Radius+b.Radius-slack {
				t.Errorf("nodes %s and %s overlap: distance %.2f, radii %.2f+%.2f", a.ID, b.ID, d, a.Radius, b.Radius)
			}
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file, or rewrites the
// file when GENERATE_GOLDEN is set.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}
	exp := strings.Split(string(expected), "\n")
	act := strings.Split(actual, "\n")
	for i := 0; i < len(exp) || i < len(act); i++ {
		var e, a string
		if i < len(exp) {
			e = exp[i]
		}
		if i < len(act) {
			a = act[i]
		}
		if e != a {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, e, a)
			return
		}
	}
}

// WriteDatasetFile writes records as a JSON array to dir/name and returns
// the path.
func WriteDatasetFile(t *testing.T, dir, name string, records []model.Record) string {
	t.Helper()
	data, err := model.MarshalRecords(records)
	if err != nil {
		t.Fatalf("failed to marshal records: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}
