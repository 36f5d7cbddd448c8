//go:build ignore

// generate_testdata.go writes reproducible commit histories for manual runs
// and benchmarks.
// Usage: go run scripts/generate_testdata.go [outdir]
//
// Creates, under testdata/sample by default:
//
//	week.json     (7 days)
//	quarter.json  (90 days)
//	year.json     (365 days)
//	decade.json   (3650 days)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/commitspread/pkg/loader"
	"github.com/vanderheijden86/commitspread/pkg/testutil"
)

var datasets = []struct {
	name string
	days int
}{
	{"week", 7},
	{"quarter", 90},
	{"year", 365},
	{"decade", 3650},
}

func main() {
	outputDir := filepath.Join("testdata", "sample")
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.days)
		records := testutil.New(cfg).Series(ds.days)

		path := filepath.Join(outputDir, ds.name+".json")
		if err := loader.SaveFile(path, records); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("%-8s %5d days -> %s\n", ds.name, len(records), path)
	}
}
