package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vanderheijden86/commitspread/internal/datasource"
	"github.com/vanderheijden86/commitspread/pkg/config"
	"github.com/vanderheijden86/commitspread/pkg/loader"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/watcher"
)

// loadDataset reads the configured dataset. An explicit path wins; a
// directory, or no path at all, is searched for the freshest valid source.
func loadDataset(ctx context.Context, cfg config.Config) ([]model.Record, datasource.DataSource, error) {
	path := cfg.Data.Path
	if path == "" {
		dir := cfg.Data.Dir
		if dir == "" {
			dir = "."
		}
		return datasource.Load(ctx, dir)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, datasource.DataSource{}, fmt.Errorf("dataset %s: %w", path, err)
	}
	if info.IsDir() {
		return datasource.Load(ctx, path)
	}
	src, err := datasource.NewSource(path)
	if err != nil {
		return nil, datasource.DataSource{}, err
	}
	res, err := datasource.LoadFromSource(src)
	if err != nil {
		return nil, src, err
	}
	if res.Skipped > 0 {
		Warn.Fprintf(os.Stderr, "spread: skipped %d malformed records in %s\n", res.Skipped, path)
	}
	src.Valid = true
	src.RecordCount = len(res.Records)
	return res.Records, src, nil
}

// newReloader follows the chosen source when watching is enabled. It
// returns nil when it is not.
func newReloader(cfg config.Config, src datasource.DataSource) (*watcher.Reloader, error) {
	if !cfg.Data.Watch || src.Path == "" {
		return nil, nil
	}
	load := func(string) (loader.Result, error) { return datasource.LoadFromSource(src) }
	r, err := watcher.NewReloaderFunc(src.Path, load,
		watcher.WithDebounceDuration(time.Duration(cfg.Data.DebounceMS)*time.Millisecond))
	if err != nil {
		return nil, err
	}
	if err := r.Start(); err != nil {
		return nil, err
	}
	return r, nil
}
