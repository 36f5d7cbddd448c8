package datasource

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/loader"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

// Load picks the freshest valid source in dir and reads it. When discovery
// finds nothing usable it falls back to the preferred dataset file names.
func Load(ctx context.Context, dir string) ([]model.Record, DataSource, error) {
	records, src, err := loadSmart(ctx, dir)
	if err == nil {
		return records, src, nil
	}
	debug.Log("datasource: smart load failed: %v", err)

	path, ferr := loader.FindDataFile(dir)
	if ferr != nil {
		return nil, DataSource{}, ferr
	}
	src, ferr = NewSource(path)
	if ferr != nil {
		return nil, DataSource{}, ferr
	}
	res, ferr := LoadFromSource(src)
	if ferr != nil {
		return nil, src, ferr
	}
	src.Valid = true
	src.RecordCount = len(res.Records)
	return res.Records, src, nil
}

func loadSmart(ctx context.Context, dir string) ([]model.Record, DataSource, error) {
	sources, err := DiscoverSources(ctx, DiscoveryOptions{
		Dir:                    dir,
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		return nil, DataSource{}, err
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, DataSource{}, err
	}
	debug.Log("datasource: selected %s", best)

	res, err := LoadFromSource(best)
	if err != nil {
		return nil, best, fmt.Errorf("loading %s: %w", best.Path, err)
	}
	return res.Records, best, nil
}
