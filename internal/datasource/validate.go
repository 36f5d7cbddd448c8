package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/commitspread/pkg/loader"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

// validationLimit bounds concurrently open sources.
const validationLimit = 8

// ValidateSource loads a source, counts its records and marks it valid when
// it parses. An empty dataset is valid.
func ValidateSource(src *DataSource) error {
	res, err := LoadFromSource(*src)
	if err != nil {
		src.Valid = false
		src.ValidationError = err.Error()
		return err
	}
	src.Valid = true
	src.ValidationError = ""
	src.RecordCount = len(res.Records)
	src.LastDate = lastDate(res.Records)
	return nil
}

// ValidateSources validates every source concurrently. Per-source failures
// are recorded on the source; only cancellation is returned.
func ValidateSources(ctx context.Context, sources []DataSource) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(validationLimit)
	for i := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				sources[i].ValidationError = err.Error()
				return nil
			}
			_ = ValidateSource(&sources[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("validating sources: %w", err)
	}
	return ctx.Err()
}

func lastDate(records []model.Record) string {
	last := ""
	for _, r := range records {
		if r.Date > last {
			last = r.Date
		}
	}
	return last
}

// LoadFromSource reads a source with the reader for its type.
func LoadFromSource(src DataSource) (loader.Result, error) {
	switch src.Type {
	case SourceTypeSQLite:
		store, err := OpenSQLite(src.Path, true)
		if err != nil {
			return loader.Result{}, fmt.Errorf("failed to open SQLite source %s: %w", src.Path, err)
		}
		defer store.Close()
		records, err := store.LoadRecords()
		if err != nil {
			return loader.Result{}, err
		}
		return loader.Result{Records: records}, nil

	case SourceTypeJSON, SourceTypeJSONL:
		return loader.LoadFile(src.Path)

	default:
		return loader.Result{}, fmt.Errorf("unknown source type: %s", src.Type)
	}
}
