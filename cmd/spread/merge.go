package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/commitspread/internal/datasource"
	"github.com/vanderheijden86/commitspread/pkg/loader"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

func mergeCmd(a *app) *cobra.Command {
	var into string
	cmd := &cobra.Command{
		Use:   "merge <source>...",
		Short: "Append days from other datasets, keeping existing days unchanged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if into == "" {
				into = a.cfg.Data.Path
			}
			if into == "" {
				return errors.New("--into is required")
			}

			var incoming []model.Record
			for _, path := range args {
				src, err := datasource.NewSource(path)
				if err != nil {
					return err
				}
				res, err := datasource.LoadFromSource(src)
				if err != nil {
					return err
				}
				incoming = append(incoming, res.Records...)
			}

			added, total, err := mergeInto(into, incoming)
			if err != nil {
				return err
			}
			Good.Fprintf(cmd.OutOrStdout(), "%s added %d days to %s", statusIcon(true), added, into)
			Subtle.Fprintf(cmd.OutOrStdout(), " (%d total)\n", total)
			return nil
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "dataset to merge into (.json or .db); created when missing")
	return cmd
}

// mergeInto adds the incoming days that target lacks. A SQLite target
// ignores known dates on insert; a JSON target is rewritten sorted.
func mergeInto(target string, incoming []model.Record) (added, total int, err error) {
	typ, _, ok := datasource.TypeForPath(target)
	if !ok || typ == datasource.SourceTypeJSONL {
		return 0, 0, fmt.Errorf("merge target must be .json or .db: %s", target)
	}

	if typ == datasource.SourceTypeSQLite {
		store, err := datasource.OpenSQLite(target, false)
		if err != nil {
			return 0, 0, err
		}
		defer store.Close()
		added, err := store.SaveRecords(incoming)
		if err != nil {
			return 0, 0, err
		}
		total, err := store.CountRecords()
		return added, total, err
	}

	var existing []model.Record
	if _, statErr := os.Stat(target); statErr == nil {
		res, err := loader.LoadFile(target)
		if err != nil {
			return 0, 0, err
		}
		existing = res.Records
	}
	merged, added := loader.MergeByDate(existing, incoming)
	loader.SortByDate(merged)
	if err := loader.SaveFile(target, merged); err != nil {
		return 0, 0, err
	}
	return added, len(merged), nil
}
