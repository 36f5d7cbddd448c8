package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/commitspread/internal/datasource"
	"github.com/vanderheijden86/commitspread/pkg/ui"
)

func sourcesCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "sources [dir]",
		Short: "List the datasets found in a directory and which one would load",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Data.Dir
			if info, err := os.Stat(a.cfg.Data.Path); err == nil && info.IsDir() {
				dir = a.cfg.Data.Path
			}
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				dir = "."
			}
			sources, err := datasource.DiscoverSources(cmd.Context(), datasource.DiscoveryOptions{
				Dir:                    dir,
				ValidateAfterDiscovery: true,
				IncludeInvalid:         true,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sources) == 0 {
				Warn.Fprintf(out, "no datasets in %s\n", dir)
				return nil
			}

			best, bestErr := datasource.SelectBestSource(sources)
			rows := make([][]string, 0, len(sources))
			for _, s := range sources {
				name := filepath.Base(s.Path)
				if bestErr == nil && s.Path == best.Path {
					name += " *"
				}
				status := statusIcon(s.Valid)
				if !s.Valid {
					status += " " + s.ValidationError
				}
				rows = append(rows, []string{
					name,
					string(s.Type),
					strconv.Itoa(s.RecordCount),
					s.LastDate,
					ui.FormatTimeRel(s.ModTime),
					status,
				})
			}
			printTable(out, []string{"SOURCE", "TYPE", "DAYS", "LAST", "MODIFIED", "STATUS"}, rows)

			if !check {
				return nil
			}
			diffs, err := datasource.CheckAllSourcesConsistent(sources)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			if len(diffs) == 0 {
				Good.Fprintf(out, "%s valid sources agree\n", statusIcon(true))
				return nil
			}
			for _, d := range diffs {
				Warn.Fprint(out, d.Summary())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "compare the valid sources with each other")
	return cmd
}
