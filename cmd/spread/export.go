package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/commitspread/pkg/aggregate"
	"github.com/vanderheijden86/commitspread/pkg/config"
	"github.com/vanderheijden86/commitspread/pkg/export"
	"github.com/vanderheijden86/commitspread/pkg/force"
	"github.com/vanderheijden86/commitspread/pkg/grid"
	"github.com/vanderheijden86/commitspread/pkg/hooks"
	"github.com/vanderheijden86/commitspread/pkg/metrics"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// maxExportTicks bounds a settled network export.
const maxExportTicks = 5000

func exportCmd(a *app) *cobra.Command {
	opts := export.DefaultWizardConfig()
	var (
		wizard  bool
		stats   bool
		noHooks bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the grid or network to SVG or PNG",
		Example: "  spread export --view grid --out activity.svg\n" +
			"  spread export --view network --out topics.png --ticks 0\n" +
			"  spread export --wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if wizard {
				cfg, err := export.NewWizard().Run()
				if err != nil {
					return err
				}
				opts = cfg
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			records, _, err := loadDataset(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(opts.Format, opts.OutputPath)
			if err != nil {
				return err
			}
			executor, err := hooks.RunHooks(".", hooks.ExportContext{
				ExportPath:   opts.OutputPath,
				ExportFormat: string(format),
				View:         opts.View,
				DayCount:     len(records),
				Timestamp:    time.Now(),
			}, noHooks)
			if err != nil {
				return err
			}
			if executor != nil {
				if err := executor.RunPreExport(); err != nil {
					fmt.Fprint(os.Stderr, executor.Summary())
					return err
				}
			}

			scene := buildScene(a.cfg, records, opts)
			if err := export.Save(opts.OutputPath, format, scene); err != nil {
				return err
			}
			Good.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", statusIcon(true), opts.OutputPath)

			if executor != nil {
				err := executor.RunPostExport()
				Subtle.Fprint(cmd.OutOrStdout(), executor.Summary())
				if err != nil {
					return err
				}
			}
			if stats {
				fmt.Fprint(cmd.OutOrStdout(), metrics.Summary())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.View, "view", opts.View, "grid or network")
	f.StringVarP(&opts.OutputPath, "out", "o", opts.OutputPath, "output file; the extension picks the format")
	f.StringVar(&opts.Format, "format", "", "svg or png (default: from --out)")
	f.StringVar(&opts.Title, "title", "", "title drawn above the picture")
	f.IntVar(&opts.Window, "window", opts.Window, "days in the grid window (0 = all)")
	f.IntVar(&opts.Ticks, "ticks", opts.Ticks, "network ticks to run (0 = until settled)")
	f.BoolVar(&wizard, "wizard", false, "ask for the settings interactively")
	f.BoolVar(&stats, "stats", false, "print timing statistics")
	f.BoolVar(&noHooks, "no-hooks", false, "skip hooks from .spread/hooks.yaml")
	return cmd
}

// buildScene lays out the requested view for export.
func buildScene(cfg config.Config, records []model.Record, opts export.WizardConfig) export.Scene {
	var scene export.Scene
	switch opts.View {
	case "network":
		totals := aggregate.Aggregate(records)
		palette := scale.NewPalette(totals.Order, cfg.Scale.Palette)
		sim := force.New(force.FromTotals(totals, palette, cfg.Force), cfg.Force)
		defer sim.Close()
		ticks := opts.Ticks
		if ticks <= 0 {
			ticks = maxExportTicks
		}
		sim.RunUntilIdle(ticks)
		scene = export.NetworkScene(sim.Frame(), cfg.Force, opts.Title)
	default:
		palette := cfg.Palette(aggregate.Domain(records))
		gopts := cfg.Grid
		gopts.Window = opts.Window
		res := grid.Layout(grid.Window(records, opts.Window), palette, gopts)
		scene = export.GridScene(res, nil, palette, opts.Title)
	}
	scene.Background = cfg.Scale.Background
	return scene
}
