// Command spread shows how commit activity spreads over days and topics:
// a terminal UI, static SVG/PNG exports and an HTTP server over the same
// dataset.
package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/commitspread/pkg/config"
	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	dataPath   string
	debug      bool
	cpuProfile string
}

// app carries the loaded configuration between the persistent hooks and
// the subcommands.
type app struct {
	flags   globalFlags
	cfg     config.Config
	profile *os.File
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		Bad.Fprintf(os.Stderr, "spread: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var tui tuiFlags

	root := &cobra.Command{
		Use:   "spread",
		Short: "Visualize how commits spread over days and topics",
		Long: Brand.Sprint("spread") + " renders a day-by-day commit series as a grid of days\n" +
			"and as a force-directed network of topics.\n\n" +
			Subtle.Sprint("Without a subcommand it opens the terminal UI."),
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), tui)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/spread/config.yaml)")
	pf.StringVarP(&a.flags.dataPath, "data", "d", "", "dataset file or directory to search")
	pf.BoolVar(&a.flags.debug, "debug", false, "verbose logging to stderr")
	pf.StringVar(&a.flags.cpuProfile, "cpu-profile", "", "write a CPU profile to file")

	tui.register(root)

	root.AddCommand(
		exportCmd(a),
		serveCmd(a),
		mergeCmd(a),
		sourcesCmd(a),
		versionCmd(),
	)
	return root
}

// setup loads the configuration and starts profiling when asked.
func (a *app) setup() error {
	if a.flags.debug {
		debug.SetEnabled(true)
	}

	var err error
	if a.flags.configPath != "" {
		a.cfg, err = config.LoadFrom(a.flags.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.flags.dataPath != "" {
		a.cfg.Data.Path = a.flags.dataPath
	}

	if a.flags.cpuProfile != "" {
		f, err := os.Create(a.flags.cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		a.profile = f
	}
	return nil
}

func (a *app) teardown() {
	if a.profile != nil {
		pprof.StopCPUProfile()
		a.profile.Close()
		a.profile = nil
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spread %s\n", version.Full())
		},
	}
}
