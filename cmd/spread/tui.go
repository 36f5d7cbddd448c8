package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/commitspread/pkg/ui"
)

type tuiFlags struct {
	view  string
	watch bool
	theme string
}

func (f *tuiFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.view, "view", "", "initial view: spread or network")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "reload when the dataset changes")
	cmd.Flags().StringVar(&f.theme, "theme", "", "auto, dark or light")
}

func (a *app) runTUI(ctx context.Context, f tuiFlags) error {
	cfg := a.cfg
	if f.view != "" {
		cfg.UI.DefaultView = f.view
	}
	if f.theme != "" {
		cfg.UI.Theme = f.theme
	}
	if f.watch {
		cfg.Data.Watch = true
	}
	view, err := ui.ParseView(cfg.UI.DefaultView)
	if err != nil {
		return err
	}

	records, src, err := loadDataset(ctx, cfg)
	if err != nil {
		return err
	}
	reloader, err := newReloader(cfg, src)
	if err != nil {
		Warn.Fprintf(os.Stderr, "spread: live reload disabled: %v\n", err)
	}

	m := ui.NewModel(records, ui.Options{
		Grid:       cfg.Grid,
		Force:      cfg.Force,
		Palette:    cfg.Scale.Palette,
		Background: cfg.Scale.Background,
		FPS:        cfg.UI.FPS,
		View:       view,
		Theme:      cfg.UI.Theme,
		Source:     src.Path,
	})
	if reloader != nil {
		defer reloader.Stop()
		m = m.WithReloader(reloader)
	}
	defer m.Close()

	return runTUIProgram(m)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}
		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}
		p.Kill()
	}()

	// Automated runs can close the UI after a delay.
	if v := os.Getenv("SPREAD_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
