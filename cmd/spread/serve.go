package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/server"
	"github.com/vanderheijden86/commitspread/pkg/watcher"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
		title string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts, snapshots and a live frame stream over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if watch {
				cfg.Data.Watch = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			records, src, err := loadDataset(ctx, cfg)
			if err != nil {
				return err
			}
			srv := server.New(records, server.Options{
				Addr:        cfg.Server.Addr,
				FPS:         cfg.Server.FPS,
				CORSOrigins: cfg.Server.CORSOrigins,
				Grid:        cfg.Grid,
				Force:       cfg.Force,
				Palette:     cfg.Scale.Palette,
				Background:  cfg.Scale.Background,
				Title:       title,
			})

			reloader, err := newReloader(cfg, src)
			if err != nil {
				Warn.Fprintf(os.Stderr, "spread: live reload disabled: %v\n", err)
			}
			if reloader != nil {
				defer reloader.Stop()
				go followReloads(ctx, reloader, srv)
			}

			Brand.Fprintf(cmd.OutOrStdout(), "spread ")
			Subtle.Fprintf(cmd.OutOrStdout(), "serving %d days from %s on http://%s\n", len(records), src.Path, cfg.Server.Addr)
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when the dataset changes")
	cmd.Flags().StringVar(&title, "title", "", "title drawn on snapshots")
	return cmd
}

// followReloads swaps the served dataset on every successful reload.
func followReloads(ctx context.Context, r *watcher.Reloader, srv *server.Server) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-r.Updates():
			if u.Err != nil {
				debug.Logger().Warn("reload failed", "err", u.Err)
				continue
			}
			srv.SetRecords(u.Records)
		}
	}
}
