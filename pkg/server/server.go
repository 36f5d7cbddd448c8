// Package server exposes the layouts over HTTP: JSON grid and network
// layouts, SVG and PNG snapshots, and a newline-delimited stream of
// simulation frames.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vanderheijden86/commitspread/pkg/aggregate"
	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/export"
	"github.com/vanderheijden86/commitspread/pkg/force"
	"github.com/vanderheijden86/commitspread/pkg/grid"
	"github.com/vanderheijden86/commitspread/pkg/model"
	"github.com/vanderheijden86/commitspread/pkg/scale"
	"github.com/vanderheijden86/commitspread/pkg/version"
)

// maxSettleTicks bounds the ticks run for a settled network response.
const maxSettleTicks = 5000

// Options configures the server.
type Options struct {
	Addr        string
	FPS         int
	CORSOrigins []string
	Grid        grid.Options
	Force       force.Options
	Palette     []string
	Background  string
	Title       string
}

// Server serves one dataset. The dataset can be swapped while serving.
type Server struct {
	opts Options

	mu      sync.RWMutex
	records []model.Record
	palette *scale.Palette
	totals  aggregate.Totals
	loaded  time.Time
}

// New returns a server over records.
func New(records []model.Record, opts Options) *Server {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	s := &Server{opts: opts}
	s.SetRecords(records)
	return s
}

// SetRecords replaces the dataset. The palette is rebuilt once here, not
// per request.
func (s *Server) SetRecords(records []model.Record) {
	totals := aggregate.Aggregate(records)
	palette := scale.NewPalette(totals.Order, s.opts.Palette)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.totals = totals
	s.palette = palette
	s.loaded = time.Now()
	debug.Log("server: dataset replaced, %d records, %d categories", len(records), totals.Len())
}

type snapshot struct {
	records []model.Record
	totals  aggregate.Totals
	palette *scale.Palette
	loaded  time.Time
}

func (s *Server) current() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{records: s.records, totals: s.totals, palette: s.palette, loaded: s.loaded}
}

// Router returns the bare route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/grid", s.handleGrid).Methods(http.MethodGet)
	api.HandleFunc("/network", s.handleNetwork).Methods(http.MethodGet)
	api.HandleFunc("/network/stream", s.handleStream).Methods(http.MethodGet)

	r.HandleFunc("/{view:grid|network}.{format:svg|png}", s.handleSnapshot).Methods(http.MethodGet)
	return r
}

// Handler returns the router wrapped with recovery, CORS and request
// logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	if len(s.opts.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet}),
		)(h)
	}
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(debug.Enabled()))(h)
	return handlers.LoggingHandler(logWriter{}, h)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	debug.Logger().Info("listening", "addr", s.opts.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// logWriter sends access log lines to the shared logger.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	debug.Logger().Info(strings.TrimSpace(string(p)), "component", "http")
	return len(p), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Log("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func intParam(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("%s must be an integer in [%d, %d]", name, min, max)
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    version.Version,
		"records":    len(snap.records),
		"categories": snap.totals.Len(),
		"loaded_at":  snap.loaded.UTC().Format(time.RFC3339),
	})
}

// GridResponse is the body of GET /api/grid.
type GridResponse struct {
	Rows      int                  `json:"rows"`
	Cols      int                  `json:"cols"`
	Width     float64              `json:"width"`
	Height    float64              `json:"height"`
	Skipped   int                  `json:"skipped"`
	Cells     []model.GridCell     `json:"cells"`
	Rects     []model.Rect         `json:"rects"`
	Focus     *grid.Selection      `json:"focus,omitempty"`
	Label     string               `json:"label"`
	Highlight *model.Rect          `json:"highlight,omitempty"`
	Legend    []export.LegendEntry `json:"legend,omitempty"`
}

// layoutGrid lays out the requested window and applies the focus query.
func (s *Server) layoutGrid(r *http.Request) (grid.Result, *grid.Focus, snapshot, error) {
	snap := s.current()
	window, err := intParam(r, "window", s.opts.Grid.Window, 0, 1<<20)
	if err != nil {
		return grid.Result{}, nil, snap, err
	}
	res := grid.Layout(grid.Window(snap.records, window), snap.palette, s.opts.Grid)
	focus := grid.NewFocus(res)
	if raw := r.URL.Query().Get("focus"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil || !focus.Focus(i) {
			return res, focus, snap, fmt.Errorf("focus %q is not a placed cell", raw)
		}
	}
	return res, focus, snap, nil
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	res, focus, snap, err := s.layoutGrid(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	body := GridResponse{
		Rows:    res.Rows,
		Cols:    res.Cols,
		Width:   res.Width,
		Height:  res.Height,
		Skipped: res.Skipped,
		Cells:   nonNil(res.Cells),
		Rects:   nonNil(res.Rects),
		Label:   focus.Label(),
		Legend:  export.GridScene(res, nil, snap.palette, "").Legend,
	}
	if sel, ok := focus.Current(); ok {
		body.Focus = &sel
	}
	if hl, ok := focus.Highlight(); ok {
		body.Highlight = &hl
	}
	writeJSON(w, http.StatusOK, body)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// simulate builds a simulation for the current dataset and runs it for the
// requested number of ticks, or until it settles when ticks is 0.
func (s *Server) simulate(r *http.Request) (*force.Simulation, error) {
	ticks, err := intParam(r, "ticks", 0, 0, maxSettleTicks)
	if err != nil {
		return nil, err
	}
	snap := s.current()
	sim := force.New(force.FromTotals(snap.totals, snap.palette, s.opts.Force), s.opts.Force)
	if ticks == 0 {
		ticks = maxSettleTicks
	}
	sim.RunUntilIdle(ticks)
	return sim, nil
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	sim, err := s.simulate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer sim.Close()
	frame := sim.Frame()
	frame.Nodes = nonNil(frame.Nodes)
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format := export.Format(vars["format"])

	var scene export.Scene
	switch vars["view"] {
	case "grid":
		res, focus, snap, err := s.layoutGrid(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		scene = export.GridScene(res, focus, snap.palette, s.opts.Title)
	case "network":
		sim, err := s.simulate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		scene = export.NetworkScene(sim.Frame(), s.opts.Force, s.opts.Title)
		sim.Close()
	}
	scene.Background = s.opts.Background

	switch format {
	case export.FormatSVG:
		w.Header().Set("Content-Type", "image/svg+xml")
	case export.FormatPNG:
		w.Header().Set("Content-Type", "image/png")
	}
	if err := export.Write(w, format, scene); err != nil {
		debug.Log("server: rendering %s: %v", r.URL.Path, err)
	}
}

// handleStream writes one JSON frame per line at the requested rate until
// the layout settles, max frames were sent, or the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	fps, err := intParam(r, "fps", s.opts.FPS, 1, 240)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := intParam(r, "max", 0, 0, 1<<20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap := s.current()
	sim := force.New(force.FromTotals(snap.totals, snap.palette, s.opts.Force), s.opts.Force)
	defer sim.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	frames := make(chan force.Frame)
	done := make(chan error, 1)
	go func() {
		done <- sim.Run(ctx, limitTicks(ctx, ticker.C, limit), frames)
		close(frames)
	}()

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	for frame := range frames {
		if err := enc.Encode(frame); err != nil {
			cancel()
			break
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			cancel()
			break
		}
	}
	for range frames {
	}
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		debug.Log("server: stream ended: %v", err)
	}
}

// limitTicks forwards at most max ticks, or all when max is 0, then closes.
func limitTicks(ctx context.Context, in <-chan time.Time, max int) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		defer close(out)
		for n := 0; max == 0 || n < max; n++ {
			select {
			case <-ctx.Done():
				return
			case t := <-in:
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
