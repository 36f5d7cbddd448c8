package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/commitspread/pkg/debug"
)

// maxSummaryStderr bounds the stderr shown per failed hook in Summary.
const maxSummaryStderr = 200

// Result records one hook run.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs the hooks of one export.
type Executor struct {
	config  *Config
	ctx     ExportContext
	results []Result
}

// NewExecutor prepares hooks for an export.
func NewExecutor(cfg *Config, ctx ExportContext) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Executor{config: cfg, ctx: ctx}
}

// RunPreExport runs pre-export hooks in order and stops at the first
// failure of a hook marked on_error: fail.
func (e *Executor) RunPreExport() error {
	for _, h := range e.config.Hooks.PreExport {
		r := e.run(h, PreExport)
		if !r.Success && h.OnError == OnErrorFail {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, r.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook and returns the failures of
// hooks marked on_error: fail.
func (e *Executor) RunPostExport() error {
	var errs []error
	for _, h := range e.config.Hooks.PostExport {
		r := e.run(h, PostExport)
		if r.Success {
			continue
		}
		if h.OnError == OnErrorFail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", h.Name, r.Error))
		} else {
			debug.Logger().Warn("post-export hook failed", "hook", h.Name, "err", r.Error)
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) run(h Hook, phase Phase) Result {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = e.env(h)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r := Result{
		Hook:     h,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		r.Error = fmt.Errorf("timed out after %v", timeout)
	case err != nil:
		r.Error = err
	default:
		r.Success = true
	}
	debug.Log("hooks: %s %s took %v ok=%v", phase, h.Name, r.Duration, r.Success)
	e.results = append(e.results, r)
	return r
}

// env layers the export variables and the hook's own variables over the
// process environment. Hook values may reference either with ${VAR}.
func (e *Executor) env(h Hook) []string {
	env := append(os.Environ(), e.ctx.ToEnv()...)
	lookup := func(key string) string {
		for i := len(env) - 1; i >= 0; i-- {
			if k, v, ok := strings.Cut(env[i], "="); ok && k == key {
				return v
			}
		}
		return ""
	}
	for k, v := range h.Env {
		env = append(env, k+"="+os.Expand(v, lookup))
	}
	return env
}

// Results returns the runs so far, in order.
func (e *Executor) Results() []Result {
	return e.results
}

// Summary describes the runs for the command line.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	ok := 0
	for _, r := range e.results {
		if r.Success {
			ok++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "hooks: %d succeeded, %d failed\n", ok, len(e.results)-ok)
	for _, r := range e.results {
		if r.Success {
			continue
		}
		fmt.Fprintf(&b, "  %s %s: %v\n", r.Phase, r.Hook.Name, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "    %s\n", truncate(r.Stderr, maxSummaryStderr))
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// RunHooks loads the hooks of projectDir for an export. It returns a nil
// executor when disabled or when nothing is configured.
func RunHooks(projectDir string, ctx ExportContext, disabled bool) (*Executor, error) {
	if disabled {
		return nil, nil
	}
	l := NewLoader(WithProjectDir(projectDir))
	if err := l.Load(); err != nil {
		return nil, err
	}
	for _, w := range l.Warnings() {
		debug.Logger().Warn(w)
	}
	if !l.HasHooks() {
		return nil, nil
	}
	return NewExecutor(l.Config(), ctx), nil
}
