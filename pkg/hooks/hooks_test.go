package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeHooksFile(t *testing.T, dir, content string) {
	t.Helper()
	d := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(d, ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write hooks.yaml: %v", err)
	}
}

func TestExportContextToEnv(t *testing.T) {
	ctx := ExportContext{
		ExportPath:   "/tmp/spread.svg",
		ExportFormat: "svg",
		View:         "grid",
		DayCount:     70,
		Timestamp:    time.Date(2025, 11, 30, 10, 30, 0, 0, time.UTC),
	}
	env := strings.Join(ctx.ToEnv(), "\n")
	for _, want := range []string{
		"SPREAD_EXPORT_PATH=/tmp/spread.svg",
		"SPREAD_EXPORT_FORMAT=svg",
		"SPREAD_EXPORT_VIEW=grid",
		"SPREAD_DAY_COUNT=70",
		"SPREAD_TIMESTAMP=2025-11-30T10:30:00Z",
	} {
		if !strings.Contains(env, want) {
			t.Errorf("env missing %s", want)
		}
	}
}

func TestLoader_NoConfig(t *testing.T) {
	l := NewLoader(WithProjectDir(t.TempDir()))
	if err := l.Load(); err != nil {
		t.Fatalf("missing config should load: %v", err)
	}
	if l.HasHooks() {
		t.Error("expected no hooks")
	}
}

func TestLoader_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, `
hooks:
  pre-export:
    - name: validate
      command: echo validating
      timeout: 5s
    - command: "  "
  post-export:
    - command: echo done
      timeout: 2
      env:
        TARGET: somewhere
`)
	l := NewLoader(WithProjectDir(dir))
	if err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	pre := l.Hooks(PreExport)
	if len(pre) != 1 {
		t.Fatalf("pre-export hooks = %d, want 1", len(pre))
	}
	if pre[0].Timeout != 5*time.Second || pre[0].OnError != OnErrorFail {
		t.Errorf("pre hook = %+v", pre[0])
	}
	if len(l.Warnings()) != 1 {
		t.Errorf("warnings = %v, want one for the empty command", l.Warnings())
	}

	post := l.Hooks(PostExport)
	if len(post) != 1 {
		t.Fatalf("post-export hooks = %d, want 1", len(post))
	}
	if post[0].Name != "post-export-1" || post[0].OnError != OnErrorContinue {
		t.Errorf("post hook = %+v", post[0])
	}
	if post[0].Timeout != 2*time.Second {
		t.Errorf("numeric timeout = %v, want 2s", post[0].Timeout)
	}
	if l.Hooks("deploy") != nil {
		t.Error("unknown phase should have no hooks")
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks: [unclosed")
	if err := NewLoader(WithProjectDir(dir)).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoader_InvalidTimeout(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks:\n  pre-export:\n    - command: echo\n      timeout: soon\n")
	if err := NewLoader(WithProjectDir(dir)).Load(); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestExecutor_Output(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		{Name: "hello", Command: "echo hello", Timeout: 5 * time.Second, OnError: OnErrorFail},
	}}}
	e := NewExecutor(cfg, ExportContext{})
	if err := e.RunPreExport(); err != nil {
		t.Fatalf("RunPreExport: %v", err)
	}
	res := e.Results()
	if len(res) != 1 || !res[0].Success || res[0].Stdout != "hello" {
		t.Fatalf("results = %+v", res)
	}
}

func TestExecutor_PreExportStopsOnFail(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		{Name: "fail-fast", Command: "exit 1", Timeout: time.Second, OnError: OnErrorFail},
		{Name: "never", Command: "echo nope", Timeout: time.Second, OnError: OnErrorFail},
	}}}
	e := NewExecutor(cfg, ExportContext{})
	if err := e.RunPreExport(); err == nil {
		t.Fatal("expected error")
	}
	if len(e.Results()) != 1 {
		t.Fatalf("ran %d hooks, want 1", len(e.Results()))
	}
}

func TestExecutor_PreExportContinue(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		{Name: "flaky", Command: "exit 3", Timeout: time.Second, OnError: OnErrorContinue},
		{Name: "after", Command: "echo still-running", Timeout: time.Second, OnError: OnErrorFail},
	}}}
	e := NewExecutor(cfg, ExportContext{})
	if err := e.RunPreExport(); err != nil {
		t.Fatalf("on_error continue should not fail: %v", err)
	}
	res := e.Results()
	if len(res) != 2 || res[0].Success || res[1].Stdout != "still-running" {
		t.Fatalf("results = %+v", res)
	}
}

func TestExecutor_PostExportRunsAll(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PostExport: []Hook{
		{Name: "fail", Command: "exit 1", Timeout: time.Second, OnError: OnErrorFail},
		{Name: "after", Command: "echo ok", Timeout: time.Second, OnError: OnErrorContinue},
	}}}
	e := NewExecutor(cfg, ExportContext{})
	if err := e.RunPostExport(); err == nil {
		t.Fatal("expected error from on_error fail hook")
	}
	res := e.Results()
	if len(res) != 2 || res[1].Stdout != "ok" {
		t.Fatalf("results = %+v", res)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		{Name: "slow", Command: "sleep 5", Timeout: 100 * time.Millisecond, OnError: OnErrorFail},
	}}}
	e := NewExecutor(cfg, ExportContext{})
	if err := e.RunPreExport(); err == nil {
		t.Fatal("expected timeout error")
	}
	r := e.Results()[0]
	if r.Success || r.Duration < 100*time.Millisecond {
		t.Fatalf("result = %+v", r)
	}
	if !strings.Contains(r.Error.Error(), "timed out") {
		t.Errorf("error = %v", r.Error)
	}
}

func TestExecutor_Environment(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PostExport: []Hook{{
		Name:    "env",
		Command: `echo "$SPREAD_EXPORT_PATH $SPREAD_DAY_COUNT $DEST"`,
		Timeout: time.Second,
		Env:     map[string]string{"DEST": "${SPREAD_EXPORT_VIEW}-copy"},
		OnError: OnErrorFail,
	}}}}
	e := NewExecutor(cfg, ExportContext{ExportPath: "/out/a.png", View: "network", DayCount: 12})
	if err := e.RunPostExport(); err != nil {
		t.Fatalf("RunPostExport: %v", err)
	}
	if got := e.Results()[0].Stdout; got != "/out/a.png 12 network-copy" {
		t.Errorf("stdout = %q", got)
	}
}

func TestExecutor_Summary(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PostExport: []Hook{
		{Name: "ok", Command: "true", Timeout: time.Second, OnError: OnErrorContinue},
		{Name: "noisy", Command: "printf '%0300d' 0 >&2; exit 1", Timeout: time.Second, OnError: OnErrorContinue},
	}}}
	e := NewExecutor(cfg, ExportContext{})
	_ = e.RunPostExport()
	s := e.Summary()
	if !strings.Contains(s, "1 succeeded, 1 failed") {
		t.Errorf("summary = %q", s)
	}
	if !strings.Contains(s, "...") {
		t.Errorf("long stderr not truncated: %q", s)
	}
}

func TestRunHooks(t *testing.T) {
	dir := t.TempDir()
	if e, err := RunHooks(dir, ExportContext{}, false); e != nil || err != nil {
		t.Fatalf("no config: %v, %v", e, err)
	}
	writeHooksFile(t, dir, "hooks:\n  pre-export:\n    - command: echo hi\n")
	if e, err := RunHooks(dir, ExportContext{}, true); e != nil || err != nil {
		t.Fatalf("disabled: %v, %v", e, err)
	}
	e, err := RunHooks(dir, ExportContext{}, false)
	if err != nil || e == nil {
		t.Fatalf("RunHooks = %v, %v", e, err)
	}
	if len(e.config.Hooks.PreExport) != 1 || len(e.Results()) != 0 {
		t.Errorf("executor not initialized: %+v", e.config)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdefghijklmnopqrstuvwxyz", 8); got != "abcde..." {
		t.Errorf("got %q", got)
	}
}
