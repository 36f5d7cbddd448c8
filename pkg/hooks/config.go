// Package hooks runs user commands around `spread export`. Hooks live in
// .spread/hooks.yaml next to the dataset and run before the snapshot is
// rendered (pre-export) or after it is written (post-export).
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Phase is the point in an export where a hook runs.
type Phase string

const (
	// PreExport runs before rendering. A failing hook cancels the export
	// unless it is marked on_error: continue.
	PreExport Phase = "pre-export"
	// PostExport runs after the file is written. Failures are reported
	// but the export stands unless the hook is marked on_error: fail.
	PostExport Phase = "post-export"
)

// OnError values.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// DefaultTimeout bounds a hook without an explicit timeout.
const DefaultTimeout = 30 * time.Second

// ConfigDir and ConfigFile locate the hook configuration in a project.
const (
	ConfigDir  = ".spread"
	ConfigFile = "hooks.yaml"
)

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config is the parsed hooks file.
type Config struct {
	Hooks ByPhase `yaml:"hooks" json:"hooks"`
}

// ByPhase groups hooks by phase, in run order.
type ByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// ExportContext describes the export to the hook through its environment.
type ExportContext struct {
	ExportPath   string
	ExportFormat string
	View         string
	DayCount     int
	Timestamp    time.Time
}

// ToEnv returns the SPREAD_* variables for the export.
func (c ExportContext) ToEnv() []string {
	return []string{
		"SPREAD_EXPORT_PATH=" + c.ExportPath,
		"SPREAD_EXPORT_FORMAT=" + c.ExportFormat,
		"SPREAD_EXPORT_VIEW=" + c.View,
		"SPREAD_DAY_COUNT=" + strconv.Itoa(c.DayCount),
		"SPREAD_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Loader reads the hooks file of a project directory.
type Loader struct {
	projectDir string
	config     *Config
	warnings   []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithProjectDir sets the directory holding .spread/. Defaults to the
// working directory.
func WithProjectDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.projectDir = dir
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.projectDir == "" {
		l.projectDir, _ = os.Getwd()
	}
	return l
}

// Path returns the hooks file location.
func (l *Loader) Path() string {
	return filepath.Join(l.projectDir, ConfigDir, ConfigFile)
}

// Load parses the hooks file. A missing file means no hooks.
func (l *Loader) Load() error {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.config = &Config{}
			return nil
		}
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	l.warnings = nil
	cfg.Hooks.PreExport = l.normalize(cfg.Hooks.PreExport, PreExport)
	cfg.Hooks.PostExport = l.normalize(cfg.Hooks.PostExport, PostExport)
	l.config = &cfg
	return nil
}

// normalize fills defaults and drops hooks without a command.
func (l *Loader) normalize(hooks []Hook, phase Phase) []Hook {
	var out []Hook
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			l.warnings = append(l.warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, h)
	}
	return out
}

// Config returns the loaded configuration, empty before Load.
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// HasHooks reports whether any hook is configured.
func (l *Loader) HasHooks() bool {
	return l.config != nil && len(l.config.Hooks.PreExport)+len(l.config.Hooks.PostExport) > 0
}

// Hooks returns the hooks of a phase.
func (l *Loader) Hooks(phase Phase) []Hook {
	if l.config == nil {
		return nil
	}
	switch phase {
	case PreExport:
		return l.config.Hooks.PreExport
	case PostExport:
		return l.config.Hooks.PostExport
	}
	return nil
}

// Warnings lists problems found while loading.
func (l *Loader) Warnings() []string {
	return l.warnings
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type raw struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*h = Hook{Name: r.Name, Command: r.Command, Env: r.Env, OnError: r.OnError}

	if r.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(r.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	secs, err := strconv.ParseFloat(r.Timeout, 64)
	if err != nil {
		return fmt.Errorf("invalid timeout %q", r.Timeout)
	}
	h.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}
