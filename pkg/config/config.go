// Package config handles loading and saving spread configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/spread/config.yaml (or config.toml)
//   - Data:    ~/.local/share/spread/ (exports)
//   - State:   ~/.local/state/spread/ (last view)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/commitspread/pkg/force"
	"github.com/vanderheijden86/commitspread/pkg/grid"
	"github.com/vanderheijden86/commitspread/pkg/loader"
	"github.com/vanderheijden86/commitspread/pkg/scale"
)

// EnvConfig names a config file that replaces the XDG lookup.
const EnvConfig = "SPREAD_CONFIG"

const appName = "spread"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// DataConfig locates the dataset.
type DataConfig struct {
	Path       string `yaml:"path,omitempty" toml:"path,omitempty"` // explicit dataset file
	Dir        string `yaml:"dir,omitempty" toml:"dir,omitempty"`   // directory searched for sources
	Watch      bool   `yaml:"watch" toml:"watch"`                   // reload when the dataset changes
	DebounceMS int    `yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty"`
}

// ScaleConfig holds the color encoding shared by both views.
type ScaleConfig struct {
	Palette    []string `yaml:"palette,omitempty" toml:"palette,omitempty"`
	Background string   `yaml:"background,omitempty" toml:"background,omitempty"`
}

// UIConfig holds terminal view preferences.
type UIConfig struct {
	DefaultView string `yaml:"default_view,omitempty" toml:"default_view,omitempty"` // spread, network
	FPS         int    `yaml:"fps,omitempty" toml:"fps,omitempty"`
	Theme       string `yaml:"theme,omitempty" toml:"theme,omitempty"` // auto, dark, light
}

// ServerConfig configures the HTTP sink.
type ServerConfig struct {
	Addr        string   `yaml:"addr,omitempty" toml:"addr,omitempty"`
	FPS         int      `yaml:"fps,omitempty" toml:"fps,omitempty"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" toml:"cors_origins,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Data   DataConfig    `yaml:"data" toml:"data"`
	Scale  ScaleConfig   `yaml:"scale" toml:"scale"`
	Grid   grid.Options  `yaml:"grid" toml:"grid"`
	Force  force.Options `yaml:"force" toml:"force"`
	UI     UIConfig      `yaml:"ui" toml:"ui"`
	Server ServerConfig  `yaml:"server" toml:"server"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Data:  DataConfig{DebounceMS: 200},
		Scale: ScaleConfig{Palette: append([]string(nil), scale.Set3...), Background: "#1e1e2e"},
		Grid:  grid.DefaultOptions(),
		Force: force.DefaultOptions(),
		UI: UIConfig{
			DefaultView: "spread",
			FPS:         30,
			Theme:       "auto",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8420", FPS: 30},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: grid: %v", ErrInvalid, err)
	}
	if err := c.Force.Validate(); err != nil {
		return fmt.Errorf("%w: force: %v", ErrInvalid, err)
	}
	switch c.UI.DefaultView {
	case "spread", "network":
	default:
		return fmt.Errorf("%w: ui.default_view must be spread or network, got %q", ErrInvalid, c.UI.DefaultView)
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("%w: ui.theme must be auto, dark or light, got %q", ErrInvalid, c.UI.Theme)
	}
	if c.UI.FPS <= 0 || c.UI.FPS > 120 {
		return fmt.Errorf("%w: ui.fps must be in 1-120, got %d", ErrInvalid, c.UI.FPS)
	}
	if c.Server.FPS <= 0 || c.Server.FPS > 120 {
		return fmt.Errorf("%w: server.fps must be in 1-120, got %d", ErrInvalid, c.Server.FPS)
	}
	if c.Data.DebounceMS < 0 {
		return fmt.Errorf("%w: data.debounce_ms must not be negative", ErrInvalid)
	}
	for _, col := range c.Scale.Palette {
		if !strings.HasPrefix(col, "#") {
			return fmt.Errorf("%w: palette color %q is not a hex color", ErrInvalid, col)
		}
	}
	return nil
}

// Palette builds the category color scale for a domain.
func (c Config) Palette(domain []string) *scale.Palette {
	return scale.NewPalette(domain, c.Scale.Palette)
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the config file: SPREAD_CONFIG when set, otherwise
// config.toml when it exists, otherwise config.yaml.
func ConfigPath() string {
	if env := os.Getenv(EnvConfig); env != "" {
		return expandHome(env)
	}
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	if p := filepath.Join(dir, "config.toml"); fileExists(p) {
		return p
	}
	return filepath.Join(dir, "config.yaml")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the config file from the default location.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return applyEnv(DefaultConfig()), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. The format follows the
// extension: .toml is TOML, anything else YAML.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data.Path = expandHome(cfg.Data.Path)
	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	cfg = applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	if env := os.Getenv(loader.DataEnvVar); env != "" {
		cfg.Data.Path = expandHome(env)
	}
	return cfg
}

// Save writes the config to the default location.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path in the format its extension
// names.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer f.Close()

	if isTOML(path) {
		err = toml.NewEncoder(f).Encode(cfg)
	} else {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		err = enc.Encode(cfg)
		if err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return f.Close()
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
