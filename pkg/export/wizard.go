package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/commitspread/pkg/config"
)

// WizardConfig is what the export wizard collects. It is saved between runs.
type WizardConfig struct {
	View       string `json:"view"`   // grid, network
	Format     string `json:"format"` // svg, png
	OutputPath string `json:"output_path"`
	Title      string `json:"title,omitempty"`
	Window     int    `json:"window"`
	Ticks      int    `json:"ticks"` // network only; 0 settles fully
}

// DefaultWizardConfig returns the first-run answers.
func DefaultWizardConfig() WizardConfig {
	return WizardConfig{
		View:       "grid",
		Format:     string(FormatSVG),
		OutputPath: "spread.svg",
		Window:     70,
	}
}

// Validate checks the collected answers.
func (c WizardConfig) Validate() error {
	if c.View != "grid" && c.View != "network" {
		return fmt.Errorf("view must be grid or network, got %q", c.View)
	}
	if _, err := ParseFormat(c.Format, c.OutputPath); err != nil {
		return err
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return errors.New("output path is required")
	}
	if c.Window < 0 || c.Ticks < 0 {
		return errors.New("window and ticks must not be negative")
	}
	return nil
}

// Wizard asks for export settings interactively.
type Wizard struct {
	config WizardConfig
}

// NewWizard starts from the saved answers when there are any.
func NewWizard() *Wizard {
	cfg := DefaultWizardConfig()
	if saved, err := LoadWizardConfig(); err == nil && saved != nil {
		cfg = *saved
	}
	return &Wizard{config: cfg}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm falls back to accessible prompts when stdin is not a terminal.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run asks every question and saves the answers.
func (w *Wizard) Run() (WizardConfig, error) {
	cfg := w.config
	window := strconv.Itoa(cfg.Window)
	ticks := strconv.Itoa(cfg.Ticks)

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which view?").
				Options(
					huh.NewOption("Spread grid (one cell per day)", "grid"),
					huh.NewOption("Network (one circle per category)", "network"),
				).
				Value(&cfg.View),
			huh.NewSelect[string]().
				Title("Format").
				Options(
					huh.NewOption("SVG", string(FormatSVG)),
					huh.NewOption("PNG", string(FormatPNG)),
				).
				Value(&cfg.Format),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Output file").
				Value(&cfg.OutputPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Title").
				Placeholder("commit spread").
				Value(&cfg.Title),
			huh.NewInput().
				Title("Days in the grid window (0 = all)").
				Value(&window).
				Validate(validateCount),
			huh.NewInput().
				Title("Network ticks (0 = until settled)").
				Value(&ticks).
				Validate(validateCount),
		),
	)
	if err := form.Run(); err != nil {
		return WizardConfig{}, err
	}

	cfg.Window, _ = strconv.Atoi(strings.TrimSpace(window))
	cfg.Ticks, _ = strconv.Atoi(strings.TrimSpace(ticks))
	cfg.OutputPath = withExtension(cfg.OutputPath, cfg.Format)
	if err := cfg.Validate(); err != nil {
		return WizardConfig{}, err
	}

	w.config = cfg
	if err := SaveWizardConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save export settings: %v\n", err)
	}
	return cfg, nil
}

// Config returns the current answers.
func (w *Wizard) Config() WizardConfig { return w.config }

func validateCount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("enter a whole number, 0 or more")
	}
	return nil
}

// withExtension replaces a missing or mismatched extension with the format's.
func withExtension(path, format string) string {
	ext := strings.ToLower(filepath.Ext(path))
	want := "." + format
	if ext == want {
		return path
	}
	if ext == ".svg" || ext == ".png" {
		return strings.TrimSuffix(path, filepath.Ext(path)) + want
	}
	return path + want
}

// WizardConfigPath is where the answers are kept between runs.
func WizardConfigPath() string {
	dir := config.StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "export_wizard.json")
}

// LoadWizardConfig returns the saved answers, or nil when there are none.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine state path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg WizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveWizardConfig keeps the answers for the next run.
func SaveWizardConfig(cfg WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine state path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
