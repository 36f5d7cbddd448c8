package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and ANSI white
// otherwise.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the chrome colors. Data colors come from the palette.
type Theme struct {
	Renderer *lipgloss.Renderer
	Dark     bool

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Header    lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Footer    lipgloss.Style
	MutedText lipgloss.Style
	ErrorText lipgloss.Style
	OKText    lipgloss.Style
	Label     lipgloss.Style
	Overlay   lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme. mode is auto,
// dark or light; auto asks the renderer.
func DefaultTheme(r *lipgloss.Renderer, mode string) Theme {
	switch mode {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	t := Theme{
		Renderer: r,
		Dark:     r.HasDarkBackground(),

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Error:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Success:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.Tab = r.NewStyle().Foreground(t.Secondary).Padding(0, 1)
	t.ActiveTab = r.NewStyle().Foreground(t.Primary).Bold(true).Underline(true).Padding(0, 1)
	t.Footer = r.NewStyle().Foreground(t.Subtext)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.ErrorText = r.NewStyle().Foreground(t.Error).Bold(true)
	t.OKText = r.NewStyle().Foreground(t.Success)
	t.Label = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Overlay = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)
	return t
}

// GlamourStyle is the standard glamour style matching the background.
func (t Theme) GlamourStyle() string {
	if t.Dark {
		return "dark"
	}
	return "light"
}

// Cell returns a style painting text in a data color.
func (t Theme) Cell(hex string) lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(ThemeFg(hex))
}
