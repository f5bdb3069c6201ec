// Package theme holds the light and dark palettes of the reader and the
// lipgloss styles built from them.
package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Modes accepted by Resolve.
const (
	Auto  = "auto"
	Light = "light"
	Dark  = "dark"
)

// Palette is the set of colors a theme is built from.
type Palette struct {
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Accent    lipgloss.Color
	Highlight lipgloss.Color
	Warning   lipgloss.Color
}

var (
	lightPalette = Palette{
		Text:      lipgloss.Color("#222222"),
		Muted:     lipgloss.Color("#777777"),
		Accent:    lipgloss.Color("#8A3FFC"),
		Highlight: lipgloss.Color("#E8DAFF"),
		Warning:   lipgloss.Color("#B25E00"),
	}
	darkPalette = Palette{
		Text:      lipgloss.Color("#DDDDDD"),
		Muted:     lipgloss.Color("#888888"),
		Accent:    lipgloss.Color("#FFAA00"),
		Highlight: lipgloss.Color("#3A3A3A"),
		Warning:   lipgloss.Color("#FF5F5F"),
	}
)

// Validate checks that mode is one of Auto, Light or Dark.
func Validate(mode string) error {
	switch mode {
	case Auto, Light, Dark:
		return nil
	}
	return fmt.Errorf("invalid theme %q (use auto|light|dark)", mode)
}

// Resolve turns a mode into a concrete palette. Auto asks the terminal.
func Resolve(mode string) (Palette, string) {
	if mode == Auto {
		mode = Light
		if lipgloss.HasDarkBackground() {
			mode = Dark
		}
	}
	if mode == Light {
		return lightPalette, Light
	}
	return darkPalette, Dark
}

// Toggle flips between light and dark.
func Toggle(mode string) string {
	if mode == Dark {
		return Light
	}
	return Dark
}

// Styles are the rendered pieces of the reader UI.
type Styles struct {
	Mode string

	Text     lipgloss.Style
	Heading  lipgloss.Style
	Status   lipgloss.Style
	Controls lipgloss.Style
	Warning  lipgloss.Style

	Page        lipgloss.Style
	PageCurrent lipgloss.Style
	PageFocus   lipgloss.Style
	Gap         lipgloss.Style

	TOCBorder lipgloss.Style
	TOCTitle  lipgloss.Style
	TOCItem   lipgloss.Style
	TOCActive lipgloss.Style
	TOCCursor lipgloss.Style
	TOCCustom lipgloss.Style
}

// New builds the styles for mode.
func New(mode string) Styles {
	p, resolved := Resolve(mode)
	return Styles{
		Mode: resolved,

		Text:     lipgloss.NewStyle().Foreground(p.Text),
		Heading:  lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Status:   lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),
		Controls: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		Warning:  lipgloss.NewStyle().Foreground(p.Warning).Bold(true),

		Page:        lipgloss.NewStyle().Foreground(p.Text).Padding(0, 1),
		PageCurrent: lipgloss.NewStyle().Foreground(p.Accent).Bold(true).Padding(0, 1),
		PageFocus:   lipgloss.NewStyle().Foreground(p.Text).Background(p.Highlight).Padding(0, 1),
		Gap:         lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),

		TOCBorder: lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(p.Muted),
		TOCTitle:  lipgloss.NewStyle().Foreground(p.Muted).Bold(true),
		TOCItem:   lipgloss.NewStyle().Foreground(p.Text),
		TOCActive: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		TOCCursor: lipgloss.NewStyle().Background(p.Highlight),
		TOCCustom: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
	}
}
