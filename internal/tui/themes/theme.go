// Package themes holds color schemes for the history browser.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	Header        lipgloss.Style
	Footer        lipgloss.Style
	FilterActive  lipgloss.Style
	StatusError   lipgloss.Style
	StatusPending lipgloss.Style
	StatusSuccess lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Error         lipgloss.Color
	Success       lipgloss.Color
}

func build(primary, muted, border, foreground, errColor, success lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Muted:   muted,
		Border:  border,
		Error:   errColor,
		Success: success,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted),
		Normal: lipgloss.NewStyle().
			Foreground(foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(foreground),
		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(foreground).
			Bold(true),
		Header: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(border),
		Footer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(border).
			Foreground(muted),
		FilterActive: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		StatusSuccess: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),
	}
}

// Default is the default theme.
var Default = build(
	lipgloss.Color("#2E7D32"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#ef4444"),
	lipgloss.Color("#66BB6A"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(
	lipgloss.Color("#a6e3a1"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#f38ba8"),
	lipgloss.Color("#94e2d5"),
)

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
