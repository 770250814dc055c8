// Package cli provides styled terminal output and interactive prompts.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/binwise/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#2E7D32")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#66BB6A")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFCA28")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#E53935")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#4FC3F7")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#757575")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor)
	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().Foreground(InfoColor)
	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)
	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 2)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	RecycleIcon = "♻️"
	LeafIcon    = "🌱"
	TrophyIcon  = "🏆"
	ScaleIcon   = "⚖️"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// FormatCategory renders a category label in its display color.
func FormatCategory(c model.WasteCategory) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(c.Color())).
		Render(c.String())
}

// FormatTier renders a tier name in a color matching its rank.
func FormatTier(t model.Tier) string {
	colors := map[model.Tier]string{
		model.TierBronze:   "#CD7F32",
		model.TierSilver:   "#C0C0C0",
		model.TierGold:     "#FFD700",
		model.TierPlatinum: "#E5E4E2",
	}
	color, ok := colors[t]
	if !ok {
		color = string(SubtleColor)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(string(t))
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}
