// Package ui holds the terminal styling shared by the CLI commands.
package ui

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	colorPrimary   = lipgloss.Color("#0EA5E9") // Sky blue
	colorSuccess   = lipgloss.Color("#22C55E") // Green
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorError     = lipgloss.Color("#EF4444") // Red
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorHighlight = lipgloss.Color("#A855F7") // Purple
	colorDark      = lipgloss.Color("#1F2937") // Dark gray
	colorLight     = lipgloss.Color("#F9FAFB") // Light gray
)

// Component styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	CodeStyle = lipgloss.NewStyle().
			Background(colorDark).
			Foreground(colorLight).
			Padding(0, 1)

	// BoxStyle frames summaries and reports
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			MarginTop(1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(16)
)

// Prefixes for messages
const (
	SuccessPrefix = "✓ "
	ErrorPrefix   = "✗ "
	WarningPrefix = "! "
	InfoPrefix    = "→ "
)

// CreateTheme returns the huh theme used by interactive prompts
func CreateTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(colorPrimary)
	t.Focused.Description = t.Focused.Description.Foreground(colorMuted)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(colorHighlight)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(colorPrimary)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(colorPrimary)

	t.Blurred.Title = t.Blurred.Title.Foreground(colorMuted)

	return t
}

// RenderHeader renders a banner with the given title
func RenderHeader(title string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(colorLight).
		Background(colorPrimary).
		Padding(0, 2).
		Render(" " + title + " ")
}

// RenderSection renders a section divider padded to a fixed width
func RenderSection(title string) string {
	pad := 40 - len(title)
	if pad < 3 {
		pad = 3
	}
	return SectionStyle.Render("─── " + title + " " + strings.Repeat("─", pad))
}

func RenderSuccess(msg string) string {
	return SuccessStyle.Render(SuccessPrefix + msg)
}

func RenderError(msg string) string {
	return ErrorStyle.Render(ErrorPrefix + msg)
}

func RenderWarning(msg string) string {
	return WarningStyle.Render(WarningPrefix + msg)
}

func RenderInfo(msg string) string {
	return MutedStyle.Render(InfoPrefix + msg)
}

func RenderCode(code string) string {
	return CodeStyle.Render(code)
}
