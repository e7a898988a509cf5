// Package tui provides the terminal UI for Saucy using Charm libraries
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - warm sauce tones over a neutral base
var (
	// Primary colors
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#EA580C", Dark: "#FB923C"} // Orange
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#0EA5E9", Dark: "#38BDF8"} // Sky blue
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#DB2777", Dark: "#F472B6"} // Pink

	// Semantic colors
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"} // Emerald
	ColorWarning = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"} // Amber
	ColorError   = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"} // Red
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#6366F1", Dark: "#818CF8"} // Indigo

	// Neutral colors
	ColorText   = lipgloss.AdaptiveColor{Light: "#1E293B", Dark: "#F1F5F9"}
	ColorSubtle = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#64748B"}
	ColorBorder = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}

	// Special colors
	ColorSauce = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#F97316"} // Sauce orange
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			MarginBottom(1)

	BodyStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	FocusedBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	BadgeStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#FFFFFF"))

	BadgeDemoStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(ColorWarning).
			Foreground(lipgloss.Color("#000000"))
)

// Application header
var SaucyASCII = `
  ___  __ _ _   _  ___ _   _
 / __|/ _' | | | |/ __| | | |
 \__ \ (_| | |_| | (__| |_| |
 |___/\__,_|\__,_|\___|\__, |
                       |___/
`

// GetSaucyHeader returns the styled header
func GetSaucyHeader() string {
	return lipgloss.NewStyle().
		Foreground(ColorSauce).
		Bold(true).
		Render(SaucyASCII)
}

// DemoBadge renders the demo-mode banner shown when no key is configured
func DemoBadge(message string) string {
	return BadgeDemoStyle.Render("DEMO") + " " + MutedStyle.Render(message)
}

// ProgressBar renders a simple block progress bar with a percentage
func ProgressBar(current, total int, width int) string {
	if total == 0 {
		total = 1
	}

	percentage := float64(current) / float64(total)
	filled := int(percentage * float64(width))
	if filled > width {
		filled = width
	}

	filledChar := lipgloss.NewStyle().Foreground(ColorPrimary).Render("█")
	emptyChar := lipgloss.NewStyle().Foreground(ColorBorder).Render("░")

	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += filledChar
		} else {
			bar += emptyChar
		}
	}

	percentText := lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(fmt.Sprintf(" %3d%%", int(percentage*100)))

	return bar + percentText
}

// SpinnerFrames animates a sauce drop while waiting on the provider
var SpinnerFrames = []string{
	"( s )  ",
	"( s ) .",
	"( s )..",
	"( s ). ",
	"( s )  ",
}

// Card renders a bordered card with a title
func Card(title, content string, width int) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1)

	contentStyle := lipgloss.NewStyle().
		Foreground(ColorText)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(1, 2).
		Width(width)

	return cardStyle.Render(titleStyle.Render(title) + "\n" + contentStyle.Render(content))
}

// KeyHelp renders keyboard shortcut help
func KeyHelp(pairs [][2]string) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(ColorMuted)

	var out string
	sep := lipgloss.NewStyle().Foreground(ColorBorder).Render(" | ")
	for i, p := range pairs {
		if i > 0 {
			out += sep
		}
		out += keyStyle.Render(p[0]) + descStyle.Render(" "+p[1])
	}
	return helpStyle.Render(out)
}
