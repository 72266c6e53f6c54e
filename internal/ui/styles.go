// Package ui renders terminal output for the docmirror CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02BF87"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"})
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

func init() {
	if !IsTerminal() || os.Getenv("NO_COLOR") != "" {
		DisableColor()
	}
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// DisableColor switches all styles to plain text.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// RenderAccent renders s in the accent color.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderPass renders a success marker or message.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders a warning marker or message.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders an error marker or message.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderMuted renders secondary text.
func RenderMuted(s string) string { return mutedStyle.Render(s) }
