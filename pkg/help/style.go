package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	commandStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	argumentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	shortcutStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle     = lipgloss.NewStyle().Bold(true)
)

// Header styles a section title.
func Header(text string) string { return headerStyle.Render(text) }

// StyleCategory styles a category label.
func StyleCategory(text string) string { return categoryStyle.Render(text) }

// StyleCommand styles a command name such as "/answer".
func StyleCommand(text string) string { return commandStyle.Render(text) }

// Argument styles command arguments and placeholders.
func Argument(text string) string { return argumentStyle.Render(text) }

// Shortcut styles an alias or key such as "/q" or "Ctrl+D".
func Shortcut(text string) string { return shortcutStyle.Render(text) }

// Dim styles secondary text.
func Dim(text string) string { return dimStyle.Render(text) }

// Bold styles emphasized text.
func Bold(text string) string { return boldStyle.Render(text) }

// Arrow returns the separator between an example and its description.
func Arrow() string { return Dim(" -> ") }

// CommandWithShortcut formats "/help (or /h)".
func CommandWithShortcut(cmd, shortcut string) string {
	if shortcut == "" {
		return StyleCommand(cmd)
	}
	return StyleCommand(cmd) + Dim(" (or ") + Shortcut(shortcut) + Dim(")")
}

// HighlightExampleCommand styles the command word and its arguments
// separately: "/answer 1a c".
func HighlightExampleCommand(cmd string) string {
	name, args, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	if name == "" {
		return ""
	}
	out := StyleCommand(name)
	if args = strings.TrimLeft(args, " "); args != "" {
		out += Argument(" " + args)
	}
	return out
}

// ExampleLine formats an example with its description.
func ExampleLine(cmd, desc string) string {
	return "  " + HighlightExampleCommand(cmd) + Arrow() + Dim(desc)
}

// DisplayWidth returns the printed width of s, ignoring escape codes.
func DisplayWidth(s string) int { return lipgloss.Width(s) }

// PadRight pads s with spaces to width printed columns.
func PadRight(s string, width int) string {
	if w := DisplayWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
