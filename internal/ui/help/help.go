package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/saint-community/querybuilder/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"f", "Open filter builder"},
		{"Tab", "Switch between builder and results"},
	}
}

// GetBuilderKeys returns filter builder key bindings
func GetBuilderKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move between rows"},
		{"a", "Add condition to the current group"},
		{"g", "Add nested group"},
		{"o", "Toggle AND/OR of the current group"},
		{"d, x", "Delete row"},
		{"Enter", "Edit field, then operator, then value"},
		{"y", "Copy filter JSON to clipboard"},
		{"s", "Run search"},
		{"Esc", "Cancel edit or close builder"},
	}
}

// GetResultKeys returns result table key bindings
func GetResultKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move selection"},
		{"PgUp/PgDn", "Page through results"},
		{"n/p", "Next/previous page"},
		{"e", "Export page to file"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Filter Builder", GetBuilderKeys()},
		{"Results", GetResultKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Group).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	// Title
	b.WriteString(titleStyle.Render("querybuilder - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	// Wrap in a box
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 10))

	return boxStyle.Render(b.String())
}
