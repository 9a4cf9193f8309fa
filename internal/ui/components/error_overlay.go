package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/saint-community/querybuilder/internal/ui/theme"
)

// ErrorOverlay shows a dismissible error box
type ErrorOverlay struct {
	Title   string
	Message string
	Width   int
	Theme   theme.Theme
}

// NewErrorOverlay creates an empty error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Width: 60, Theme: th}
}

// SetError sets the error title and message
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(e.Theme.Error).
		Render("✗ " + e.Title)
	body := lipgloss.NewStyle().
		Foreground(e.Theme.Foreground).
		Width(e.Width - 4).
		Render(e.Message)
	hint := lipgloss.NewStyle().
		Foreground(e.Theme.Muted).
		Render("Press Esc or Enter to dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))
}
