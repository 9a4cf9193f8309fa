package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/saint-community/querybuilder/internal/config"
	"github.com/saint-community/querybuilder/internal/export"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/store"
	"github.com/saint-community/querybuilder/internal/ui/components"
	"github.com/saint-community/querybuilder/internal/ui/help"
	"github.com/saint-community/querybuilder/internal/ui/theme"
)

const searchTimeout = 30 * time.Second

// App is the main application model
type App struct {
	state      models.AppState
	config     *config.Config
	theme      theme.Theme
	leftPanel  components.Panel
	rightPanel components.Panel
	searcher   store.Searcher
	logger     *zap.Logger

	// Error overlay
	showError    bool
	errorOverlay *components.ErrorOverlay

	filterBuilder *components.FilterBuilder
	tableView     *components.TableView

	searching bool
	status    string
	exportDir string
	now       func() time.Time
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// SearchCompleteMsg carries the outcome of a search
type SearchCompleteMsg struct {
	Result store.Result
	Err    error
}

// ExportCompleteMsg is sent once the current page has been written out
type ExportCompleteMsg struct {
	Path  string
	Count int
	Err   error
}

// New creates a new App. searcher runs every search the builder submits.
func New(cfg *config.Config, searcher store.Searcher, logger *zap.Logger) *App {
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	state := models.NewAppState()
	state.Limit = cfg.Store.DefaultLimit

	th := theme.GetTheme(cfg.UI.Theme)

	fb := components.NewFilterBuilder(th)
	fb.SetTable(cfg.Store.Table)

	app := &App{
		state:         state,
		config:        cfg,
		theme:         th,
		searcher:      searcher,
		logger:        logger,
		errorOverlay:  components.NewErrorOverlay(th),
		filterBuilder: fb,
		tableView:     components.NewTableView(th),
		exportDir:     ".",
		now:           time.Now,
		leftPanel: components.Panel{
			Title: "Filter",
			Style: lipgloss.NewStyle().BorderForeground(th.BorderFocused),
		},
		rightPanel: components.Panel{
			Title: "Members",
			Style: lipgloss.NewStyle().BorderForeground(th.Border),
		},
	}

	// Set initial panel dimensions and styles
	app.updatePanelDimensions()
	app.updatePanelStyles()

	return app
}

// SetFilter loads a filter tree into the builder
func (a *App) SetFilter(g models.FilterGroup) {
	a.filterBuilder.SetFilter(g)
}

// SetExportDir sets where exported pages are written
func (a *App) SetExportDir(dir string) {
	a.exportDir = dir
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case components.ApplyFilterMsg:
		a.state.Filter = msg.Filter
		a.state.Offset = 0
		return a, a.search()

	case components.CloseFilterBuilderMsg:
		a.focus(models.RightPanel)
		return a, nil

	case SearchCompleteMsg:
		a.searching = false
		if msg.Err != nil {
			title := "Search Failed"
			if errors.Is(msg.Err, store.ErrInvalidFilter) {
				title = "Invalid Filter"
			}
			a.ShowError(title, msg.Err.Error())
			return a, nil
		}
		a.state.Offset = msg.Result.Offset
		a.state.Limit = msg.Result.Limit
		a.state.Total = msg.Result.Total
		a.tableView.SetMembers(msg.Result.Members, msg.Result.Offset, msg.Result.Total)
		a.status = a.tableView.Status()
		a.focus(models.RightPanel)
		return a, nil

	case ExportCompleteMsg:
		if msg.Err != nil {
			a.ShowError("Export Failed", msg.Err.Error())
			return a, nil
		}
		a.status = fmt.Sprintf("Exported %d members to %s", msg.Count, msg.Path)
		return a, nil

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Handle error overlay dismissal first if visible
	if a.showError {
		if key == "esc" || key == "enter" {
			a.DismissError()
			return a, nil
		}
		// Allow quit keys to pass through even when error is showing
		if key == "q" || key == "ctrl+c" {
			return a, tea.Quit
		}
		return a, nil
	}

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.state.ViewMode == models.HelpMode {
		if key == "?" || key == "esc" || key == "q" {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	// While a condition is being edited every key belongs to the builder
	if a.state.FocusedPanel == models.LeftPanel && a.filterBuilder.Editing() {
		var cmd tea.Cmd
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return a, nil
	case "tab":
		if a.state.FocusedPanel == models.LeftPanel {
			a.focus(models.RightPanel)
		} else {
			a.focus(models.LeftPanel)
		}
		return a, nil
	case "f":
		a.focus(models.LeftPanel)
		return a, nil
	}

	if a.state.FocusedPanel == models.LeftPanel {
		var cmd tea.Cmd
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	}
	return a.handleResultKey(key)
}

// handleResultKey handles keys when the result table is focused
func (a *App) handleResultKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "down", "j":
		a.tableView.MoveSelection(1)
	case "pgup", "ctrl+u":
		a.tableView.PageUp()
	case "pgdown", "ctrl+d":
		a.tableView.PageDown()
	case "n":
		if a.state.HasNextPage() && !a.searching {
			a.state.Offset += a.state.Limit
			return a, a.search()
		}
	case "p":
		if a.state.HasPrevPage() && !a.searching {
			a.state.Offset -= a.state.Limit
			if a.state.Offset < 0 {
				a.state.Offset = 0
			}
			return a, a.search()
		}
	case "e":
		return a, a.exportPage()
	}
	return a, nil
}

// search runs the current filter page in the background
func (a *App) search() tea.Cmd {
	if a.searcher == nil {
		return func() tea.Msg {
			return SearchCompleteMsg{Err: errors.New("no member store configured")}
		}
	}
	a.searching = true
	a.status = "Searching..."
	searcher := a.searcher
	req := store.Request{Filter: a.state.Filter, Limit: a.state.Limit, Offset: a.state.Offset}
	logger := a.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		result, err := searcher.Search(ctx, req)
		if err != nil {
			logger.Debug("search failed", zap.Error(err))
		}
		return SearchCompleteMsg{Result: result, Err: err}
	}
}

// exportPage writes the members on screen to a timestamped CSV file
func (a *App) exportPage() tea.Cmd {
	members := a.tableView.Members
	if len(members) == 0 {
		a.status = "Nothing to export"
		return nil
	}
	path := filepath.Join(a.exportDir, fmt.Sprintf("members-%s.csv", a.now().Format("20060102-150405")))
	return func() tea.Msg {
		err := export.ExportToCSV(members, path)
		return ExportCompleteMsg{Path: path, Count: len(members), Err: err}
	}
}

func (a *App) focus(p models.PanelType) {
	a.state.FocusedPanel = p
	a.updatePanelStyles()
}

// View implements tea.Model
func (a *App) View() string {
	// If error overlay is showing, render it centered on top of everything
	if a.showError {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(),
		)
	}

	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	return a.renderNormalView()
}

// renderNormalView renders the builder and result panels
func (a *App) renderNormalView() string {
	topBarRight := a.config.Store.Backend
	if a.searching {
		topBarRight = "searching..."
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Background).
		Padding(0, 2).
		Render(a.formatStatusBar("querybuilder", topBarRight))

	bottomBarLeft := "[tab] Switch panel | [?] Help | [q] Quit"
	if a.state.FocusedPanel == models.RightPanel {
		bottomBarLeft = "[n/p] Page | [e] Export | [f] Filter | [q] Quit"
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomBarLeft, a.status))

	a.filterBuilder.Width = a.leftPanel.Width - 2
	a.filterBuilder.Height = a.leftPanel.Height - 2
	a.leftPanel.Content = a.filterBuilder.View()

	a.tableView.Width = a.rightPanel.Width
	a.tableView.Height = a.rightPanel.Height - 1
	a.rightPanel.Content = a.tableView.View()

	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.leftPanel.View(),
		a.rightPanel.View(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topBar,
		panels,
		bottomBar,
	)
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Top and bottom bars take one line each
	contentHeight := a.state.Height - 2
	if contentHeight < 5 {
		contentHeight = 5
	}

	// Each panel has a two column border
	leftWidth := (a.state.Width * a.state.LeftPanelWidth) / 100
	if leftWidth < 30 {
		leftWidth = 30
	}

	rightWidth := a.state.Width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = a.state.Width - rightWidth - 4
	}

	a.leftPanel.Width = leftWidth
	a.leftPanel.Height = contentHeight
	a.rightPanel.Width = rightWidth
	a.rightPanel.Height = contentHeight
}

// updatePanelStyles updates panel styling based on focus
func (a *App) updatePanelStyles() {
	if a.state.FocusedPanel == models.LeftPanel {
		a.leftPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
		a.rightPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
	} else {
		a.leftPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
		a.rightPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
	}
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side = 4 total)
	availableWidth := a.state.Width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)

	if leftLen+rightLen > availableWidth {
		return lipgloss.NewStyle().MaxWidth(availableWidth).Render(left + " " + right)
	}

	spacing := availableWidth - leftLen - rightLen
	return left + lipgloss.NewStyle().Width(spacing).Render("") + right
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}
