package components

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-multierror"

	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/ui/theme"
)

// ApplyFilterMsg is sent when the filter should be searched
type ApplyFilterMsg struct {
	Filter models.FilterGroup
}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

type editStage int

const (
	stageNone editStage = iota
	stageField
	stageOperator
	stageValue
)

// FilterBuilder edits a filter tree interactively. Every edit goes
// through the copy-on-write tree functions, so the tree it hands out is
// never mutated afterwards.
type FilterBuilder struct {
	Width   int
	Height  int
	Theme   theme.Theme
	builder *filter.Builder

	// State
	table           string
	root            models.FilterGroup
	rows            []filter.Row
	cursor          int
	stage           editStage
	fieldIndex      int
	operatorIndex   int
	availableOps    []models.Operator
	draft           models.FilterCondition
	valueInput      textinput.Model
	validationError string
	status          string
	previewSQL      string

	copyToClipboard func(string) error
}

// NewFilterBuilder creates a new filter builder over an empty tree
func NewFilterBuilder(th theme.Theme) *FilterBuilder {
	input := textinput.New()
	input.Prompt = "Value: "
	input.CharLimit = 256

	fb := &FilterBuilder{
		Width:           80,
		Height:          30,
		Theme:           th,
		builder:         filter.NewBuilder(),
		table:           "members",
		valueInput:      input,
		copyToClipboard: clipboard.WriteAll,
	}
	fb.SetFilter(filter.NewGroup())
	return fb
}

// SetTable sets the table name shown in the SQL preview
func (fb *FilterBuilder) SetTable(table string) {
	fb.table = table
	fb.updatePreview()
}

// SetFilter replaces the tree being edited
func (fb *FilterBuilder) SetFilter(g models.FilterGroup) {
	if g.Operator == "" {
		g.Operator = models.LogicAnd
	}
	fb.root = g
	fb.cursor = 0
	fb.stage = stageNone
	fb.refresh()
}

// Filter returns the tree as currently edited
func (fb *FilterBuilder) Filter() models.FilterGroup {
	return fb.root
}

// Editing reports whether a condition is being edited
func (fb *FilterBuilder) Editing() bool {
	return fb.stage != stageNone
}

// Update handles keyboard input
func (fb *FilterBuilder) Update(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch fb.stage {
	case stageField:
		return fb.handleFieldMode(msg)
	case stageOperator:
		return fb.handleOperatorMode(msg)
	case stageValue:
		return fb.handleValueMode(msg)
	default:
		return fb.handleNavigationMode(msg)
	}
}

// handleNavigationMode handles keys while moving over the tree
func (fb *FilterBuilder) handleNavigationMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	fb.status = ""
	switch msg.String() {
	case "up", "k":
		if fb.cursor > 0 {
			fb.cursor--
		}
	case "down", "j":
		if fb.cursor < len(fb.rows)-1 {
			fb.cursor++
		}
	case "a", "n":
		fb.addChild(filter.AddCondition)
	case "g":
		fb.addChild(filter.AddGroup)
	case "o":
		fb.edit(fb.currentGroupPath(), func(g models.FilterGroup) (models.FilterGroup, error) {
			return filter.ToggleOperator(g), nil
		})
	case "d", "x":
		fb.deleteCurrent()
	case "enter":
		fb.beginEdit()
	case "y":
		fb.copyFilter()
	case "s":
		if err := fb.root.Complete(); err != nil {
			fb.validationError = summarize(err)
			return fb, nil
		}
		fb.validationError = ""
		group := fb.root
		return fb, func() tea.Msg {
			return ApplyFilterMsg{Filter: group}
		}
	case "esc":
		return fb, func() tea.Msg {
			return CloseFilterBuilderMsg{}
		}
	}
	return fb, nil
}

// handleFieldMode handles field selection
func (fb *FilterBuilder) handleFieldMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.stage = stageNone
		fb.validationError = ""
	case "up", "k":
		if fb.fieldIndex > 0 {
			fb.fieldIndex--
		}
	case "down", "j":
		if fb.fieldIndex < len(models.Fields)-1 {
			fb.fieldIndex++
		}
	case "enter":
		next, err := filter.SetField(fb.draft, models.Fields[fb.fieldIndex].Name)
		if err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		if !fb.commit(next) {
			return fb, nil
		}
		fb.availableOps = filter.OperatorsForField(fb.draft.Field)
		fb.operatorIndex = indexOf(fb.availableOps, fb.draft.Operator)
		fb.stage = stageOperator
	}
	return fb, nil
}

// handleOperatorMode handles operator selection
func (fb *FilterBuilder) handleOperatorMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.stage = stageField
	case "up", "k":
		if fb.operatorIndex > 0 {
			fb.operatorIndex--
		}
	case "down", "j":
		if fb.operatorIndex < len(fb.availableOps)-1 {
			fb.operatorIndex++
		}
	case "enter":
		next, err := filter.SetOperator(fb.draft, fb.availableOps[fb.operatorIndex])
		if err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		if !fb.commit(next) {
			return fb, nil
		}
		fb.valueInput.SetValue(FormatValue(fb.draft.Value))
		fb.valueInput.Placeholder = valueHint(fb.draft)
		fb.valueInput.CursorEnd()
		fb.stage = stageValue
		return fb, fb.valueInput.Focus()
	}
	return fb, nil
}

// handleValueMode handles value input
func (fb *FilterBuilder) handleValueMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.valueInput.Blur()
		fb.stage = stageOperator
		fb.validationError = ""
		return fb, nil
	case "enter":
		field, _ := models.LookupField(fb.draft.Field)
		value, err := ParseValue(field, fb.draft.Operator, fb.valueInput.Value())
		if err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		next := fb.draft
		next.Value = value
		if !fb.commit(next) {
			return fb, nil
		}
		fb.valueInput.Blur()
		fb.stage = stageNone
		return fb, nil
	}

	var cmd tea.Cmd
	fb.valueInput, cmd = fb.valueInput.Update(msg)
	return fb, cmd
}

func (fb *FilterBuilder) currentRow() filter.Row {
	if fb.cursor < 0 || fb.cursor >= len(fb.rows) {
		return filter.Row{Path: filter.Path{}, Node: fb.root}
	}
	return fb.rows[fb.cursor]
}

// currentGroupPath is the group under the cursor, or the group enclosing
// the condition under the cursor
func (fb *FilterBuilder) currentGroupPath() filter.Path {
	row := fb.currentRow()
	if row.IsGroup() {
		return row.Path
	}
	parent, _ := row.Path.Parent()
	return parent
}

func (fb *FilterBuilder) addChild(add func(models.FilterGroup) models.FilterGroup) {
	path := fb.currentGroupPath()
	var index int
	ok := fb.edit(path, func(g models.FilterGroup) (models.FilterGroup, error) {
		index = len(g.Conditions)
		return add(g), nil
	})
	if ok {
		fb.moveTo(path.Child(index))
	}
}

func (fb *FilterBuilder) deleteCurrent() {
	row := fb.currentRow()
	parent, index := row.Path.Parent()
	if index < 0 {
		fb.status = "The root group cannot be deleted"
		return
	}
	fb.edit(parent, func(g models.FilterGroup) (models.FilterGroup, error) {
		return filter.DeleteChild(g, index), nil
	})
}

func (fb *FilterBuilder) beginEdit() {
	cond, ok := fb.currentRow().Node.(models.FilterCondition)
	if !ok {
		fb.status = "Press o to toggle a group, a to add a condition"
		return
	}
	fb.draft = cond
	fb.fieldIndex = 0
	for i, f := range models.Fields {
		if f.Name == cond.Field {
			fb.fieldIndex = i
		}
	}
	fb.validationError = ""
	fb.stage = stageField
}

// commit writes next over the condition under the cursor. On success the
// draft becomes the stored, normalized condition.
func (fb *FilterBuilder) commit(next models.FilterCondition) bool {
	row := fb.currentRow()
	parent, index := row.Path.Parent()
	ok := fb.edit(parent, func(g models.FilterGroup) (models.FilterGroup, error) {
		return filter.UpdateChild(g, index, next)
	})
	if !ok {
		return false
	}
	if stored, found := filter.NodeAt(fb.root, row.Path); found {
		if cond, isCond := stored.(models.FilterCondition); isCond {
			fb.draft = cond
		}
	}
	return true
}

func (fb *FilterBuilder) edit(path filter.Path, fn func(models.FilterGroup) (models.FilterGroup, error)) bool {
	updated, err := filter.EditGroup(fb.root, path, fn)
	if err != nil {
		fb.validationError = summarize(err)
		return false
	}
	fb.validationError = ""
	fb.root = updated
	fb.refresh()
	return true
}

func (fb *FilterBuilder) moveTo(path filter.Path) {
	for i, r := range fb.rows {
		if r.Path.Equal(path) {
			fb.cursor = i
			return
		}
	}
}

func (fb *FilterBuilder) refresh() {
	fb.rows = filter.Rows(fb.root)
	if fb.cursor >= len(fb.rows) {
		fb.cursor = len(fb.rows) - 1
	}
	if fb.cursor < 0 {
		fb.cursor = 0
	}
	fb.updatePreview()
}

func (fb *FilterBuilder) copyFilter() {
	data, err := json.MarshalIndent(fb.root, "", "  ")
	if err != nil {
		fb.validationError = err.Error()
		return
	}
	if err := fb.copyToClipboard(string(data)); err != nil {
		fb.validationError = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	fb.status = "Filter JSON copied to clipboard"
}

// updatePreview updates the SQL preview
func (fb *FilterBuilder) updatePreview() {
	whereClause, args, err := fb.builder.BuildWhere(fb.root)
	switch {
	case errors.Is(err, models.ErrIncompleteCondition):
		fb.previewSQL = "-- fill in every condition to see the query"
	case err != nil:
		fb.previewSQL = "-- " + summarize(err)
	case whereClause == "":
		fb.previewSQL = fmt.Sprintf("SELECT * FROM %s", fb.table)
	default:
		fb.previewSQL = fmt.Sprintf("SELECT * FROM %s %s", fb.table, whereClause)
		if len(args) > 0 {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = fmt.Sprintf("$%d=%v", i+1, a)
			}
			fb.previewSQL += "\n-- " + strings.Join(parts, " ")
		}
	}
}

// Preview returns the current SQL preview text
func (fb *FilterBuilder) Preview() string {
	return fb.previewSQL
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	var sections []string

	// Title
	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Background).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Filter Builder"))

	// Instructions based on mode
	instructionStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Muted).
		Padding(0, 1)

	var instructions string
	switch fb.stage {
	case stageField:
		instructions = "↑↓ Select field, Enter to confirm, Esc to cancel"
	case stageOperator:
		instructions = "↑↓ Select operator, Enter to confirm, Esc to go back"
	case stageValue:
		instructions = "Type value, Enter to confirm, Esc to go back"
	default:
		instructions = "a=Add g=Group o=AND/OR d=Delete Enter=Edit y=Copy s=Search Esc=Close"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	// Validation error
	if fb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fb.validationError))
	}
	if fb.status != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(fb.Theme.Success).Padding(0, 1).Render(fb.status))
	}

	// Tree
	sections = append(sections, "")
	for i, row := range fb.rows {
		line := strings.Repeat("  ", row.Depth) + fb.renderNode(row)
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == fb.cursor {
			style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
		}
		sections = append(sections, style.Render(line))
	}

	// Edit area
	switch fb.stage {
	case stageField:
		sections = append(sections, "", "Select field:")
		for i, f := range models.Fields {
			sections = append(sections, fb.renderChoice(fmt.Sprintf("%-20s %s", f.Label, f.Type), i == fb.fieldIndex))
		}
	case stageOperator:
		sections = append(sections, "", fmt.Sprintf("Field: %s", fb.draft.Field), "Select operator:")
		for i, op := range fb.availableOps {
			sections = append(sections, fb.renderChoice(op.Label(), i == fb.operatorIndex))
		}
	case stageValue:
		sections = append(sections, "", fmt.Sprintf("%s %s", fb.draft.Field, fb.draft.Operator.Label()), fb.valueInput.View())
	}

	// SQL Preview
	if fb.previewSQL != "" {
		sections = append(sections, "\nSQL Preview:")
		previewStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Muted).
			Padding(0, 1).
			Italic(true)
		sections = append(sections, previewStyle.Render(fb.previewSQL))
	}

	content := strings.Join(sections, "\n")

	// Container
	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fb.Theme.BorderFocused).
		Foreground(fb.Theme.Foreground).
		Width(fb.Width).
		Height(fb.Height).
		Padding(1)

	return containerStyle.Render(content)
}

func (fb *FilterBuilder) renderNode(row filter.Row) string {
	switch n := row.Node.(type) {
	case models.FilterGroup:
		label := lipgloss.NewStyle().Foreground(fb.Theme.Group).Bold(true).Render(string(n.Operator))
		if len(n.Conditions) == 0 {
			return label + " (matches everything)"
		}
		return fmt.Sprintf("%s (%d)", label, len(n.Conditions))
	case models.FilterCondition:
		if n.Pending() {
			return lipgloss.NewStyle().Foreground(fb.Theme.Pending).Render(n.String())
		}
		return n.String()
	}
	return ""
}

func (fb *FilterBuilder) renderChoice(label string, selected bool) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if selected {
		style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
	}
	return style.Render("  " + label)
}

func indexOf(ops []models.Operator, op models.Operator) int {
	for i, candidate := range ops {
		if candidate == op {
			return i
		}
	}
	return 0
}

// summarize flattens aggregated validation errors into one line
func summarize(err error) string {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		if len(merr.Errors) == 1 {
			return merr.Errors[0].Error()
		}
		return fmt.Sprintf("%s (and %d more)", merr.Errors[0].Error(), len(merr.Errors)-1)
	}
	return err.Error()
}
