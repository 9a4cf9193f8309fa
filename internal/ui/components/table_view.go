package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/saint-community/querybuilder/internal/export"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/ui/theme"
)

// TableView displays one page of search results with virtual scrolling
type TableView struct {
	Columns []string
	Rows    [][]string
	Members []models.Member
	Width   int
	Height  int
	Theme   theme.Theme

	// Virtual scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int

	// Position of the page within the whole result
	Offset    int
	TotalRows int

	// Column widths (calculated)
	ColumnWidths []int
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Columns:      []string{},
		Rows:         [][]string{},
		ColumnWidths: []int{},
		Theme:        th,
	}
}

// SetMembers replaces the page being shown. offset is the index of the
// first member within the total result.
func (tv *TableView) SetMembers(members []models.Member, offset, total int) {
	rows := make([][]string, len(members))
	for i, m := range members {
		rows[i] = export.Row(m)
	}
	tv.Members = members
	tv.Offset = offset
	tv.SetData(export.Header, rows, total)
}

// SetData sets the table data
func (tv *TableView) SetData(columns []string, rows [][]string, totalRows int) {
	tv.Columns = columns
	tv.Rows = rows
	tv.TotalRows = totalRows
	tv.TopRow = 0
	tv.SelectedRow = 0
	tv.calculateColumnWidths()
}

// Selected returns the member under the cursor
func (tv *TableView) Selected() (models.Member, bool) {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.Members) {
		return models.Member{}, false
	}
	return tv.Members[tv.SelectedRow], true
}

// calculateColumnWidths calculates optimal column widths
func (tv *TableView) calculateColumnWidths() {
	if len(tv.Columns) == 0 {
		return
	}

	tv.ColumnWidths = make([]int, len(tv.Columns))

	// Start with column header lengths
	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = lipgloss.Width(col)
	}

	// Check row data
	for _, row := range tv.Rows {
		for i, cell := range row {
			if i < len(tv.ColumnWidths) {
				cellLen := lipgloss.Width(cell)
				if cellLen > tv.ColumnWidths[i] {
					tv.ColumnWidths[i] = cellLen
				}
			}
		}
	}

	// Apply max width constraint
	maxWidth := 30
	for i := range tv.ColumnWidths {
		if tv.ColumnWidths[i] > maxWidth {
			tv.ColumnWidths[i] = maxWidth
		}
		// Min width
		if tv.ColumnWidths[i] < 6 {
			tv.ColumnWidths[i] = 6
		}
	}
}

// View renders the table
func (tv *TableView) View() string {
	style := lipgloss.NewStyle().Foreground(tv.Theme.Foreground)
	if len(tv.Rows) == 0 {
		msg := "No results. Press f to build a filter."
		if len(tv.Columns) > 0 {
			msg = "No members match the filter."
		}
		return style.Foreground(tv.Theme.Muted).Render(msg)
	}

	var b strings.Builder

	// Render header
	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())
	b.WriteString("\n")

	// Header + separator + status
	tv.VisibleRows = tv.Height - 3
	if tv.VisibleRows < 1 {
		tv.VisibleRows = 1
	}

	endRow := tv.TopRow + tv.VisibleRows
	if endRow > len(tv.Rows) {
		endRow = len(tv.Rows)
	}

	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(tv.renderRow(i))
		if i < endRow-1 {
			b.WriteString("\n")
		}
	}

	// Render status
	b.WriteString("\n")
	b.WriteString(tv.renderStatus())

	return style.MaxWidth(tv.Width).Render(b.String())
}

func (tv *TableView) renderHeader() string {
	var parts []string
	for i, col := range tv.Columns {
		parts = append(parts, tv.pad(col, tv.ColumnWidths[i]))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.Border)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator() string {
	var parts []string
	for _, width := range tv.ColumnWidths {
		parts = append(parts, strings.Repeat("─", width))
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(index int) string {
	row := tv.Rows[index]
	var parts []string
	for i, cell := range row {
		if i >= len(tv.ColumnWidths) {
			break
		}
		parts = append(parts, tv.pad(cell, tv.ColumnWidths[i]))
	}

	line := " " + strings.Join(parts, " │ ") + " "

	switch {
	case index == tv.SelectedRow:
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowSelected).
			Foreground(tv.Theme.Foreground).
			Bold(true).
			Render(line)
	case index%2 == 1:
		return lipgloss.NewStyle().Background(tv.Theme.TableRowOdd).Render(line)
	default:
		return lipgloss.NewStyle().Background(tv.Theme.TableRowEven).Render(line)
	}
}

func (tv *TableView) renderStatus() string {
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(" " + tv.Status())
}

// Status describes which slice of the total result is on screen
func (tv *TableView) Status() string {
	if len(tv.Rows) == 0 {
		return fmt.Sprintf("0 of %d members", tv.TotalRows)
	}
	return fmt.Sprintf("%d-%d of %d members", tv.Offset+1, tv.Offset+len(tv.Rows), tv.TotalRows)
}

func (tv *TableView) pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	if len(tv.Rows) == 0 {
		return
	}
	tv.SelectedRow += delta

	// Bounds checking
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}

	// Adjust visible window if needed
	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// PageUp moves the selection up one screen
func (tv *TableView) PageUp() {
	tv.SelectedRow -= tv.VisibleRows
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	tv.TopRow = tv.SelectedRow
}

// PageDown moves the selection down one screen
func (tv *TableView) PageDown() {
	if len(tv.Rows) == 0 {
		return
	}
	tv.SelectedRow += tv.VisibleRows
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	tv.TopRow = tv.SelectedRow
	if tv.TopRow+tv.VisibleRows > len(tv.Rows) {
		tv.TopRow = len(tv.Rows) - tv.VisibleRows
		if tv.TopRow < 0 {
			tv.TopRow = 0
		}
	}
}
