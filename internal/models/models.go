package models

// AppState holds the interactive application state
type AppState struct {
	Width          int
	Height         int
	LeftPanelWidth int
	FocusedPanel   PanelType
	ViewMode       ViewMode

	// Result paging
	Filter FilterGroup
	Offset int
	Limit  int
	Total  int
}

// PanelType identifies which panel is focused
type PanelType int

const (
	LeftPanel PanelType = iota
	RightPanel
)

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:          80,
		Height:         24,
		LeftPanelWidth: 40,
		FocusedPanel:   LeftPanel,
		ViewMode:       NormalMode,
		Filter:         FilterGroup{Operator: LogicAnd, Conditions: []Node{}},
	}
}

// HasNextPage reports whether rows remain after the current page
func (s AppState) HasNextPage() bool {
	return s.Limit > 0 && s.Offset+s.Limit < s.Total
}

// HasPrevPage reports whether the current page is not the first
func (s AppState) HasPrevPage() bool {
	return s.Offset > 0
}
