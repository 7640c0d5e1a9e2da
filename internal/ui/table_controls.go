package ui

import "welfaredesk/internal/table"

// tableController is the column and cursor surface of a screen's table,
// driven by the root model's nav-mode keys.
type tableController interface {
	MoveUp()
	MoveDown()
	JumpToTop()
	JumpToBottom()
	HalfPageDown()
	HalfPageUp()
	NextColumn()
	PrevColumn()
	JumpToColumn(number int) bool
	SortActiveColumn(desc bool) bool
	CycleSortActiveColumn() string
	HideActiveColumn() bool
	ShowAllColumns()
	CycleFilterBySelectedValue() string
	ClearFilter() bool
	TableMeta() string
	Prefs() table.Prefs
	ApplyPrefs(prefs table.Prefs)
}
