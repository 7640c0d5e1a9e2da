// Package table is a sortable, paginated data table for one collection of
// entities, with column controls, row actions and loading/empty states.
package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"welfaredesk/internal/model"
)

// Paging selects who owns the page index.
type Paging int

const (
	// ClientPaging slices the loaded rows locally.
	ClientPaging Paging = iota
	// ExternalPaging shows the rows as one server page; page changes are
	// requested through the OnPage callback.
	ExternalPaging
)

// Options configures a table.
type Options struct {
	// Noun names the rows in the status line, e.g. "donations".
	Noun string
	// PageSize of zero shows every row with viewport scrolling.
	PageSize    int
	Paging      Paging
	DefaultSort string
	DefaultDesc bool
	// Empty is shown when there are no rows.
	Empty string
	// Styles defaults to DefaultStyles.
	Styles *Styles
}

// Action is a row action bound to a key.
type Action[T any] struct {
	Binding key.Binding
	Run     func(row T) tea.Cmd
}

// Prefs are the persisted per-table preferences.
type Prefs struct {
	SortKey       string   `json:"sort_key"`
	SortDesc      bool     `json:"sort_desc"`
	HiddenColumns []string `json:"hidden_columns"`
	ActiveColumn  string   `json:"active_column"`
}

// Model is the table state.
type Model[T model.Entity] struct {
	opts    Options
	styles  Styles
	columns []Column[T]
	actions []Action[T]
	onPage  func(page int) tea.Cmd

	all  []T
	rows []T

	page   int
	total  int
	cursor int
	offset int

	viewportHeight int

	activeColumn int
	sortKey      string
	sortDesc     bool
	filterKey    string
	filterValue  string

	loading bool
	spinner spinner.Model
}

// New creates a table over columns.
func New[T model.Entity](columns []Column[T], opts Options) *Model[T] {
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := &Model[T]{
		opts:     opts,
		styles:   styles,
		columns:  slices.Clone(columns),
		page:     1,
		sortKey:  opts.DefaultSort,
		sortDesc: opts.DefaultDesc,
		spinner:  sp,
	}
	return m
}

// SetActions binds row actions.
func (m *Model[T]) SetActions(actions ...Action[T]) {
	m.actions = actions
}

// OnPage sets the callback used to request a page under ExternalPaging.
func (m *Model[T]) OnPage(fn func(page int) tea.Cmd) {
	m.onPage = fn
}

// SetRows replaces the rows, keeping the cursor on the same entity when it
// is still present.
func (m *Model[T]) SetRows(rows []T) {
	current, hadCurrent := m.Current()
	m.all = slices.Clone(rows)
	m.rebuild()
	if hadCurrent {
		m.Focus(current.GetID())
	}
}

// SetTotal records the server-side row count under ExternalPaging.
func (m *Model[T]) SetTotal(total int) {
	m.total = total
}

// SetPage moves to page without requesting it.
func (m *Model[T]) SetPage(page int) {
	m.page = max(1, page)
	m.clampPage()
	m.cursor = 0
	m.offset = 0
}

// Rows returns every row after the cell filter and sort.
func (m *Model[T]) Rows() []T {
	return slices.Clone(m.rows)
}

// PageRows returns the rows of the current page.
func (m *Model[T]) PageRows() []T {
	if m.opts.Paging == ExternalPaging || m.opts.PageSize <= 0 {
		return m.rows
	}
	start := (m.page - 1) * m.opts.PageSize
	if start >= len(m.rows) {
		return nil
	}
	end := min(start+m.opts.PageSize, len(m.rows))
	return m.rows[start:end]
}

// Current returns the row under the cursor.
func (m *Model[T]) Current() (T, bool) {
	rows := m.PageRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		var zero T
		return zero, false
	}
	return rows[m.cursor], true
}

// Focus moves the cursor to the row with id, if it is shown.
func (m *Model[T]) Focus(id int64) {
	for i, r := range m.rows {
		if r.GetID() != id {
			continue
		}
		if m.opts.Paging == ClientPaging && m.opts.PageSize > 0 {
			m.page = i/m.opts.PageSize + 1
			m.cursor = i % m.opts.PageSize
		} else {
			m.cursor = i
		}
		m.clampCursor()
		if vh := m.viewport(); m.cursor >= m.offset+vh {
			m.offset = m.cursor - vh + 1
		}
		return
	}
}

// HandleKey runs the row action bound to msg on the current row.
func (m *Model[T]) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	for _, a := range m.actions {
		if !key.Matches(msg, a.Binding) {
			continue
		}
		row, ok := m.Current()
		if !ok || a.Run == nil {
			return nil, true
		}
		return a.Run(row), true
	}
	return nil, false
}

// ActionBindings lists the row action keys for help display.
func (m *Model[T]) ActionBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.actions))
	for _, a := range m.actions {
		out = append(out, a.Binding)
	}
	return out
}

// SetLoading toggles the loading state. Starting returns the spinner tick.
func (m *Model[T]) SetLoading(loading bool) tea.Cmd {
	was := m.loading
	m.loading = loading
	if loading && !was {
		return m.spinner.Tick
	}
	return nil
}

func (m *Model[T]) Loading() bool { return m.loading }

// Update advances the spinner.
func (m *Model[T]) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok || !m.loading {
		return nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(tick)
	return cmd
}

// Page is the 1-based current page.
func (m *Model[T]) Page() int { return m.page }

// Pages is the number of pages, at least 1.
func (m *Model[T]) Pages() int {
	size := m.opts.PageSize
	if size <= 0 {
		return 1
	}
	n := len(m.rows)
	if m.opts.Paging == ExternalPaging {
		n = m.total
	}
	return max(1, (n+size-1)/size)
}

// NextPage moves forward one page. Under ExternalPaging it returns the
// request for that page.
func (m *Model[T]) NextPage() tea.Cmd {
	if m.page >= m.Pages() {
		return nil
	}
	return m.gotoPage(m.page + 1)
}

// PrevPage moves back one page.
func (m *Model[T]) PrevPage() tea.Cmd {
	if m.page <= 1 {
		return nil
	}
	return m.gotoPage(m.page - 1)
}

func (m *Model[T]) gotoPage(page int) tea.Cmd {
	m.page = page
	m.cursor = 0
	m.offset = 0
	if m.opts.Paging == ExternalPaging && m.onPage != nil {
		return m.onPage(page)
	}
	return nil
}

func (m *Model[T]) clampPage() {
	if m.opts.Paging == ExternalPaging {
		return
	}
	m.page = min(max(1, m.page), m.Pages())
}

func (m *Model[T]) rebuild() {
	rows := slices.Clone(m.all)

	if m.filterKey != "" && m.filterValue != "" {
		if col, ok := m.column(m.filterKey); ok {
			target := strings.TrimSpace(m.filterValue)
			rows = slices.DeleteFunc(rows, func(r T) bool {
				return !strings.EqualFold(strings.TrimSpace(col.raw(r)), target)
			})
		}
	}

	if col, ok := m.column(m.sortKey); ok && col.Sortable {
		slices.SortStableFunc(rows, func(a, b T) int {
			c := compareRaw(col.raw(a), col.raw(b))
			if m.sortDesc {
				return -c
			}
			return c
		})
	}

	m.rows = rows
	m.clampPage()
	m.clampCursor()
}

func (m *Model[T]) column(key string) (Column[T], bool) {
	for _, c := range m.columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

func (m *Model[T]) clampCursor() {
	n := len(m.PageRows())
	if n == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	m.cursor = min(max(0, m.cursor), n-1)
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

// ApplyPrefs restores persisted preferences.
func (m *Model[T]) ApplyPrefs(prefs Prefs) {
	if prefs.SortKey != "" {
		if col, ok := m.column(prefs.SortKey); ok && col.Sortable {
			m.sortKey = prefs.SortKey
			m.sortDesc = prefs.SortDesc
		}
	}
	hidden := make(map[string]bool, len(prefs.HiddenColumns))
	for _, c := range prefs.HiddenColumns {
		hidden[c] = true
	}
	for i := range m.columns {
		m.columns[i].hidden = hidden[m.columns[i].Key]
	}
	if prefs.ActiveColumn != "" {
		for i, c := range m.columns {
			if c.Key == prefs.ActiveColumn {
				m.activeColumn = i
				break
			}
		}
	}
	m.ensureVisibleActiveColumn()
	m.rebuild()
}

// Prefs captures the preferences worth persisting.
func (m *Model[T]) Prefs() Prefs {
	var hidden []string
	for _, c := range m.columns {
		if c.hidden {
			hidden = append(hidden, c.Key)
		}
	}
	p := Prefs{
		SortKey:       m.sortKey,
		SortDesc:      m.sortDesc,
		HiddenColumns: hidden,
	}
	if len(m.columns) > 0 {
		p.ActiveColumn = m.columns[m.activeColumn].Key
	}
	return p
}

// Sort reports the current sort column and direction.
func (m *Model[T]) Sort() (string, bool) {
	return m.sortKey, m.sortDesc
}

// SortBy sorts on a sortable column. It reports false for other columns.
func (m *Model[T]) SortBy(key string, desc bool) bool {
	col, ok := m.column(key)
	if !ok || !col.Sortable {
		return false
	}
	m.sortKey = key
	m.sortDesc = desc
	m.rebuild()
	return true
}

// SortActiveColumn sorts on the active column.
func (m *Model[T]) SortActiveColumn(desc bool) bool {
	if len(m.columns) == 0 {
		return false
	}
	return m.SortBy(m.columns[m.activeColumn].Key, desc)
}

// CycleSortActiveColumn steps the active column through ascending,
// descending and back to the default order.
func (m *Model[T]) CycleSortActiveColumn() string {
	if len(m.columns) == 0 {
		return ""
	}
	col := m.columns[m.activeColumn]
	label := strings.ToUpper(col.Header)
	if !col.Sortable {
		return fmt.Sprintf("%s is not sortable", label)
	}
	switch {
	case m.sortKey != col.Key:
		m.SortBy(col.Key, false)
		return fmt.Sprintf("Sorted %s ascending", label)
	case !m.sortDesc:
		m.SortBy(col.Key, true)
		return fmt.Sprintf("Sorted %s descending", label)
	default:
		m.sortKey = m.opts.DefaultSort
		m.sortDesc = m.opts.DefaultDesc
		m.rebuild()
		return "Sorting reset"
	}
}

func (m *Model[T]) visibleColumnIndexes() []int {
	var idxs []int
	for i, c := range m.columns {
		if !c.hidden {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (m *Model[T]) ensureVisibleActiveColumn() {
	if len(m.columns) == 0 || !m.columns[m.activeColumn].hidden {
		return
	}
	for i := range m.columns {
		if !m.columns[i].hidden {
			m.activeColumn = i
			return
		}
	}
	m.columns[0].hidden = false
	m.activeColumn = 0
}

func (m *Model[T]) NextColumn() {
	if len(m.columns) == 0 {
		return
	}
	start := m.activeColumn
	for {
		m.activeColumn = (m.activeColumn + 1) % len(m.columns)
		if !m.columns[m.activeColumn].hidden || m.activeColumn == start {
			return
		}
	}
}

func (m *Model[T]) PrevColumn() {
	if len(m.columns) == 0 {
		return
	}
	start := m.activeColumn
	for {
		m.activeColumn--
		if m.activeColumn < 0 {
			m.activeColumn = len(m.columns) - 1
		}
		if !m.columns[m.activeColumn].hidden || m.activeColumn == start {
			return
		}
	}
}

// JumpToColumn activates the 1-based column number.
func (m *Model[T]) JumpToColumn(number int) bool {
	if number < 1 || number > len(m.columns) {
		return false
	}
	idx := number - 1
	if m.columns[idx].hidden {
		return false
	}
	m.activeColumn = idx
	return true
}

func (m *Model[T]) HideActiveColumn() bool {
	if len(m.visibleColumnIndexes()) <= 1 {
		return false
	}
	m.columns[m.activeColumn].hidden = true
	m.ensureVisibleActiveColumn()
	return true
}

func (m *Model[T]) ShowAllColumns() {
	for i := range m.columns {
		m.columns[i].hidden = false
	}
}

// CycleFilterBySelectedValue filters on the active cell's value, or clears
// the filter when it is already applied.
func (m *Model[T]) CycleFilterBySelectedValue() string {
	row, ok := m.Current()
	if !ok {
		return "No rows to filter"
	}
	col := m.columns[m.activeColumn]
	value := strings.TrimSpace(col.raw(row))
	if value == "" {
		return "No filterable value in selected cell"
	}

	if m.filterKey == col.Key && strings.EqualFold(strings.TrimSpace(m.filterValue), value) {
		m.ClearFilter()
		return "Filter cleared"
	}

	m.filterKey = col.Key
	m.filterValue = value
	m.cursor = 0
	m.page = 1
	m.rebuild()
	return "Filter applied from selected value"
}

func (m *Model[T]) ClearFilter() bool {
	if m.filterKey == "" {
		return false
	}
	m.filterKey = ""
	m.filterValue = ""
	m.rebuild()
	return true
}

// TableMeta summarises the column controls for the status line.
func (m *Model[T]) TableMeta() string {
	if len(m.columns) == 0 {
		return ""
	}
	parts := []string{fmt.Sprintf("col %s", strings.ToUpper(m.columns[m.activeColumn].Header))}
	if m.sortKey != "" {
		order := "asc"
		if m.sortDesc {
			order = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(m.sortKey), order))
	}
	if m.filterKey != "" {
		parts = append(parts, fmt.Sprintf("filter %s=%q", strings.ToUpper(m.filterKey), m.filterValue))
	}
	return strings.Join(parts, "  ·  ")
}

func (m *Model[T]) viewport() int {
	if m.viewportHeight == 0 {
		return 10
	}
	return m.viewportHeight
}

// MoveDown moves the cursor down.
func (m *Model[T]) MoveDown() {
	if m.cursor < len(m.PageRows())-1 {
		m.cursor++
		if m.cursor >= m.offset+m.viewport() {
			m.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (m *Model[T]) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
		if m.cursor < m.offset {
			m.offset--
		}
	}
}

// JumpToTop jumps to the first row of the page.
func (m *Model[T]) JumpToTop() {
	m.cursor = 0
	m.offset = 0
}

// JumpToBottom jumps to the last row of the page.
func (m *Model[T]) JumpToBottom() {
	n := len(m.PageRows())
	if n == 0 {
		return
	}
	m.cursor = n - 1
	if vh := m.viewport(); m.cursor >= vh {
		m.offset = m.cursor - vh + 1
	}
}

// HalfPageDown moves down half a screen.
func (m *Model[T]) HalfPageDown() {
	n := len(m.PageRows())
	if n == 0 {
		return
	}
	m.cursor = min(m.cursor+m.viewport()/2, n-1)
	if vh := m.viewport(); m.cursor >= m.offset+vh {
		m.offset = m.cursor - vh + 1
	}
}

// HalfPageUp moves up half a screen.
func (m *Model[T]) HalfPageUp() {
	m.cursor = max(0, m.cursor-m.viewport()/2)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
}
