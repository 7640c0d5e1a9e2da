package ui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"welfaredesk/internal/api"
	"welfaredesk/internal/model"
	"welfaredesk/internal/nav"
)

const sidebarWidth = 24

// Options configures the root model.
type Options struct {
	// ConfigDir holds ui_prefs.json; empty disables persistence.
	ConfigDir string
	PageSize  int
	Logger    *slog.Logger
	Now       func() time.Time
}

type focusArea int

const (
	focusSidebar focusArea = iota
	focusContent
)

// Model is the root Bubble Tea model.
type Model struct {
	client *api.Client
	opts   Options
	logger *slog.Logger

	width  int
	height int

	login   *loginModel
	user    model.User
	tree    *nav.Tree
	focus   focusArea
	route   string
	screens map[string]Screen

	gState      GState
	columnJump  bool
	showingHelp bool
	error       string
	info        string

	keys    KeyMap
	prefs   UIPreferences
	startup tea.Cmd
}

// New creates the root model. A stored session skips the login screen.
func New(client *api.Client, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	m := Model{
		client: client,
		opts:   opts,
		logger: opts.Logger,
		keys:   DefaultKeyMap(),
		prefs:  loadUIPreferences(opts.ConfigDir),
	}
	if s := client.Session(); s != nil {
		m.startSession(s.User)
		m.startup = m.openRoute(overviewRoute)
	} else {
		m.login = newLoginModel(client, "")
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.login != nil {
		return m.login.Init()
	}
	return m.startup
}

func (m *Model) deps() Deps {
	return Deps{
		Client:   m.client,
		User:     m.user,
		PageSize: m.opts.PageSize,
		Timeout:  m.client.Timeout(),
		Logger:   m.logger,
		Now:      m.opts.Now,
	}
}

func (m *Model) startSession(user model.User) {
	m.user = user
	m.login = nil
	m.tree = nav.NewTree(menu(), user.Role)
	for _, k := range m.prefs.Expanded {
		m.tree.Expand(k)
	}
	m.screens = map[string]Screen{}
	m.route = ""
	m.focus = focusSidebar
	m.error = ""
	m.info = ""
	m.logger.Info("signed in", "user", user.Username, "role", string(user.Role))
}

func (m *Model) endSession(notice string) tea.Cmd {
	m.user = model.User{}
	m.tree = nil
	m.screens = nil
	m.route = ""
	m.columnJump = false
	m.showingHelp = false
	m.error = ""
	m.info = ""
	m.login = newLoginModel(m.client, notice)
	return m.login.Init()
}

// openRoute shows route, building its screen on first visit. Routes the
// role may not open are refused before anything is constructed.
func (m *Model) openRoute(route string) tea.Cmd {
	if !nav.Guard(menu(), route, m.user.Role) {
		m.error = "You do not have access to that page"
		m.logger.Warn("route denied", "route", route, "role", string(m.user.Role))
		return nil
	}
	m.route = route
	m.tree.Reveal(route)
	m.error = ""
	if _, ok := m.screens[route]; ok {
		return nil
	}

	s, ok := newScreen(route, m.deps())
	if !ok {
		m.error = "Unknown page " + route
		return nil
	}
	if t, ok := s.(tabular); ok {
		if p, ok := m.prefs.Tables[route]; ok {
			t.Table().ApplyPrefs(p)
		}
	}
	m.screens[route] = s
	m.logger.Debug("screen opened", "route", route)
	return routeCmd(route, s.Init())
}

func (m *Model) current() Screen {
	if m.screens == nil {
		return nil
	}
	return m.screens[m.route]
}

func (m *Model) currentTable() tableController {
	if t, ok := m.current().(tabular); ok {
		return t.Table()
	}
	return nil
}

func (m *Model) persistPrefs() {
	if t := m.currentTable(); t != nil {
		m.prefs.Tables[m.route] = t.Prefs()
	}
	if m.tree != nil {
		m.prefs.Expanded = m.tree.Expanded()
	}
	if err := saveUIPreferences(m.opts.ConfigDir, m.prefs); err != nil {
		m.logger.Warn("failed to save preferences", "error", err)
	}
}

func sessionExpired(msg tea.Msg) bool {
	f, ok := msg.(interface{ Failure() error })
	return ok && errors.Is(f.Failure(), api.ErrSessionExpired)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case model.LoggedInMsg:
		m.startSession(msg.User)
		return m, m.openRoute(overviewRoute)

	case model.LoggedOutMsg:
		m.logger.Info("signed out")
		return m, m.endSession("")

	case model.NavigateMsg:
		if m.login != nil {
			return m, nil
		}
		return m, m.openRoute(msg.Route)

	case model.ErrorMsg:
		if errors.Is(msg.Err, api.ErrSessionExpired) {
			return m, m.endSession("Your session has expired. Please sign in again.")
		}
		m.error = msg.Err.Error()
		return m, nil

	case routedMsg:
		if sessionExpired(msg.msg) {
			m.logger.Info("session expired", "route", msg.route)
			return m, m.endSession("Your session has expired. Please sign in again.")
		}
		s, ok := m.screens[msg.route]
		if !ok {
			return m, nil
		}
		return m, routeCmd(msg.route, s.Update(msg.msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.login != nil {
		return m, m.login.Update(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.login != nil {
		return m, m.login.Update(msg)
	}

	screen := m.current()
	if m.focus == focusContent && screen != nil && screen.Capturing() {
		return m, routeCmd(m.route, screen.Update(msg))
	}

	if m.columnJump {
		if msg.String() == "esc" {
			m.columnJump = false
			m.info = ""
			return m, nil
		}
		if n, err := strconv.Atoi(msg.String()); err == nil {
			if t := m.currentTable(); t != nil && t.JumpToColumn(n) {
				m.columnJump = false
				m.info = fmt.Sprintf("Jumped to column %d", n)
				m.persistPrefs()
				return m, nil
			}
			m.info = fmt.Sprintf("Column %d unavailable", n)
		}
		return m, nil
	}

	if m.showingHelp {
		if msg.String() == "esc" || msg.String() == "?" {
			m.showingHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showingHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logout):
		client := m.client
		return m, func() tea.Msg {
			if err := client.Logout(); err != nil {
				return model.ErrorMsg{Err: fmt.Errorf("failed to sign out: %w", err)}
			}
			return model.LoggedOutMsg{}
		}
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleContentKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
	case key.Matches(msg, m.keys.Select, m.keys.Right):
		route, ok := m.tree.Activate()
		if !ok {
			m.persistPrefs()
			return m, nil
		}
		m.focus = focusContent
		return m, m.openRoute(route)
	case key.Matches(msg, m.keys.Left):
		m.tree.CollapseCurrent()
		m.persistPrefs()
	case key.Matches(msg, m.keys.Back, m.keys.NextColumn):
		if m.current() != nil {
			m.focus = focusContent
		}
	}
	return m, nil
}

func (m Model) handleContentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Top) {
		if m.gState == GStateFirstG {
			m.gState = GStateIdle
			if t := m.currentTable(); t != nil {
				t.JumpToTop()
			}
			return m, nil
		}
		m.gState = GStateFirstG
		return m, nil
	}
	m.gState = GStateIdle

	if key.Matches(msg, m.keys.Left) {
		m.focus = focusSidebar
		return m, nil
	}

	if t := m.currentTable(); t != nil && m.handleTableKey(t, msg) {
		return m, nil
	}

	m.info = ""
	if s := m.current(); s != nil {
		return m, routeCmd(m.route, s.Update(msg))
	}
	return m, nil
}

// handleTableKey applies the column and cursor controls shared by every
// table screen.
func (m *Model) handleTableKey(t tableController, msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Down):
		t.MoveDown()
	case key.Matches(msg, m.keys.Up):
		t.MoveUp()
	case key.Matches(msg, m.keys.Bottom):
		t.JumpToBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		t.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		t.HalfPageUp()
	case key.Matches(msg, m.keys.NextColumn):
		t.NextColumn()
		m.persistPrefs()
	case key.Matches(msg, m.keys.PrevColumn):
		t.PrevColumn()
		m.persistPrefs()
	case key.Matches(msg, m.keys.ColumnJump):
		m.columnJump = true
		m.info = "Jump to column: press 1-9 (esc to cancel)"
	case key.Matches(msg, m.keys.SortAsc):
		if t.SortActiveColumn(false) {
			m.info = "Sorted ascending"
			m.persistPrefs()
		} else {
			m.info = "Column is not sortable"
		}
	case key.Matches(msg, m.keys.SortDesc):
		if t.SortActiveColumn(true) {
			m.info = "Sorted descending"
			m.persistPrefs()
		} else {
			m.info = "Column is not sortable"
		}
	case key.Matches(msg, m.keys.CycleSort):
		m.info = t.CycleSortActiveColumn()
		m.persistPrefs()
	case key.Matches(msg, m.keys.HideColumn):
		if t.HideActiveColumn() {
			m.info = "Column hidden"
			m.persistPrefs()
		} else {
			m.info = "Cannot hide last visible column"
		}
	case key.Matches(msg, m.keys.ShowColumns):
		t.ShowAllColumns()
		m.info = "All columns shown"
		m.persistPrefs()
	case key.Matches(msg, m.keys.FilterValue):
		m.info = t.CycleFilterBySelectedValue()
	case key.Matches(msg, m.keys.ClearFilter):
		if t.ClearFilter() {
			m.info = "Filter cleared"
		}
	default:
		return false
	}
	return true
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}
	if m.login != nil {
		header := renderHeader([]string{"Sign in"}, "", m.width, m.opts.Now())
		return lipgloss.JoinVertical(lipgloss.Left, header, m.login.View(m.width, m.height-lipgloss.Height(header)))
	}

	header := renderHeader(m.breadcrumb(), m.user.Username+" · "+m.user.Role.Label(), m.width, m.opts.Now())
	footer := m.renderFooter()

	var banners []string
	if m.error != "" {
		banners = append(banners, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		banners = append(banners, SuccessStyle.Width(m.width).Render(m.info))
	}

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	for _, b := range banners {
		bodyHeight -= lipgloss.Height(b)
	}
	bodyHeight = max(3, bodyHeight)

	sidebar := SidebarStyle.Height(bodyHeight).Render(
		m.tree.View(navStyles(), m.route, m.focus == focusSidebar, sidebarWidth),
	)
	contentWidth := max(20, m.width-lipgloss.Width(sidebar)-1)

	var content string
	if s := m.current(); s != nil {
		content = s.View(contentWidth, bodyHeight)
	} else {
		content = EmptyStateStyle.Render("Choose a page from the menu.")
	}
	content = lipgloss.NewStyle().Width(contentWidth).Height(bodyHeight).MaxHeight(bodyHeight).PaddingLeft(1).Render(content)

	rows := []string{header}
	rows = append(rows, banners...)
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content), footer)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderFooter() string {
	if m.columnJump {
		return renderHelp([]string{"1-9 column", "esc cancel"}, m.width)
	}
	if m.focus == focusSidebar || m.current() == nil {
		return renderHelp(sidebarHelp(), m.width)
	}
	s := m.current()
	keys := s.HelpKeys()
	if !s.Capturing() {
		if _, ok := s.(tabular); ok {
			keys = append([]string{"j/k move", "tab col", "s/S sort", "n/N value filter"}, keys...)
		}
		keys = append(keys, "h menu", "? help")
	}
	return renderHelp(keys, m.width)
}

// breadcrumb lists the labels from the top of the menu to the open page.
func (m Model) breadcrumb() []string {
	var walk func(nodes []nav.Node) []string
	walk = func(nodes []nav.Node) []string {
		for _, n := range nodes {
			if len(n.Children) == 0 {
				if n.Route == m.route {
					return []string{n.Label}
				}
				continue
			}
			if path := walk(n.Children); path != nil {
				return append([]string{n.Label}, path...)
			}
		}
		return nil
	}
	if m.tree == nil {
		return nil
	}
	return walk(m.tree.Roots())
}

func renderHeader(breadcrumbParts []string, who string, width int, now time.Time) string {
	title := HeaderStyle.Render("welfaredesk")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}
	left := "  " + title + breadcrumb

	right := now.Format("Mon 02 Jan")
	if who != "" {
		right = who + "  " + right
	}
	right = BreadcrumbStyle.Render(right) + "  "

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return TitleStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}
