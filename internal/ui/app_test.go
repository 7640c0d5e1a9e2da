package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfaredesk/internal/api"
	"welfaredesk/internal/model"
	"welfaredesk/internal/resource"
)

func newTestApp(t *testing.T, username, password string) Model {
	t.Helper()
	client, _ := signIn(t, username, password)
	m := New(client, Options{Now: func() time.Time { return testNow }})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestRouteCmdTagsScreenMessages(t *testing.T) {
	msg := routeCmd("/inventory/items", func() tea.Msg { return "loaded" })()
	assert.Equal(t, routedMsg{route: "/inventory/items", msg: "loaded"}, msg)

	errMsg := model.ErrorMsg{Err: errors.New("boom")}
	assert.Equal(t, errMsg, routeCmd("/x", func() tea.Msg { return errMsg })())

	batch, ok := routeCmd("/x", tea.Batch(
		func() tea.Msg { return 1 },
		func() tea.Msg { return 2 },
	))().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Equal(t, routedMsg{route: "/x", msg: 1}, batch[0]())

	assert.Nil(t, routeCmd("/x", nil))
}

func TestStoredSessionOpensOverview(t *testing.T) {
	m := newTestApp(t, "staff", "staff123")

	assert.Nil(t, m.login)
	assert.Equal(t, overviewRoute, m.route)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Office Staff")
}

func TestNavigationGuardRefusesForbiddenRoute(t *testing.T) {
	m := newTestApp(t, "staff", "staff123")

	m, _ = update(t, m, model.NavigateMsg{Route: "/accounts/expenses"})
	assert.Equal(t, overviewRoute, m.route)
	assert.Equal(t, "You do not have access to that page", m.error)
	assert.NotContains(t, m.screens, "/accounts/expenses")

	m, cmd := update(t, m, model.NavigateMsg{Route: "/inventory/items"})
	assert.Equal(t, "/inventory/items", m.route)
	assert.Empty(t, m.error)
	assert.Contains(t, m.screens, "/inventory/items")
	assert.NotNil(t, cmd)
}

func TestExpiredSessionReturnsToLogin(t *testing.T) {
	m := newTestApp(t, "manager", "manager123")
	m, _ = update(t, m, model.NavigateMsg{Route: "/dialysis/wards"})

	m, _ = update(t, m, routedMsg{
		route: "/dialysis/wards",
		msg:   resource.Result[model.Ward]{Resource: "Ward", Op: resource.OpList, Err: api.ErrSessionExpired},
	})

	require.NotNil(t, m.login)
	assert.Nil(t, m.screens)
	assert.Contains(t, m.login.notice, "session has expired")
}

func TestSidebarOpensLeafAndFocusesContent(t *testing.T) {
	m := newTestApp(t, "accountant", "accountant123")
	require.Equal(t, focusSidebar, m.focus)

	m, _ = update(t, m, keyPress("?"))
	assert.True(t, m.showingHelp)
	m, _ = update(t, m, keyPress("esc"))
	assert.False(t, m.showingHelp)

	m, _ = update(t, m, model.NavigateMsg{Route: "/accounts/vendors"})
	m, _ = update(t, m, keyPress("l"))
	assert.Equal(t, focusContent, m.focus)
	assert.Equal(t, []string{"Accounts", "Vendors"}, m.breadcrumb())
}
