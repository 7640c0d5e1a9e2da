package ui

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"welfaredesk/internal/api"
	"welfaredesk/internal/db"
	"welfaredesk/internal/dialog"
	"welfaredesk/internal/mockapi"
	"welfaredesk/internal/model"
	"welfaredesk/internal/nav"
	"welfaredesk/internal/session"
)

var testNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// signIn starts the demo backend and returns a client signed in as username.
func signIn(t *testing.T, username, password string) (*api.Client, model.User) {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, mockapi.Seed(conn, mockapi.SeedOptions{HashCost: bcrypt.MinCost}))

	ts := httptest.NewServer(mockapi.New(conn, mockapi.Options{Secret: []byte("ui-test")}))
	t.Cleanup(ts.Close)

	client, err := api.NewClient(api.Options{BaseURL: ts.URL, Timeout: 5 * time.Second, Store: session.NewMemoryStore()})
	require.NoError(t, err)
	s, err := client.Login(context.Background(), username, password)
	require.NoError(t, err)
	return client, s.User
}

func testDeps(client *api.Client, user model.User) Deps {
	return Deps{
		Client:   client,
		User:     user,
		PageSize: 25,
		Timeout:  5 * time.Second,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return testNow },
	}
}

// drive runs cmd to completion, feeding backend results to the screen.
// Other messages (spinner ticks, cursor blinks) are dropped.
func drive(t *testing.T, s Screen, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var other []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case interface{ Failure() error }:
			queue = append(queue, s.Update(msg))
		default:
			other = append(other, msg)
		}
	}
	return other
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCrudScreenListsAndCreates(t *testing.T) {
	client, user := signIn(t, "manager", "manager123")
	s := NewCrudScreen(wardsDescriptor(), testDeps(client, user))

	drive(t, s, s.Init())
	require.Len(t, s.table.Rows(), 2)
	assert.Equal(t, "North Wing", s.table.Rows()[0].WardName)

	s.Update(keyPress("a"))
	require.True(t, s.Capturing())
	s.Update(keyPress("East Wing"))
	drive(t, s, s.Update(keyPress("ctrl+s")))

	assert.False(t, s.Capturing())
	assert.Equal(t, "Ward created", s.info)
	require.Len(t, s.table.Rows(), 3)
	cur, ok := s.table.Current()
	require.True(t, ok)
	assert.Equal(t, "East Wing", cur.WardName)
}

func TestCrudScreenValidationKeepsDialogOpen(t *testing.T) {
	client, user := signIn(t, "manager", "manager123")
	s := NewCrudScreen(wardsDescriptor(), testDeps(client, user))
	drive(t, s, s.Init())

	s.Update(keyPress("a"))
	drive(t, s, s.Update(keyPress("ctrl+s")))

	d := s.dialogs.Dialog(dialog.Add)
	assert.Equal(t, dialog.OpenError, d.State())
	assert.NotEmpty(t, d.Err())
	assert.Len(t, s.table.Rows(), 2)

	s.Update(keyPress("esc"))
	assert.False(t, s.Capturing())
	assert.False(t, s.dialogs.Dialog(dialog.Add).IsOpen())
}

func TestCrudScreenDeleteNeedsConfirmation(t *testing.T) {
	client, user := signIn(t, "manager", "manager123")
	s := NewCrudScreen(wardsDescriptor(), testDeps(client, user))
	drive(t, s, s.Init())

	s.Update(keyPress("d"))
	require.True(t, s.dialogs.Dialog(dialog.Delete).IsOpen())
	assert.Contains(t, s.View(100, 30), "North Wing")

	s.Update(keyPress("n"))
	assert.False(t, s.dialogs.Dialog(dialog.Delete).IsOpen())
	assert.Len(t, s.table.Rows(), 2)

	s.Update(keyPress("d"))
	drive(t, s, s.Update(keyPress("y")))
	assert.Equal(t, "Ward deleted", s.info)
	require.Len(t, s.table.Rows(), 1)
	assert.Equal(t, "South Wing", s.table.Rows()[0].WardName)
}

func TestCrudScreenReadOnlyRole(t *testing.T) {
	client, user := signIn(t, "staff", "staff123")
	s := NewCrudScreen(wardsDescriptor(), testDeps(client, user))
	drive(t, s, s.Init())
	require.Len(t, s.table.Rows(), 2)

	msgs := drive(t, s, s.Update(keyPress("a")))
	assert.False(t, s.Capturing())
	require.Len(t, msgs, 1)
	errMsg, ok := msgs[0].(model.ErrorMsg)
	require.True(t, ok)
	assert.Contains(t, errMsg.Err.Error(), "cannot modify wards")
	assert.NotContains(t, s.HelpKeys(), "a add")
}

func TestCrudScreenSearchFiltersLoadedRows(t *testing.T) {
	client, user := signIn(t, "manager", "manager123")
	s := NewCrudScreen(wardsDescriptor(), testDeps(client, user))
	drive(t, s, s.Init())

	s.Update(keyPress("/"))
	require.True(t, s.Capturing())
	s.Update(keyPress("paed"))
	require.Len(t, s.table.Rows(), 1)
	assert.Equal(t, "South Wing", s.table.Rows()[0].WardName)

	s.Update(keyPress("enter"))
	assert.False(t, s.Capturing())

	s.Update(keyPress("x"))
	assert.Len(t, s.table.Rows(), 2)
}

func TestCrudScreenRowAction(t *testing.T) {
	client, user := signIn(t, "staff", "staff123")
	s := NewCrudScreen(itemsDescriptor(), testDeps(client, user))
	drive(t, s, s.Init())

	cur, ok := s.table.Current()
	require.True(t, ok)
	require.Equal(t, "Dialyzer filter", cur.Name)
	before := cur.Quantity

	s.Update(keyPress("+"))
	require.True(t, s.dialogs.Dialog(dialog.Action).IsOpen())
	s.Update(keyPress("5"))
	drive(t, s, s.Update(keyPress("ctrl+s")))

	assert.Equal(t, "Stock updated", s.info)
	cur, ok = s.table.Current()
	require.True(t, ok)
	assert.Equal(t, before+5, cur.Quantity)
}

func TestCrudScreenDetail(t *testing.T) {
	client, user := signIn(t, "manager", "manager123")
	s := NewCrudScreen(wardsDescriptor(), testDeps(client, user))
	drive(t, s, s.Init())

	drive(t, s, s.Update(keyPress("enter")))
	require.Equal(t, modeDetail, s.mode)
	view := s.View(100, 30)
	assert.Contains(t, view, "North Wing")
	assert.Contains(t, view, "Adult dialysis")

	s.Update(keyPress("esc"))
	assert.Equal(t, modeBrowse, s.mode)
}

func TestDialysisSessionsScreen(t *testing.T) {
	assert.True(t, nav.Guard(menu(), "/dialysis/sessions", model.RoleDialysisManager))
	assert.False(t, nav.Guard(menu(), "/dialysis/sessions", model.RoleOfficeStaff))

	client, user := signIn(t, "manager", "manager123")
	screen, ok := newScreen("/dialysis/sessions", testDeps(client, user))
	require.True(t, ok)
	s, ok := screen.(*CrudScreen[model.DialysisSession])
	require.True(t, ok)
	drive(t, s, s.Init())

	rows := s.table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Sara Iqbal", rows[0].PatientName, "newest first")
	assert.Equal(t, "Fresenius 4008S", rows[1].MachineName)
	assert.Equal(t, 240, rows[1].DurationMinutes)
}
