package ui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"welfaredesk/internal/api"
	"welfaredesk/internal/model"
)

// Screen is one routed page.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
	Title() string
	// Capturing reports that a dialog, form or search input owns the
	// keyboard, so global keys must not fire.
	Capturing() bool
	HelpKeys() []string
}

// tabular is implemented by screens with a data table.
type tabular interface {
	Table() tableController
}

// Deps are what screens are built from.
type Deps struct {
	Client   *api.Client
	User     model.User
	PageSize int
	Timeout  time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// routedMsg carries a message produced by a screen's command back to that
// screen, even after the user navigated away.
type routedMsg struct {
	route string
	msg   tea.Msg
}

// routeCmd tags the messages of cmd with route.
func routeCmd(route string, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		switch msg := msg.(type) {
		case nil:
			return nil
		case tea.BatchMsg:
			cmds := make([]tea.Cmd, len(msg))
			for i, c := range msg {
				cmds[i] = routeCmd(route, c)
			}
			return tea.BatchMsg(cmds)
		case tea.QuitMsg, model.NavigateMsg, model.ErrorMsg:
			return msg
		}
		return routedMsg{route: route, msg: msg}
	}
}
