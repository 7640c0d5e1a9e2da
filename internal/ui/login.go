package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"welfaredesk/internal/api"
	"welfaredesk/internal/model"
)

type loginFailedMsg struct {
	err string
}

// loginModel is the sign-in form shown before any routed screen.
type loginModel struct {
	client   *api.Client
	username textinput.Model
	password textinput.Model
	focused  int
	pending  bool
	spinner  spinner.Model
	err      string
	notice   string
}

func newLoginModel(client *api.Client, notice string) *loginModel {
	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "user> "
	user.CharLimit = 150
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "pass> "
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return &loginModel{client: client, username: user, password: pass, spinner: sp, notice: notice}
}

func (m *loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *loginModel) focus(i int) {
	m.focused = i % 2
	if m.focused == 0 {
		m.password.Blur()
		m.username.Focus()
	} else {
		m.username.Blur()
		m.password.Focus()
	}
}

func (m *loginModel) submit() tea.Cmd {
	user := strings.TrimSpace(m.username.Value())
	pass := m.password.Value()
	if user == "" || pass == "" {
		m.err = "Enter a username and password."
		return nil
	}
	m.pending = true
	m.err = ""
	client := m.client
	login := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), client.Timeout())
		defer cancel()
		s, err := client.Login(ctx, user, pass)
		if err != nil {
			return loginFailedMsg{err: api.Message(err, "Login failed. Please try again.")}
		}
		return model.LoggedInMsg{User: s.User}
	}
	return tea.Batch(login, m.spinner.Tick)
}

func (m *loginModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginFailedMsg:
		m.pending = false
		m.err = msg.err
		m.password.SetValue("")
		m.focus(1)
		return nil
	case spinner.TickMsg:
		if !m.pending {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		if m.pending {
			return nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus(m.focused + 1)
			return nil
		case "enter":
			if m.focused == 0 {
				m.focus(1)
				return nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focused == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *loginModel) View(width, height int) string {
	cardWidth := min(60, width-4)
	input := func(in textinput.Model, active bool) string {
		style := BorderStyle
		if active {
			style = ActiveBorderStyle
		}
		return style.Width(cardWidth - 8).Render(in.View())
	}

	lines := []string{
		TitleStyle.Render("Sign in"),
		"",
		LabelStyle.Render("Username"),
		input(m.username, m.focused == 0),
		LabelStyle.Render("Password"),
		input(m.password, m.focused == 1),
		"",
	}
	switch {
	case m.pending:
		lines = append(lines, m.spinner.View()+" Signing in...")
	case m.err != "":
		lines = append(lines, ErrorStyle.Width(cardWidth-6).Render(m.err))
	case m.notice != "":
		lines = append(lines, WarningStyle.Width(cardWidth-6).Render(m.notice))
	default:
		lines = append(lines, HelpDescStyle.Render("tab switch field · enter sign in · ctrl+c quit"))
	}

	card := PanelStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
