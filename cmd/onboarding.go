package cmd

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"welfaredesk/internal/ui"
)

type onboardingStep int

const (
	stepURL onboardingStep = iota
	stepStore
	stepDone
)

type onboardingModel struct {
	step     onboardingStep
	urlInput textinput.Model
	keyring  bool
	settings Settings
	canceled bool
	status   string
	err      string
	width    int
	height   int
}

var (
	obColorMuted  = ui.ColorMuted
	obColorText   = ui.ColorText
	obColorAccent = ui.ColorAccent
	obColorDanger = ui.ColorRed

	obTitleStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(obColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorMuted).
			Padding(1, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorAccent).
			Padding(0, 1)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(obColorMuted)

	obOptionStyle = lipgloss.NewStyle().
			Foreground(obColorText)

	obOptionSelected = lipgloss.NewStyle().
				Foreground(obColorAccent).
				Bold(true)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(obColorDanger)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(obColorMuted)
)

func newOnboardingModel(settings Settings) onboardingModel {
	in := textinput.New()
	in.Placeholder = "https://welfare.example.org/api"
	in.CharLimit = 300
	in.Prompt = "url> "
	in.TextStyle = lipgloss.NewStyle().Foreground(obColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(obColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(obColorText).Background(obColorAccent)
	in.SetValue(settings.APIURL)
	in.Focus()

	return onboardingModel{
		step:     stepURL,
		urlInput: in,
		keyring:  settings.SessionStore == StoreKeyring,
		settings: settings,
	}
}

// validateBaseURL accepts absolute http(s) URLs and strips a trailing slash.
func validateBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("enter the backend URL")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%q is not a valid URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must start with http:// or https://")
	}
	return raw, nil
}

func (m onboardingModel) Init() tea.Cmd { return textinput.Blink }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.cancel()
		}
		switch m.step {
		case stepURL:
			switch msg.String() {
			case "enter":
				base, err := validateBaseURL(m.urlInput.Value())
				if err != nil {
					m.err = err.Error()
					return m, nil
				}
				m.settings.APIURL = base
				m.err = ""
				m.step = stepStore
				return m, nil
			case "esc":
				return m.cancel()
			}
			var cmd tea.Cmd
			m.urlInput, cmd = m.urlInput.Update(msg)
			return m, cmd
		case stepStore:
			switch msg.String() {
			case "up", "k", "left", "h":
				m.keyring = false
				return m, nil
			case "down", "j", "right", "l":
				m.keyring = true
				return m, nil
			case "esc":
				m.step = stepURL
				return m, nil
			case "q":
				return m.cancel()
			case "enter":
				m.settings.SessionStore = StoreFile
				if m.keyring {
					m.settings.SessionStore = StoreKeyring
				}
				m.status = "Settings saved."
				m.step = stepDone
				return m, tea.Quit
			}
			// Swallow any other keys silently
			return m, nil
		}
	}
	return m, nil
}

func (m onboardingModel) cancel() (tea.Model, tea.Cmd) {
	m.canceled = true
	m.status = "Setup canceled. Pass -api or set WELFAREDESK_API_URL to continue."
	m.step = stepDone
	return m, tea.Quit
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(8, height-6)
	content := m.renderContent(width, contentHeight)
	screen := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(obColorText).
		Width(width).
		Height(height).
		Render(screen)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("welfaredesk") + " " + obMutedStyle.Render("› Setup")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	urlTab := obTabInactive.Render("Backend")
	storeTab := obTabInactive.Render("Session")
	if m.step == stepURL {
		urlTab = obTabActive.Render("Backend")
	}
	if m.step == stepStore {
		storeTab = obTabActive.Render("Session")
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", urlTab, storeTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepURL:
		return obFooterStyle.Width(width).Render("enter continue  esc cancel")
	case stepStore:
		return obFooterStyle.Width(width).Render("↑↓/jk to choose  enter save  esc back  q cancel")
	default:
		return obFooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	var body string
	switch m.step {
	case stepURL:
		input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.urlInput.View())
		lines := []string{
			obLabelStyle.Render("Where is your organisation's backend?"),
			"",
			obMutedStyle.Render("The base URL of the welfare API, for example"),
			obMutedStyle.Render("https://welfare.example.org/api"),
			"",
			input,
		}
		if m.err != "" {
			lines = append(lines, "", obWarnStyle.Render(m.err))
		}
		lines = append(lines, "", obMutedStyle.Render("Run with -mock to try the bundled demo backend instead."))
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	case stepStore:
		file := "Save the session in a file under the config directory"
		ring := "Save the session in the system keyring"

		var fileDisplay, ringDisplay string
		if !m.keyring {
			fileDisplay = "  " + obOptionSelected.Render("→ "+file)
			ringDisplay = "    " + obOptionStyle.Render(ring)
		} else {
			fileDisplay = "    " + obOptionStyle.Render(file)
			ringDisplay = "  " + obOptionSelected.Render("→ "+ring)
		}

		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("Where should your sign-in be remembered?"),
			"",
			fileDisplay,
			ringDisplay,
			"",
			obMutedStyle.Render("You can change this later in ~/.welfaredesk/"+SettingsFile),
		)
	default:
		msg := obMutedStyle.Render(m.status)
		if m.canceled {
			msg = obWarnStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Onboarding Complete"), "", msg)
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

// runOnboarding asks for the backend URL and session store, saving the
// answers to config.yaml. A canceled setup returns the settings unchanged.
func runOnboarding(configDir string, settings Settings) (Settings, error) {
	model := newOnboardingModel(settings)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return settings, fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return settings, fmt.Errorf("unexpected onboarding model type")
	}
	if m.canceled {
		return settings, nil
	}
	if err := SaveSettings(configDir, m.settings); err != nil {
		return settings, err
	}
	return m.settings, nil
}
