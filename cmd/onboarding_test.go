package cmd

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m onboardingModel, msgs ...tea.Msg) (onboardingModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(onboardingModel)
		require.True(t, ok)
	}
	return m, cmd
}

func enter() tea.Msg { return tea.KeyMsg{Type: tea.KeyEnter} }

func runes(s string) tea.Msg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestValidateBaseURL(t *testing.T) {
	got, err := validateBaseURL("  https://welfare.example.org/api/ ")
	require.NoError(t, err)
	assert.Equal(t, "https://welfare.example.org/api", got)

	for _, bad := range []string{"", "welfare.example.org", "ftp://welfare.example.org", "http://"} {
		_, err := validateBaseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestOnboardingCollectsURLAndStore(t *testing.T) {
	m := newOnboardingModel(Settings{PageSize: 40})

	m, _ = press(t, m, runes("http://localhost:8000"), enter())
	assert.Equal(t, stepStore, m.step)
	assert.Equal(t, "http://localhost:8000", m.settings.APIURL)

	m, cmd := press(t, m, runes("j"), enter())
	assert.Equal(t, stepDone, m.step)
	assert.NotNil(t, cmd)
	assert.False(t, m.canceled)
	assert.Equal(t, Settings{APIURL: "http://localhost:8000", PageSize: 40, SessionStore: StoreKeyring}, m.settings)
}

func TestOnboardingRejectsInvalidURL(t *testing.T) {
	m := newOnboardingModel(Settings{})

	m, _ = press(t, m, runes("not a url"), enter())
	assert.Equal(t, stepURL, m.step)
	assert.NotEmpty(t, m.err)
	assert.Contains(t, m.View(), m.err)
}

func TestOnboardingEscGoesBackThenCancels(t *testing.T) {
	m := newOnboardingModel(Settings{APIURL: "https://welfare.example.org"})

	m, _ = press(t, m, enter())
	require.Equal(t, stepStore, m.step)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stepURL, m.step)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.canceled)
	assert.Equal(t, stepDone, m.step)
	assert.NotNil(t, cmd)
}
