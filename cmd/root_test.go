package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseArgs([]string{"-config-dir", "/tmp/wd"}, env(nil), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/wd", cfg.ConfigDir)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.APIURL)
	assert.False(t, cfg.Mock)
	assert.Empty(t, cfg.MockDBPath)
}

func TestParseArgsFlagBeatsEnvironment(t *testing.T) {
	vars := env(map[string]string{
		"WELFAREDESK_API_URL":       "https://env.example.org",
		"WELFAREDESK_SESSION_STORE": "keyring",
	})

	cfg, err := parseArgs([]string{"-config-dir", "/tmp/wd", "-api", "https://flag.example.org"}, vars, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.org", cfg.APIURL)
	assert.Equal(t, StoreKeyring, cfg.SessionStore)

	cfg, err = parseArgs([]string{"-config-dir", "/tmp/wd"}, vars, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.APIURL)
}

func TestParseArgsMockDefaultsDatabaseIntoConfigDir(t *testing.T) {
	cfg, err := parseArgs([]string{"-config-dir", "/tmp/wd", "-mock", "-log-level", "debug"}, env(nil), io.Discard)
	require.NoError(t, err)
	assert.True(t, cfg.Mock)
	assert.Equal(t, filepath.Join("/tmp/wd", "mock.db"), cfg.MockDBPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestParseArgsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"log level", []string{"-log-level", "loud"}},
		{"timeout", []string{"-timeout", "0s"}},
		{"rate", []string{"-rate", "-1"}},
		{"unknown flag", []string{"-yelp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(append([]string{"-config-dir", "/tmp/wd"}, tt.args...), env(nil), io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestApplySettingsFillsOnlyUnsetValues(t *testing.T) {
	cfg := &Config{APIURL: "https://flag.example.org"}
	require.NoError(t, cfg.applySettings(Settings{APIURL: "https://file.example.org", PageSize: 40, SessionStore: StoreKeyring}))
	assert.Equal(t, "https://flag.example.org", cfg.APIURL)
	assert.Equal(t, StoreKeyring, cfg.SessionStore)
	assert.Equal(t, 40, cfg.PageSize)

	cfg = &Config{}
	require.NoError(t, cfg.applySettings(Settings{APIURL: "https://file.example.org"}))
	assert.Equal(t, "https://file.example.org", cfg.APIURL)
	assert.Equal(t, StoreFile, cfg.SessionStore)
	assert.Equal(t, defaultPageSize, cfg.PageSize)
}

func TestApplySettingsRequiresBackend(t *testing.T) {
	err := (&Config{}).applySettings(Settings{})
	assert.ErrorContains(t, err, "no backend configured")

	assert.NoError(t, (&Config{Mock: true}).applySettings(Settings{}))
}

func TestApplySettingsRejectsUnknownStore(t *testing.T) {
	err := (&Config{APIURL: "http://x", SessionStore: "vault"}).applySettings(Settings{})
	assert.ErrorContains(t, err, "unknown session store")
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	t.Setenv("WD_TEST_SET", "from-shell")
	t.Setenv("WD_TEST_NEW", "")
	t.Setenv("WD_TEST_QUOTED", "")

	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n" +
		"WD_TEST_SET=from-file\n" +
		"export WD_TEST_NEW=fresh\n" +
		"WD_TEST_QUOTED=\"https://welfare.example.org\"\n" +
		"not a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loadDotEnv(path)

	assert.Equal(t, "from-shell", os.Getenv("WD_TEST_SET"))
	assert.Equal(t, "fresh", os.Getenv("WD_TEST_NEW"))
	assert.Equal(t, "https://welfare.example.org", os.Getenv("WD_TEST_QUOTED"))
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, Settings{}, s)

	want := Settings{APIURL: "https://welfare.example.org/api", PageSize: 50, SessionStore: StoreKeyring}
	require.NoError(t, SaveSettings(dir, want))

	info, err := os.Stat(filepath.Join(dir, SettingsFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSettingsReportsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte("api_url: [unclosed"), 0o600))

	_, err := LoadSettings(dir)
	assert.ErrorContains(t, err, "parsing settings")
}

func TestKeyringAccountIsStableUnderMock(t *testing.T) {
	first := &Config{Mock: true, APIURL: "http://127.0.0.1:41234"}
	second := &Config{Mock: true, APIURL: "http://127.0.0.1:52011"}
	assert.Equal(t, MockKeyringAccount, first.KeyringAccount())
	assert.Equal(t, first.KeyringAccount(), second.KeyringAccount())

	real := &Config{APIURL: "https://welfare.example.org/api"}
	assert.Equal(t, "https://welfare.example.org/api", real.KeyringAccount())
}
