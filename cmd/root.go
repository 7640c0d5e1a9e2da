package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Session store kinds.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
)

const defaultPageSize = 25

// Config holds CLI configuration.
type Config struct {
	APIURL       string
	ConfigDir    string
	Timeout      time.Duration
	RateLimit    float64
	SessionStore string
	PageSize     int
	Mock         bool
	MockDBPath   string
	LogLevel     slog.Level
	ShowVersion  bool
}

// ParseFlags parses command-line flags, the environment and config.yaml,
// running first-time onboarding when no API URL is known.
func ParseFlags() (*Config, error) {
	// Load .env files first so env-based defaults work with existing flag parsing.
	loadDotEnv(".env")
	loadDotEnv(".env.local")

	config, err := parseArgs(os.Args[1:], os.Getenv, io.Discard)
	if err != nil {
		return nil, err
	}
	if config.ShowVersion {
		return config, nil
	}

	if err := os.MkdirAll(config.ConfigDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	settings, err := LoadSettings(config.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if config.APIURL == "" && settings.APIURL == "" && !config.Mock && isTerminal() {
		settings, err = runOnboarding(config.ConfigDir, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to run onboarding: %w", err)
		}
	}
	if err := config.applySettings(settings); err != nil {
		return nil, err
	}
	return config, nil
}

// parseArgs reads flags with environment fallbacks. It does not touch the
// filesystem.
func parseArgs(args []string, getenv func(string) string, output io.Writer) (*Config, error) {
	config := &Config{}
	fs := flag.NewFlagSet("welfaredesk", flag.ContinueOnError)
	fs.SetOutput(output)

	var logLevel string
	fs.StringVar(&config.APIURL, "api", "", "Backend base URL (or set WELFAREDESK_API_URL)")
	fs.StringVar(&config.ConfigDir, "config-dir", "", "Directory for settings, session and logs (default: ~/.welfaredesk)")
	fs.DurationVar(&config.Timeout, "timeout", 15*time.Second, "Per-request timeout")
	fs.Float64Var(&config.RateLimit, "rate", 0, "Maximum requests per second, 0 for unlimited")
	fs.StringVar(&config.SessionStore, "session-store", "", "Where to keep the session: file or keyring")
	fs.BoolVar(&config.Mock, "mock", false, "Serve the bundled demo backend in-process")
	fs.StringVar(&config.MockDBPath, "mock-db", "", "SQLite file for -mock (default: <config-dir>/mock.db)")
	fs.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if config.APIURL == "" {
		config.APIURL = getenv("WELFAREDESK_API_URL")
	}
	if config.SessionStore == "" {
		config.SessionStore = getenv("WELFAREDESK_SESSION_STORE")
	}
	if err := config.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q", logLevel)
	}
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("-timeout must be positive")
	}
	if config.RateLimit < 0 {
		return nil, fmt.Errorf("-rate must not be negative")
	}

	if config.ConfigDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		config.ConfigDir = filepath.Join(home, ".welfaredesk")
	}
	if config.Mock && config.MockDBPath == "" {
		config.MockDBPath = filepath.Join(config.ConfigDir, "mock.db")
	}
	return config, nil
}

// applySettings fills values left unset by flags and environment.
func (c *Config) applySettings(s Settings) error {
	if c.APIURL == "" {
		c.APIURL = s.APIURL
	}
	if c.SessionStore == "" {
		c.SessionStore = s.SessionStore
	}
	if c.SessionStore == "" {
		c.SessionStore = StoreFile
	}
	if c.SessionStore != StoreFile && c.SessionStore != StoreKeyring {
		return fmt.Errorf("unknown session store %q (want %s or %s)", c.SessionStore, StoreFile, StoreKeyring)
	}
	c.PageSize = s.PageSize
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.APIURL == "" && !c.Mock {
		return fmt.Errorf("no backend configured: pass -api, set WELFAREDESK_API_URL or use -mock")
	}
	return nil
}

// MockKeyringAccount names keyring sessions of the demo backend, whose URL
// changes every run.
const MockKeyringAccount = "mock"

// KeyringAccount is the keyring entry the session is stored under.
func (c *Config) KeyringAccount() string {
	if c.Mock {
		return MockKeyringAccount
	}
	return c.APIURL
}

func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		if key == "" {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}
