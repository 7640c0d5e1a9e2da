package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsFile is the settings file name within the config directory.
const SettingsFile = "config.yaml"

// Settings are the persisted defaults in config.yaml. Flags and environment
// variables override them.
type Settings struct {
	APIURL       string `yaml:"api_url"`
	PageSize     int    `yaml:"page_size,omitempty"`
	SessionStore string `yaml:"session_store,omitempty"`
}

func settingsPath(configDir string) string {
	return filepath.Join(configDir, SettingsFile)
}

// LoadSettings reads config.yaml, returning zero settings when it does not
// exist.
func LoadSettings(configDir string) (Settings, error) {
	path := settingsPath(configDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	return s, nil
}

// SaveSettings writes config.yaml, creating the directory if needed.
func SaveSettings(configDir string, s Settings) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(settingsPath(configDir), data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
