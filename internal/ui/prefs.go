package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"welfaredesk/internal/table"
)

// UIPreferences stores persisted app preferences.
type UIPreferences struct {
	// Tables holds per-route table preferences.
	Tables map[string]table.Prefs `json:"tables"`
	// Expanded lists the sidebar branches left open.
	Expanded []string `json:"expanded,omitempty"`
}

func defaultUIPreferences() UIPreferences {
	return UIPreferences{Tables: map[string]table.Prefs{}}
}

func prefsPath(configDir string) string {
	return filepath.Join(configDir, "ui_prefs.json")
}

func loadUIPreferences(configDir string) UIPreferences {
	if configDir == "" {
		return defaultUIPreferences()
	}
	data, err := os.ReadFile(prefsPath(configDir))
	if err != nil {
		return defaultUIPreferences()
	}

	var prefs UIPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultUIPreferences()
	}
	if prefs.Tables == nil {
		prefs.Tables = map[string]table.Prefs{}
	}
	return prefs
}

func saveUIPreferences(configDir string, prefs UIPreferences) error {
	if configDir == "" {
		return nil
	}
	path := prefsPath(configDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}
