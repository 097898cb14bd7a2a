package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TablePrefs stores per-table UI preferences.
type TablePrefs struct {
	SortKey       string   `json:"sort_key"`
	SortDesc      bool     `json:"sort_desc"`
	HiddenColumns []string `json:"hidden_columns"`
	ActiveColumn  string   `json:"active_column"`
}

// UIPreferences stores persisted app preferences.
type UIPreferences struct {
	Deliveries TablePrefs `json:"deliveries"`
	History    TablePrefs `json:"history"`
}

func prefsPath(dataDir string) string {
	return filepath.Join(dataDir, "ui_prefs.json")
}

// loadUIPreferences reads the preferences file. A missing or unreadable file
// yields defaults.
func loadUIPreferences(dataDir string) UIPreferences {
	if dataDir == "" {
		return UIPreferences{}
	}
	data, err := os.ReadFile(prefsPath(dataDir))
	if err != nil {
		return UIPreferences{}
	}

	var prefs UIPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return UIPreferences{}
	}
	return prefs
}

func saveUIPreferences(dataDir string, prefs UIPreferences) error {
	if dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(prefsPath(dataDir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}
