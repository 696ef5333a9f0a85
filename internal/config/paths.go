package config

import (
	"os"
	"path/filepath"
)

// configDirName is the directory under the user's config home that holds
// herd's settings, state, and rule files.
const configDirName = "herd"

func configHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// DefaultConfigPath returns ~/.config/herd/settings.json (or
// $XDG_CONFIG_HOME/herd/settings.json).
func DefaultConfigPath() (string, error) {
	base, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, "settings.json"), nil
}

// DefaultStatePath returns ~/.config/herd/state.json, the persisted herd
// registry.
func DefaultStatePath() (string, error) {
	base, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, "state.json"), nil
}

// DefaultAuditLogPath returns ~/.config/herd/audit.db, the sqlite nudge
// audit log's default location.
func DefaultAuditLogPath() (string, error) {
	base, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, "audit.db"), nil
}

// RuleFilePath resolves a herd mode's configured rule file relative to the
// settings directory, unless it is already absolute.
func RuleFilePath(settingsPath, ruleFile string) string {
	if filepath.IsAbs(ruleFile) {
		return ruleFile
	}
	return filepath.Join(filepath.Dir(settingsPath), ruleFile)
}
