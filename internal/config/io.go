package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFromPath reads a settings file at path and merges it onto Default().
// A missing file is not an error: it yields the defaults, matching first-run
// behavior.
func LoadFromPath(path string) (AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return AppConfig{}, fmt.Errorf("failed reading settings file %s: %w", path, err)
	}
	var partial partialAppConfig
	if err := json.Unmarshal(raw, &partial); err != nil {
		return AppConfig{}, fmt.Errorf("failed parsing settings file %s: %w", path, err)
	}
	return Default().merged(partial), nil
}

// SaveToPath writes cfg to path as pretty JSON, creating parent directories
// as needed.
func SaveToPath(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed creating settings directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed writing settings file %s: %w", path, err)
	}
	return nil
}

// EnsureHerdModeFiles materializes a default rule file for every herd mode
// in cfg whose rule file does not yet exist on disk, relative to
// settingsPath's directory.
func EnsureHerdModeFiles(settingsPath string, cfg AppConfig) error {
	for _, mode := range cfg.HerdModes {
		path := RuleFilePath(settingsPath, mode.RuleFile)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed checking rule file %s: %w", path, err)
		}
		content, err := DefaultRuleFileContentFor(mode.Name)
		if err != nil {
			return fmt.Errorf("failed building default rule file for mode %s: %w", mode.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed creating rule file directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed writing rule file %s: %w", path, err)
		}
	}
	return nil
}
