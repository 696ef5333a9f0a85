package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsAlreadyClamped(t *testing.T) {
	cfg := Default()
	if cfg.NormalizedHerdCount() != DefaultHerdCount {
		t.Errorf("got herd count %d, want %d", cfg.NormalizedHerdCount(), DefaultHerdCount)
	}
	if cfg.NormalizedProvider() != DefaultProvider {
		t.Errorf("got provider %q, want %q", cfg.NormalizedProvider(), DefaultProvider)
	}
	if len(cfg.HerdModes) != 1 || cfg.HerdModes[0].Name != "default" {
		t.Errorf("expected a single default herd mode, got %+v", cfg.HerdModes)
	}
}

func TestNormalizeProviderFoldsUnknownToDefault(t *testing.T) {
	if got := NormalizeProvider("Anthropic"); got != AnthropicProvider {
		t.Errorf("got %q, want anthropic (case-insensitive)", got)
	}
	if got := NormalizeProvider("gemini"); got != DefaultProvider {
		t.Errorf("got %q, want default provider for unknown input", got)
	}
}

func TestMergedOverlaysOnlySetFields(t *testing.T) {
	base := Default()
	grace := int64(999)
	partial := partialAppConfig{StatusWaitingGraceSecs: &grace}
	merged := base.merged(partial)

	if merged.StatusWaitingGraceSecs() != 999 {
		t.Errorf("got waiting grace %d, want 999", merged.StatusWaitingGraceSecs())
	}
	if merged.CaptureLines != base.CaptureLines {
		t.Error("unset fields should be untouched by merge")
	}
}

func TestMergedClampsOutOfRangeHerdCount(t *testing.T) {
	base := Default()
	tooMany := uint8(255)
	merged := base.merged(partialAppConfig{HerdCount: &tooMany})
	if merged.NormalizedHerdCount() != MaxHerds {
		t.Errorf("got herd count %d, want clamp to %d", merged.NormalizedHerdCount(), MaxHerds)
	}
}

func TestLoadFromPathMissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFromPath(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.NormalizedHerdCount() != DefaultHerdCount {
		t.Errorf("got %d, want default herd count", cfg.NormalizedHerdCount())
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	cfg := Default()
	cfg.RefreshIntervalMs = 750

	if err := SaveToPath(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.RefreshIntervalMs != 750 {
		t.Errorf("got refresh interval %d, want 750", loaded.RefreshIntervalMs)
	}
}

func TestSlugifyNormalizesModeNames(t *testing.T) {
	if got := slugify("My Mode!!"); got != "my-mode" {
		t.Errorf("got %q, want my-mode", got)
	}
	if got := slugify("   "); got != "mode" {
		t.Errorf("got %q, want fallback 'mode' for blank input", got)
	}
}

func TestSanitizeHerdModesDropsDuplicatesAndMigratesMarkdown(t *testing.T) {
	modes := sanitizeHerdModes([]HerdModeDefinition{
		{Name: "Review", RuleFile: "review.md"},
		{Name: "review", RuleFile: "duplicate.rules.json"},
		{Name: "", RuleFile: "blank.rules.json"},
	})
	if len(modes) != 1 {
		t.Fatalf("got %d modes, want 1 after de-dup", len(modes))
	}
	if modes[0].RuleFile != "review.rules.json" {
		t.Errorf("got rule file %q, want migrated review.rules.json", modes[0].RuleFile)
	}
}

func TestSanitizeHerdModesFallsBackToDefaultWhenEmpty(t *testing.T) {
	modes := sanitizeHerdModes(nil)
	if len(modes) != 1 || modes[0].Name != "default" {
		t.Errorf("expected default herd mode fallback, got %+v", modes)
	}
}
