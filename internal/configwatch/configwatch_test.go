package configwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leo/herd/internal/config"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"cooldown_secs": 60}`), 0o644); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	reloaded := make(chan config.AppConfig, 1)
	w, err := Start(path, func(cfg config.AppConfig) {
		reloaded <- cfg
	}, func(err error) {
		t.Errorf("unexpected watch error: %v", err)
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`{"cooldown_secs": 90}`), 0o644); err != nil {
		t.Fatalf("rewrite settings: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.CooldownSecs != 90 {
			t.Fatalf("CooldownSecs = %d, want 90", cfg.CooldownSecs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}

func TestStartFailsOnMissingDirectory(t *testing.T) {
	_, err := Start(filepath.Join(t.TempDir(), "missing-dir", "settings.json"), nil, nil)
	if err == nil {
		t.Fatal("expected error watching a directory that does not exist")
	}
}
