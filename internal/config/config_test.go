package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/common/model"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinSimilarity != 0.7 {
		t.Fatalf("MinSimilarity = %v, want 0.7", cfg.MinSimilarity)
	}
	if cfg.TriggerThresholdMS != 500 {
		t.Fatalf("TriggerThresholdMS = %d, want 500", cfg.TriggerThresholdMS)
	}
	if cfg.SuspendTimeout != model.Duration(20*time.Second) {
		t.Fatalf("SuspendTimeout = %v, want 20s", cfg.SuspendTimeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := "min_similarity: 0.5\nsettle_delay: 1s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOBBYSWAP_MIN_SIMILARITY", "0.85")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinSimilarity != 0.85 {
		t.Fatalf("env override lost: MinSimilarity = %v", cfg.MinSimilarity)
	}
	if cfg.SettleDelay != model.Duration(time.Second) {
		t.Fatalf("file value lost: SettleDelay = %v", cfg.SettleDelay)
	}
}

func TestValidateRejectsBadSimilarity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("min_similarity: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("similarity above 1 accepted")
	}
}
