package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Flush.Interval != 30*time.Second {
		t.Errorf("Flush.Interval = %v, want 30s", cfg.Flush.Interval)
	}
	if cfg.Presence.TTL != 300*time.Second {
		t.Errorf("Presence.TTL = %v, want 300s", cfg.Presence.TTL)
	}
	if cfg.Presence.SweepInterval != 60*time.Second {
		t.Errorf("Presence.SweepInterval = %v, want 60s", cfg.Presence.SweepInterval)
	}
	if cfg.Leaderboard.GlobalCapacity != 500 {
		t.Errorf("GlobalCapacity = %d, want 500", cfg.Leaderboard.GlobalCapacity)
	}
	if cfg.Leaderboard.WeeklyCapacity != 100 {
		t.Errorf("WeeklyCapacity = %d, want 100", cfg.Leaderboard.WeeklyCapacity)
	}
	if len(cfg.Packages) == 0 {
		t.Fatal("default package catalog is empty")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "12345:secret")
	t.Setenv("TEST_ADMIN_PASSWORD", "hunter2")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
telegram:
  bot_token: ${TEST_BOT_TOKEN}
  enabled: true
admin:
  password: ${TEST_ADMIN_PASSWORD}
leaderboard:
  weekly_capacity: 25
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Telegram.BotToken != "12345:secret" {
		t.Errorf("BotToken = %q, env expansion failed", cfg.Telegram.BotToken)
	}
	if cfg.Admin.Password != "hunter2" {
		t.Errorf("Admin.Password = %q, env expansion failed", cfg.Admin.Password)
	}
	if cfg.Leaderboard.WeeklyCapacity != 25 {
		t.Errorf("WeeklyCapacity = %d, want 25", cfg.Leaderboard.WeeklyCapacity)
	}
	// Untouched values still get defaults.
	if cfg.Leaderboard.GlobalCapacity != 500 {
		t.Errorf("GlobalCapacity = %d, want default 500", cfg.Leaderboard.GlobalCapacity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestCapacityPerBoard(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.Leaderboard.Capacity(domain.BoardGlobal); got != 500 {
		t.Errorf("global capacity = %d, want 500", got)
	}
	if got := cfg.Leaderboard.Capacity(domain.BoardAllTime); got != 100 {
		t.Errorf("alltime capacity = %d, want 100", got)
	}
	if got := cfg.Leaderboard.Capacity(domain.WeeklyBoard("2026-W35")); got != 100 {
		t.Errorf("weekly capacity = %d, want 100", got)
	}
}

func TestFindPackage(t *testing.T) {
	cfg := DefaultConfig()

	pkg, ok := cfg.FindPackage("stars_500")
	if !ok {
		t.Fatal("stars_500 not found in default catalog")
	}
	if pkg.Total() != 550 {
		t.Errorf("stars_500 total = %d, want 550", pkg.Total())
	}

	if _, ok := cfg.FindPackage("stars_999"); ok {
		t.Error("unexpected package stars_999")
	}
}
