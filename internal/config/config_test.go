package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Game.TickInterval.Std() != 100*time.Millisecond {
		t.Errorf("tick interval = %v, want 100ms", cfg.Game.TickInterval.Std())
	}
	if cfg.Game.HouseEdge != 0.01 {
		t.Errorf("house edge = %v, want 0.01", cfg.Game.HouseEdge)
	}
	if cfg.Game.StartingBTC != 0.05 || cfg.Game.StartingETH != 0.1 {
		t.Errorf("starting balances = %v BTC / %v ETH", cfg.Game.StartingBTC, cfg.Game.StartingETH)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_ParsesDurationsAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
game:
  betting_window: 3s
  tick_interval: 50ms
  house_edge: 0.02
price:
  cache_ttl: 2s
  use_mock: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Game.BettingWindow.Std() != 3*time.Second {
		t.Errorf("betting window = %v, want 3s", cfg.Game.BettingWindow.Std())
	}
	if cfg.Game.TickInterval.Std() != 50*time.Millisecond {
		t.Errorf("tick interval = %v, want 50ms", cfg.Game.TickInterval.Std())
	}
	if cfg.Price.CacheTTL.Std() != 2*time.Second {
		t.Errorf("cache ttl = %v, want 2s", cfg.Price.CacheTTL.Std())
	}
	if !cfg.Price.UseMock {
		t.Error("use_mock not parsed")
	}
}

func TestValidate_RejectsInconsistentGameSettings(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	cfg.Game.HouseEdge = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("house edge above 1 should be rejected")
	}

	cfg.Game.HouseEdge = 0.01
	cfg.Game.MinBetUSD = 100
	cfg.Game.MaxBetUSD = 10
	if err := cfg.Validate(); err == nil {
		t.Error("min above max should be rejected")
	}

	cfg.Game.MinBetUSD = 1
	cfg.Game.MaxBetUSD = 10000
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = ""
	if err := cfg.Validate(); err == nil {
		t.Error("bot token without chat id should be rejected")
	}
}
