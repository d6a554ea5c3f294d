package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Port)
	}
	if cfg.BenchmarkTicker != "SPY" {
		t.Errorf("benchmark = %s", cfg.BenchmarkTicker)
	}
	if !cfg.CacheEnabled {
		t.Error("cache should default to enabled")
	}
	if cfg.Model == "" {
		t.Error("model must have a default")
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STOCKPILOT_MODEL", "gpt-4o")
	t.Setenv("BENCHMARK_TICKER", "VOO")
	t.Setenv("DATA_DIR", "/tmp/stockpilot-test")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("FRED_API_KEY", "fred-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.OpenAIAPIKey != "sk-test" || cfg.FredAPIKey != "fred-test" {
		t.Error("API keys not loaded")
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("model = %s", cfg.Model)
	}
	if cfg.BenchmarkTicker != "VOO" {
		t.Errorf("benchmark = %s", cfg.BenchmarkTicker)
	}
	if cfg.DataDir != "/tmp/stockpilot-test" {
		t.Errorf("data dir = %s", cfg.DataDir)
	}
	if cfg.DataCacheDir != filepath.Join("/tmp/stockpilot-test", "cache") {
		t.Errorf("cache dir = %s", cfg.DataCacheDir)
	}
	if cfg.CacheEnabled {
		t.Error("cache should be disabled")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	base := t.TempDir()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.DataCacheDir = filepath.Join(base, "data", "cache")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories should be idempotent: %v", err)
	}
}
