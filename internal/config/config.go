package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the server and CLI need, populated from
// the environment. Collaborator clients are constructed from it and
// injected explicitly; nothing reads the environment after Load.
type Config struct {
	Port int `json:"port"`

	OpenAIAPIKey  string `json:"-"`
	OpenAIBaseURL string `json:"openai_base_url"`
	Model         string `json:"model"`

	BenchmarkTicker string `json:"benchmark_ticker"`

	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	CacheEnabled bool   `json:"cache_enabled"`

	FredAPIKey string `json:"-"`

	Debug bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		Port:            8000,
		OpenAIBaseURL:   "https://api.openai.com/v1",
		Model:           "gpt-4.1-mini",
		BenchmarkTicker: "SPY",
		DataDir:         filepath.Join(currentDir, "data"),
		DataCacheDir:    filepath.Join(currentDir, "data", "cache"),
		CacheEnabled:    true,
	}
}

// Load reads .env when present, then overlays environment variables on
// the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv("STOCKPILOT_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("BENCHMARK_TICKER"); v != "" {
		cfg.BenchmarkTicker = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.DataCacheDir = filepath.Join(v, "cache")
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_ENABLED %q: %w", v, err)
		}
		cfg.CacheEnabled = enabled
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.FredAPIKey = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}

	return cfg, nil
}

// EnsureDirectories creates the data and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.DataCacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
