package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stockpilot-agent/stockpilot/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataCacheDir = t.TempDir()
	cfg.CacheEnabled = false
	return cfg
}

func TestFredGetSeriesParsesObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fred/series/observations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("series_id"); got != "DFF" {
			t.Errorf("series_id = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"observations": [
			{"date": "2025-08-01", "value": "5.33"},
			{"date": "2025-07-01", "value": "."},
			{"date": "2025-06-01", "value": "5.25"}
		]}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.FredAPIKey = "test-key"
	client := NewFredClient(cfg)
	client.SetBaseURL(srv.URL)

	series, err := client.GetSeries(context.Background(), "DFF", 12)
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if series.SeriesID != "DFF" {
		t.Errorf("series id = %s", series.SeriesID)
	}
	// The "." placeholder row is dropped.
	if len(series.Observations) != 2 {
		t.Fatalf("observations = %d, want 2", len(series.Observations))
	}
	if series.Observations[0].Value != 5.33 || series.Observations[0].Date != "2025-08-01" {
		t.Errorf("first observation = %+v", series.Observations[0])
	}
}

func TestFredGetSeriesRequiresAPIKey(t *testing.T) {
	cfg := testConfig(t)
	client := NewFredClient(cfg)

	if _, err := client.GetSeries(context.Background(), "DFF", 12); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestFredGetSeriesUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"observations": [{"date": "2025-08-01", "value": "2.5"}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.FredAPIKey = "test-key"
	cfg.CacheEnabled = true
	client := NewFredClient(cfg)
	client.SetBaseURL(srv.URL)

	for i := 0; i < 2; i++ {
		if _, err := client.GetSeries(context.Background(), "UNRATE", 5); err != nil {
			t.Fatalf("GetSeries %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
}
