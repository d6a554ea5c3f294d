package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stockpilot-agent/stockpilot/internal/config"
)

// DefaultIndicators are the FRED series the market-analysis workflow
// gathers when a query names none: fed funds rate, CPI, GDP and the
// unemployment rate.
var DefaultIndicators = []string{"DFF", "CPIAUCSL", "GDP", "UNRATE"}

const fredBaseURL = "https://api.stlouisfed.org"

// FredClient fetches economic indicator series from the FRED API.
type FredClient struct {
	client *resty.Client
	apiKey string
	cache  *CacheManager
}

func NewFredClient(cfg *config.Config) *FredClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "fred")

	client := resty.New()
	client.SetBaseURL(fredBaseURL)
	client.SetTimeout(30 * time.Second)

	return &FredClient{
		client: client,
		apiKey: cfg.FredAPIKey,
		cache:  NewCacheManager(cacheDir, 6*time.Hour, cfg.CacheEnabled),
	}
}

// SetBaseURL points the client at a different host, used by tests.
func (f *FredClient) SetBaseURL(url string) {
	f.client.SetBaseURL(url)
}

type fredObservationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// GetSeries fetches the most recent observations of one indicator,
// newest first. FRED's "." placeholders for missing values are skipped.
func (f *FredClient) GetSeries(ctx context.Context, seriesID string, limit int) (*EconomicSeries, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("FRED API key is not configured")
	}
	if limit <= 0 {
		limit = 12
	}

	cacheKey := map[string]any{"series": seriesID, "limit": limit}
	var cached EconomicSeries
	if f.cache.Get("fred", "observations", cacheKey, &cached) {
		return &cached, nil
	}

	var payload fredObservationsResponse
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := f.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"series_id":  seriesID,
				"api_key":    f.apiKey,
				"file_type":  "json",
				"sort_order": "desc",
				"limit":      strconv.Itoa(limit),
			}).
			SetResult(&payload).
			Get("/fred/series/observations")
		if err != nil {
			return fmt.Errorf("fetch FRED series %s: %w", seriesID, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("FRED series %s: HTTP %d", seriesID, resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	series := &EconomicSeries{SeriesID: seriesID, FetchedAt: time.Now()}
	for _, obs := range payload.Observations {
		if obs.Value == "." {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		series.Observations = append(series.Observations, EconomicObservation{
			Date:  obs.Date,
			Value: value,
		})
	}

	f.cache.Set("fred", "observations", cacheKey, series)
	return series, nil
}
