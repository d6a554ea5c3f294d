package dataflows

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"github.com/stockpilot-agent/stockpilot/internal/config"
)

// Quarterly is the fixed sampling interval for historical windows; the
// simulator's accounting assumes one observation per quarter.
var Quarterly = datetime.Interval("3mo")

// YahooFinanceClient retrieves historical closing prices.
type YahooFinanceClient struct {
	cache *CacheManager
}

func NewYahooFinanceClient(cfg *config.Config) *YahooFinanceClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "yahoo_finance")
	return &YahooFinanceClient{
		cache: NewCacheManager(cacheDir, 24*time.Hour, cfg.CacheEnabled),
	}
}

// QuarterlyCloses fetches quarterly closing prices for all tickers over
// [start, end] and merges them onto one date index. A ticker whose
// fetch fails after retries contributes only no-data markers; the call
// errors only when every ticker fails.
func (yf *YahooFinanceClient) QuarterlyCloses(ctx context.Context, tickers []string, start, end time.Time) (*PriceSeries, error) {
	byTicker := make(map[string]map[string]decimal.Decimal, len(tickers))
	var fetched int
	var lastErr error

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prices, err := yf.fetchOne(ticker, start, end)
		if err != nil {
			log.Printf("price fetch failed for %s: %v", ticker, err)
			lastErr = err
			byTicker[ticker] = map[string]decimal.Decimal{}
			continue
		}
		byTicker[ticker] = prices
		fetched++
	}

	if fetched == 0 && len(tickers) > 0 {
		return nil, fmt.Errorf("no price data for any of %v: %w", tickers, lastErr)
	}
	return NewPriceSeries(byTicker), nil
}

// BenchmarkSeries fetches the benchmark ticker over the exact span of
// an already-fetched series and reindexes it onto that series' dates
// with forward-fill. A failed fetch degrades to all no-data markers so
// the comparison never aborts a simulation.
func (yf *YahooFinanceClient) BenchmarkSeries(ctx context.Context, ticker string, target *PriceSeries) *Series {
	if target.Len() == 0 {
		return NullSeries(nil)
	}

	start, err := time.Parse("2006-01-02", target.FirstDate())
	if err != nil {
		return NullSeries(target.Dates)
	}
	end, err := time.Parse("2006-01-02", target.LastDate())
	if err != nil {
		return NullSeries(target.Dates)
	}

	prices, err := yf.fetchOne(ticker, start, end)
	if err != nil {
		log.Printf("benchmark fetch failed for %s: %v", ticker, err)
		return NullSeries(target.Dates)
	}

	src := &Series{}
	series := NewPriceSeries(map[string]map[string]decimal.Decimal{ticker: prices})
	src.Dates = series.Dates
	src.Values = series.Closes[ticker]

	return ReindexFFill(target.Dates, src)
}

func (yf *YahooFinanceClient) fetchOne(ticker string, start, end time.Time) (map[string]decimal.Decimal, error) {
	cacheKey := map[string]string{
		"symbol": ticker,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}

	var cached map[string]decimal.Decimal
	if yf.cache.Get("yahoo", "quarterly", cacheKey, &cached) {
		return cached, nil
	}

	var result map[string]decimal.Decimal
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   ticker,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: Quarterly,
		}

		iter := chart.Get(params)

		result = make(map[string]decimal.Decimal)
		for iter.Next() {
			bar := iter.Bar()
			date := time.Unix(int64(bar.Timestamp), 0).UTC().Format("2006-01-02")
			result[date] = bar.Close
		}

		if err := iter.Err(); err != nil {
			return fmt.Errorf("historical data for %s: %w", ticker, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yf.cache.Set("yahoo", "quarterly", cacheKey, result)
	return result, nil
}
