package workflow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpilot-agent/stockpilot/internal/dataflows"
	"github.com/stockpilot-agent/stockpilot/models"
)

// maxLookbackYears caps how much history a run may fetch.
const maxLookbackYears = 4

// FetchPrices retrieves quarterly closing prices for the extracted
// tickers from the (possibly clamped) investment date through today.
// It first streams the intended allocation so the client renders the
// portfolio before any market data arrives.
func (s *Stages) FetchPrices(ctx context.Context, st *AnalysisState) error {
	if st.PendingToolCall() == nil || st.Request == nil {
		return nil
	}

	st.StartToolLog("Gathering Stock Data")
	defer st.CompleteToolLog()

	entries := make([]models.PortfolioEntry, len(st.Request.Tickers))
	for i, ticker := range st.Request.Tickers {
		entries[i] = models.PortfolioEntry{Ticker: ticker, Amount: st.Request.Amounts[i]}
	}
	st.ReplacePortfolio(entries)

	startDate, lookback := clampWindow(st.Request.InvestmentDate, time.Now())
	st.Lookback = lookback

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		// Validation upstream makes this unreachable; degrade to an
		// empty series rather than abort.
		log.Printf("unparseable start date %q: %v", startDate, err)
		st.StockData = emptySeries(st.Request.Tickers)
		return nil
	}

	series, err := s.prices.QuarterlyCloses(ctx, st.Request.Tickers, start, time.Now())
	if err != nil {
		log.Printf("price fetch failed: %v", err)
		st.StockData = emptySeries(st.Request.Tickers)
		return nil
	}
	st.StockData = series
	return nil
}

// clampWindow enforces the lookback cap: an investment date more than
// four years before the current year is moved to January 1st of
// current_year-4. The returned label describes the window depth and is
// informational only.
func clampWindow(investmentDate string, now time.Time) (string, string) {
	currentYear := now.Year()

	year := currentYear
	if len(investmentDate) >= 4 {
		if parsed, err := strconv.Atoi(investmentDate[:4]); err == nil {
			year = parsed
		}
	}

	if currentYear-year > maxLookbackYears {
		year = currentYear - maxLookbackYears
		investmentDate = fmt.Sprintf("%d-01-01", year)
	}

	lookback := "1y"
	if years := currentYear - year; years > 0 {
		lookback = fmt.Sprintf("%dy", years)
	}
	return investmentDate, lookback
}

func emptySeries(tickers []string) *dataflows.PriceSeries {
	byTicker := make(map[string]map[string]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		byTicker[ticker] = map[string]decimal.Decimal{}
	}
	return dataflows.NewPriceSeries(byTicker)
}
