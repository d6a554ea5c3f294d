package models

import (
	"fmt"
	"time"
)

// IntervalSingleShot buys once at the first available date instead of
// spreading purchases across the series.
const IntervalSingleShot = "single_shot"

// ValidIntervals mirrors the enum offered to the extraction tool.
var ValidIntervals = []string{
	"1d", "5d", "7d", "1mo", "3mo", "6mo",
	"1y", "2y", "3y", "4y", "5y", IntervalSingleShot,
}

// InvestmentRequest is the structured result of parameter extraction.
// Amounts correspond positionally to Tickers.
type InvestmentRequest struct {
	Tickers         []string  `json:"ticker_symbols"`
	InvestmentDate  string    `json:"investment_date"`
	Amounts         []float64 `json:"amount_of_dollars_to_be_invested"`
	Interval        string    `json:"interval_of_investment"`
	ToMainPortfolio bool      `json:"to_be_added_in_portfolio"`
}

// Validate rejects extraction payloads the simulator cannot act on.
// A failed validation degrades the run to a text-only reply, it never
// guesses missing amounts or truncates ticker lists.
func (r *InvestmentRequest) Validate() error {
	if len(r.Tickers) == 0 {
		return fmt.Errorf("no ticker symbols extracted")
	}
	if len(r.Amounts) != len(r.Tickers) {
		return fmt.Errorf("got %d amounts for %d tickers", len(r.Amounts), len(r.Tickers))
	}
	for i, amt := range r.Amounts {
		if amt < 0 {
			return fmt.Errorf("negative amount %.2f for %s", amt, r.Tickers[i])
		}
	}
	if _, err := time.Parse("2006-01-02", r.InvestmentDate); err != nil {
		return fmt.Errorf("invalid investment date %q: %w", r.InvestmentDate, err)
	}
	if r.Interval != "" && !validInterval(r.Interval) {
		return fmt.Errorf("unknown interval %q", r.Interval)
	}
	return nil
}

// SingleShot reports whether the request uses the one-time purchase
// strategy. An unset interval defaults to single_shot, matching the
// extraction tool's instructions.
func (r *InvestmentRequest) SingleShot() bool {
	return r.Interval == "" || r.Interval == IntervalSingleShot
}

func validInterval(interval string) bool {
	for _, v := range ValidIntervals {
		if v == interval {
			return true
		}
	}
	return false
}
