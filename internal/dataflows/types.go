package dataflows

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSeries is a date-indexed, ticker-keyed table of closing prices.
// Dates are chronologically sorted YYYY-MM-DD strings; every column has
// exactly len(Dates) entries and a nil entry means "no data" for that
// ticker on that date (never a silent zero).
type PriceSeries struct {
	Dates  []string                      `json:"dates"`
	Closes map[string][]*decimal.Decimal `json:"closes"`
}

// NewPriceSeries builds a sorted series from per-ticker date→price
// maps. Tickers missing a date get a nil marker there.
func NewPriceSeries(byTicker map[string]map[string]decimal.Decimal) *PriceSeries {
	dateSet := map[string]struct{}{}
	for _, prices := range byTicker {
		for date := range prices {
			dateSet[date] = struct{}{}
		}
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	closes := make(map[string][]*decimal.Decimal, len(byTicker))
	for ticker, prices := range byTicker {
		column := make([]*decimal.Decimal, len(dates))
		for i, date := range dates {
			if price, ok := prices[date]; ok {
				p := price
				column[i] = &p
			}
		}
		closes[ticker] = column
	}

	return &PriceSeries{Dates: dates, Closes: closes}
}

func (ps *PriceSeries) Len() int { return len(ps.Dates) }

// Close returns the price for a ticker at a date index. ok is false
// when the series has no data there.
func (ps *PriceSeries) Close(ticker string, i int) (decimal.Decimal, bool) {
	column, exists := ps.Closes[ticker]
	if !exists || i < 0 || i >= len(column) || column[i] == nil {
		return decimal.Zero, false
	}
	return *column[i], true
}

func (ps *PriceSeries) FirstDate() string {
	if len(ps.Dates) == 0 {
		return ""
	}
	return ps.Dates[0]
}

func (ps *PriceSeries) LastDate() string {
	if len(ps.Dates) == 0 {
		return ""
	}
	return ps.Dates[len(ps.Dates)-1]
}

// Series is a single-column price series sharing a date index.
type Series struct {
	Dates  []string           `json:"dates"`
	Values []*decimal.Decimal `json:"values"`
}

// At returns the value at index i; ok is false for a no-data marker.
func (s *Series) At(i int) (decimal.Decimal, bool) {
	if i < 0 || i >= len(s.Values) || s.Values[i] == nil {
		return decimal.Zero, false
	}
	return *s.Values[i], true
}

// NullSeries is a series of no-data markers over the given dates, used
// when a benchmark fetch fails and the comparison degrades to nulls.
func NullSeries(dates []string) *Series {
	return &Series{Dates: dates, Values: make([]*decimal.Decimal, len(dates))}
}

// ReindexFFill projects src onto the target date index, forward-filling
// gaps with the most recent earlier value. Dates before src's first
// observation stay nil.
func ReindexFFill(target []string, src *Series) *Series {
	out := &Series{Dates: target, Values: make([]*decimal.Decimal, len(target))}

	j := 0
	var last *decimal.Decimal
	for i, date := range target {
		for j < len(src.Dates) && src.Dates[j] <= date {
			if src.Values[j] != nil {
				last = src.Values[j]
			}
			j++
		}
		out.Values[i] = last
	}
	return out
}

// EconomicObservation is one dated value of a FRED series. Missing
// observations (FRED publishes "." placeholders) are skipped upstream.
type EconomicObservation struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// EconomicSeries is a fetched FRED indicator with its latest
// observations, newest first.
type EconomicSeries struct {
	SeriesID     string                `json:"series_id"`
	Title        string                `json:"title,omitempty"`
	Units        string                `json:"units,omitempty"`
	Observations []EconomicObservation `json:"observations"`
	FetchedAt    time.Time             `json:"fetched_at"`
}

// NewsArticle is one scraped news item.
type NewsArticle struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	URL         string            `json:"url"`
	Source      string            `json:"source"`
	PublishedAt time.Time         `json:"published_at"`
	Keywords    []string          `json:"keywords,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
