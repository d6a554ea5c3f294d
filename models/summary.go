package models

import "encoding/json"

// PortfolioEntry is one intended allocation shown to the client as soon
// as parameters are known, before any price data arrives.
type PortfolioEntry struct {
	Ticker string  `json:"ticker"`
	Amount float64 `json:"amount"`
}

// Shortfall records one purchase that could not be made. It serializes
// as a [date, ticker, price, amount] tuple; Price is null when the date
// had no quote at all.
type Shortfall struct {
	Date   string
	Ticker string
	Price  *float64
	Amount float64
}

func (s Shortfall) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Date, s.Ticker, s.Price, s.Amount})
}

func (s *Shortfall) UnmarshalJSON(data []byte) error {
	tuple := []json.RawMessage{}
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) > 0 {
		if err := json.Unmarshal(tuple[0], &s.Date); err != nil {
			return err
		}
	}
	if len(tuple) > 1 {
		if err := json.Unmarshal(tuple[1], &s.Ticker); err != nil {
			return err
		}
	}
	if len(tuple) > 2 {
		if err := json.Unmarshal(tuple[2], &s.Price); err != nil {
			return err
		}
	}
	if len(tuple) > 3 {
		if err := json.Unmarshal(tuple[3], &s.Amount); err != nil {
			return err
		}
	}
	return nil
}

// PerformancePoint is one sample of the portfolio-versus-benchmark
// chart. Portfolio excludes idle cash so the curve reflects invested
// assets only; Benchmark includes its own residual cash. Either value
// is null when no price existed for that date.
type PerformancePoint struct {
	Date      string   `json:"date"`
	Portfolio *float64 `json:"portfolio"`
	Benchmark *float64 `json:"spy"`
}

// InvestmentSummary is the immutable result of one allocation
// simulation, delivered to the client as the argument payload of the
// chart-rendering tool call.
type InvestmentSummary struct {
	Holdings          map[string]int64    `json:"holdings"`
	FinalPrices       map[string]*float64 `json:"final_prices"`
	Cash              float64             `json:"cash"`
	Returns           map[string]float64  `json:"returns"`
	TotalValue        float64             `json:"total_value"`
	InvestmentLog     []string            `json:"investment_log"`
	AddFundsNeeded    bool                `json:"add_funds_needed"`
	AddFundsDates     []Shortfall         `json:"add_funds_dates"`
	InvestedPerStock  map[string]float64  `json:"total_invested_per_stock"`
	PercentAllocation map[string]float64  `json:"percent_allocation_per_stock"`
	PercentReturn     map[string]float64  `json:"percent_return_per_stock"`
	PerformanceData   []PerformancePoint  `json:"performanceData"`
}

// Insight is one bull or bear commentary item for a ticker.
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// Insights is the payload of the generate_insights tool call.
type Insights struct {
	BullInsights []Insight `json:"bullInsights"`
	BearInsights []Insight `json:"bearInsights"`
}
