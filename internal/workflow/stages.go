package workflow

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/stockpilot-agent/stockpilot/internal/dataflows"
)

// PriceSource is the slice of the market-data client the pipeline
// needs, split out so tests can substitute a fake.
type PriceSource interface {
	QuarterlyCloses(ctx context.Context, tickers []string, start, end time.Time) (*dataflows.PriceSeries, error)
	BenchmarkSeries(ctx context.Context, ticker string, target *dataflows.PriceSeries) *dataflows.Series
}

// Stages bundles the pipeline's stage functions with their injected
// collaborators. One instance serves all requests; per-request data
// lives in AnalysisState.
type Stages struct {
	llm       model.ToolCallingChatModel
	prices    PriceSource
	benchmark string
}

func NewStages(llm model.ToolCallingChatModel, prices PriceSource, benchmark string) *Stages {
	return &Stages{llm: llm, prices: prices, benchmark: benchmark}
}
