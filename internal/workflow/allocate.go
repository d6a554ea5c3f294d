package workflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpilot-agent/stockpilot/internal/simulation"
)

// Allocate runs the cash-allocation simulation and the benchmark
// replication, then appends the tool acknowledgement and the
// chart-rendering tool call carrying the full summary.
func (s *Stages) Allocate(ctx context.Context, st *AnalysisState) error {
	call := st.PendingToolCall()
	if call == nil || st.Request == nil || st.StockData == nil {
		return nil
	}

	st.startToolLog("Calculating portfolio allocation", "Allocating cash")
	defer st.CompleteToolLog()

	amounts := make([]decimal.Decimal, len(st.Request.Amounts))
	for i, amount := range st.Request.Amounts {
		amounts[i] = decimal.NewFromFloat(amount)
	}

	// Wallet balance when the client supplied one, otherwise the sum of
	// the requested amounts.
	startingCash := decimal.Zero
	if st.AvailableCash != nil {
		startingCash = decimal.NewFromFloat(*st.AvailableCash)
	} else {
		for _, amount := range amounts {
			startingCash = startingCash.Add(amount)
		}
	}

	singleShot := st.Request.SingleShot()
	port := simulation.SimulatePortfolio(st.StockData, st.Request.Tickers, amounts, singleShot, startingCash)

	benchSeries := s.prices.BenchmarkSeries(ctx, s.benchmark, st.StockData)
	bench := simulation.SimulateBenchmark(benchSeries, s.benchmark, port.TotalInvested, singleShot)

	summary, narrative := simulation.BuildSummary(st.StockData, st.Request.Tickers, port, bench, benchSeries)
	st.Summary = summary
	st.Narrative = narrative

	remaining := port.Cash.InexactFloat64()
	st.AvailableCash = &remaining

	payload, err := json.Marshal(map[string]any{"investment_summary": summary})
	if err != nil {
		log.Printf("encoding investment summary: %v", err)
		return nil
	}

	st.Messages = append(st.Messages,
		schema.ToolMessage("The relevant details had been extracted", call.ID),
		&schema.Message{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				ID:   uuid.NewString(),
				Type: "function",
				Function: schema.FunctionCall{
					Name:      RenderToolName,
					Arguments: string(payload),
				},
			}},
		},
	)
	return nil
}
