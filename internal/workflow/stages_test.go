package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"

	"github.com/stockpilot-agent/stockpilot/internal/agui"
	"github.com/stockpilot-agent/stockpilot/internal/dataflows"
	"github.com/stockpilot-agent/stockpilot/models"
)

// fakeModel replays canned responses and records what it was asked.
type fakeModel struct {
	response   *schema.Message
	err        error
	boundTools []*schema.ToolInfo
	inputs     []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.inputs = input
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	f.boundTools = tools
	return f, nil
}

type fakePrices struct {
	series *dataflows.PriceSeries
	bench  *dataflows.Series
	err    error
}

func (f *fakePrices) QuarterlyCloses(context.Context, []string, time.Time, time.Time) (*dataflows.PriceSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func (f *fakePrices) BenchmarkSeries(_ context.Context, _ string, target *dataflows.PriceSeries) *dataflows.Series {
	if f.bench != nil {
		return f.bench
	}
	return dataflows.NullSeries(target.Dates)
}

func newTestState() *AnalysisState {
	return &AnalysisState{Emitter: agui.NewEmitter()}
}

func priceSeries(byTicker map[string]map[string]string) *dataflows.PriceSeries {
	converted := make(map[string]map[string]decimal.Decimal, len(byTicker))
	for ticker, quotes := range byTicker {
		converted[ticker] = make(map[string]decimal.Decimal, len(quotes))
		for date, price := range quotes {
			converted[ticker][date] = decimal.RequireFromString(price)
		}
	}
	return dataflows.NewPriceSeries(converted)
}

func assistantToolCall(id, name, arguments string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:   id,
			Type: "function",
			Function: schema.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}
}

func assistantText(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

const validExtraction = `{
	"ticker_symbols": ["AAPL", "MSFT"],
	"investment_date": "2024-01-02",
	"amount_of_dollars_to_be_invested": [1000, 500],
	"interval_of_investment": "single_shot",
	"to_be_added_in_portfolio": true
}`

func TestExtractAcceptsValidToolCall(t *testing.T) {
	llm := &fakeModel{response: assistantToolCall("call-1", ExtractToolName, validExtraction)}
	stages := NewStages(llm, &fakePrices{}, "SPY")

	st := newTestState()
	st.PortfolioJSON = json.RawMessage(`[{"ticker":"NVDA"}]`)
	st.Messages = []*schema.Message{schema.UserMessage("invest 1000 in AAPL and 500 in MSFT")}

	if err := stages.Extract(context.Background(), st); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if st.Request == nil {
		t.Fatal("request not extracted")
	}
	if len(st.Request.Tickers) != 2 || st.Request.Tickers[0] != "AAPL" {
		t.Errorf("tickers = %v", st.Request.Tickers)
	}
	if !st.Request.SingleShot() {
		t.Error("expected single_shot strategy")
	}

	call := st.PendingToolCall()
	if call == nil || call.Function.Name != ExtractToolName {
		t.Fatalf("pending call = %+v", call)
	}

	// The system prompt carries the caller's portfolio snapshot.
	if st.Messages[0].Role != schema.System {
		t.Fatalf("first message role = %s", st.Messages[0].Role)
	}
	if !strings.Contains(st.Messages[0].Content, `[{"ticker":"NVDA"}]`) {
		t.Error("portfolio snapshot not substituted into system prompt")
	}
	if len(llm.boundTools) != 1 || llm.boundTools[0].Name != ExtractToolName {
		t.Errorf("bound tools = %+v", llm.boundTools)
	}
}

func TestExtractRejectsMismatchedAmounts(t *testing.T) {
	bad := `{
		"ticker_symbols": ["AAPL", "MSFT"],
		"investment_date": "2024-01-02",
		"amount_of_dollars_to_be_invested": [1000],
		"interval_of_investment": "single_shot",
		"to_be_added_in_portfolio": false
	}`
	llm := &fakeModel{response: assistantToolCall("call-1", ExtractToolName, bad)}
	stages := NewStages(llm, &fakePrices{}, "SPY")

	st := newTestState()
	st.Messages = []*schema.Message{schema.UserMessage("invest")}

	if err := stages.Extract(context.Background(), st); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if st.Request != nil {
		t.Error("rejected payload must not populate the request")
	}
	if st.PendingToolCall() != nil {
		t.Error("rejected run must end in plain text")
	}
	if got := st.LastMessage().Content; got != extractionRejectedReply {
		t.Errorf("reply = %q", got)
	}
}

func TestExtractKeepsTextOnlyReply(t *testing.T) {
	llm := &fakeModel{response: assistantText("I can help you simulate stock investments.")}
	stages := NewStages(llm, &fakePrices{}, "SPY")

	st := newTestState()
	st.Messages = []*schema.Message{schema.UserMessage("what can you do?")}

	if err := stages.Extract(context.Background(), st); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if st.PendingToolCall() != nil {
		t.Error("text reply should leave no pending tool call")
	}
	if got := st.LastMessage().Content; got != "I can help you simulate stock investments." {
		t.Errorf("reply = %q", got)
	}
}

func TestExtractDegradesOnModelError(t *testing.T) {
	llm := &fakeModel{err: errors.New("rate limited")}
	stages := NewStages(llm, &fakePrices{}, "SPY")

	st := newTestState()
	st.Messages = []*schema.Message{schema.UserMessage("invest")}

	if err := stages.Extract(context.Background(), st); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	last := st.LastMessage()
	if last == nil || last.Role != schema.Assistant || last.Content != "" {
		t.Errorf("last message = %+v", last)
	}
}

func TestAllocateAppendsRenderToolCall(t *testing.T) {
	prices := &fakePrices{bench: benchSeriesAt("2024-01-02", "400")}
	stages := NewStages(&fakeModel{}, prices, "SPY")

	st := newTestState()
	st.Request = &models.InvestmentRequest{
		Tickers:        []string{"AAPL"},
		Amounts:        []float64{1000},
		InvestmentDate: "2024-01-02",
		Interval:       models.IntervalSingleShot,
	}
	st.StockData = priceSeries(map[string]map[string]string{
		"AAPL": {"2024-01-02": "100"},
	})
	st.Messages = append(st.Messages, assistantToolCall("call-1", ExtractToolName, "{}"))

	if err := stages.Allocate(context.Background(), st); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if st.Summary == nil {
		t.Fatal("summary not built")
	}
	if st.AvailableCash == nil || *st.AvailableCash != 0 {
		t.Errorf("available cash = %v, want 0", st.AvailableCash)
	}

	// The acknowledgement answers the extraction call.
	ack := st.Messages[len(st.Messages)-2]
	if ack.Role != schema.Tool || ack.ToolCallID != "call-1" {
		t.Errorf("ack = %+v", ack)
	}
	if ack.Content != "The relevant details had been extracted" {
		t.Errorf("ack content = %q", ack.Content)
	}

	call := st.PendingToolCall()
	if call == nil || call.Function.Name != RenderToolName {
		t.Fatalf("pending call = %+v", call)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(call.Function.Arguments), &payload); err != nil {
		t.Fatalf("arguments are not JSON: %v", err)
	}
	if _, ok := payload["investment_summary"]; !ok {
		t.Error("arguments missing investment_summary")
	}
}

func TestAllocateUsesWalletWhenProvided(t *testing.T) {
	prices := &fakePrices{}
	stages := NewStages(&fakeModel{}, prices, "SPY")

	wallet := 250.0
	st := newTestState()
	st.AvailableCash = &wallet
	st.Request = &models.InvestmentRequest{
		Tickers:        []string{"AAPL"},
		Amounts:        []float64{1000},
		InvestmentDate: "2024-01-02",
		Interval:       models.IntervalSingleShot,
	}
	st.StockData = priceSeries(map[string]map[string]string{
		"AAPL": {"2024-01-02": "100"},
	})
	st.Messages = append(st.Messages, assistantToolCall("call-1", ExtractToolName, "{}"))

	if err := stages.Allocate(context.Background(), st); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// 250 in the wallet cannot cover the requested 1000, so nothing is
	// bought and the wallet is untouched.
	if st.AvailableCash == nil || *st.AvailableCash != 250 {
		t.Errorf("available cash = %v, want 250", st.AvailableCash)
	}
	if !st.Summary.AddFundsNeeded || len(st.Summary.AddFundsDates) == 0 {
		t.Error("expected a recorded shortfall")
	}
}

func TestGatherInsightsMergesIntoPendingCall(t *testing.T) {
	insights := `{"bullInsights":[{"title":"Strong demand","description":"d","emoji":"🚀"}],"bearInsights":[]}`
	llm := &fakeModel{response: assistantToolCall("call-2", InsightsToolName, insights)}
	stages := NewStages(llm, &fakePrices{}, "SPY")

	st := newTestState()
	st.Request = &models.InvestmentRequest{Tickers: []string{"AAPL"}}
	st.Messages = append(st.Messages, assistantToolCall("call-1", RenderToolName, `{"investment_summary":{}}`))

	if err := stages.GatherInsights(context.Background(), st); err != nil {
		t.Fatalf("GatherInsights: %v", err)
	}

	call := st.PendingToolCall()
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(call.Function.Arguments), &payload); err != nil {
		t.Fatalf("merged arguments are not JSON: %v", err)
	}
	if _, ok := payload["investment_summary"]; !ok {
		t.Error("original payload lost during merge")
	}
	raw, ok := payload["insights"]
	if !ok {
		t.Fatal("insights not merged")
	}
	var parsed models.Insights
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("insights payload: %v", err)
	}
	if len(parsed.BullInsights) != 1 || parsed.BullInsights[0].Title != "Strong demand" {
		t.Errorf("bull insights = %+v", parsed.BullInsights)
	}
	if len(llm.boundTools) != 1 || llm.boundTools[0].Name != InsightsToolName {
		t.Errorf("bound tools = %+v", llm.boundTools)
	}
}

func TestGatherInsightsLeavesPayloadOnModelError(t *testing.T) {
	llm := &fakeModel{err: errors.New("timeout")}
	stages := NewStages(llm, &fakePrices{}, "SPY")

	original := `{"investment_summary":{}}`
	st := newTestState()
	st.Request = &models.InvestmentRequest{Tickers: []string{"AAPL"}}
	st.Messages = append(st.Messages, assistantToolCall("call-1", RenderToolName, original))

	if err := stages.GatherInsights(context.Background(), st); err != nil {
		t.Fatalf("GatherInsights: %v", err)
	}
	if got := st.PendingToolCall().Function.Arguments; got != original {
		t.Errorf("arguments changed: %q", got)
	}
	if st.Insights == nil {
		t.Error("expected empty insights placeholder")
	}
}

func TestToolLogLifecycleEvents(t *testing.T) {
	st := newTestState()

	st.startToolLog("Calculating portfolio allocation", "Allocating cash")
	st.CompleteToolLog()

	if len(st.ToolLogs) != 1 {
		t.Fatalf("tool logs = %d", len(st.ToolLogs))
	}
	if st.ToolLogs[0].Message != "Calculating portfolio allocation" {
		t.Errorf("stored message = %q", st.ToolLogs[0].Message)
	}
	if st.ToolLogs[0].Status != models.ToolLogCompleted {
		t.Errorf("status = %q", st.ToolLogs[0].Status)
	}

	ops := drainDeltas(st.Emitter)
	if len(ops) != 2 {
		t.Fatalf("ops = %+v", ops)
	}
	if ops[0].Op != "add" || ops[0].Path != "/tool_logs/-" {
		t.Errorf("first op = %+v", ops[0])
	}
	entry, ok := ops[0].Value.(models.ToolLogEntry)
	if !ok {
		t.Fatalf("first op value = %T", ops[0].Value)
	}
	// The streamed wording may differ from the stored entry.
	if entry.Message != "Allocating cash" {
		t.Errorf("streamed message = %q", entry.Message)
	}
	if ops[1].Op != "replace" || ops[1].Path != "/tool_logs/0/status" {
		t.Errorf("second op = %+v", ops[1])
	}
}

func benchSeriesAt(date, price string) *dataflows.Series {
	v := decimal.RequireFromString(price)
	return &dataflows.Series{
		Dates:  []string{date},
		Values: []*decimal.Decimal{&v},
	}
}
