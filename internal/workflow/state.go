// Package workflow implements the four-stage stock-analysis pipeline:
// parameter extraction, price retrieval, cash allocation and insight
// generation. Stages communicate through a shared AnalysisState that
// only the pipeline goroutine mutates.
package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/stockpilot-agent/stockpilot/internal/agui"
	"github.com/stockpilot-agent/stockpilot/internal/dataflows"
	"github.com/stockpilot-agent/stockpilot/models"
)

// AnalysisState is threaded through the pipeline stages in order. The
// conversation is append-only; every stage that runs ends with an
// assistant message on top so the transport layer can always derive a
// response from the last message.
type AnalysisState struct {
	Messages []*schema.Message
	ToolLogs []models.ToolLogEntry
	Emitter  *agui.Emitter

	// Client-owned wallet and portfolio snapshot from the run input.
	AvailableCash *float64
	PortfolioJSON json.RawMessage

	Request   *models.InvestmentRequest
	Portfolio []models.PortfolioEntry
	StockData *dataflows.PriceSeries
	Lookback  string
	Summary   *models.InvestmentSummary
	Narrative string
	Insights  *models.Insights

	// Goto carries the next node name for the graph branch router.
	Goto string
}

func (st *AnalysisState) LastMessage() *schema.Message {
	if len(st.Messages) == 0 {
		return nil
	}
	return st.Messages[len(st.Messages)-1]
}

// PendingToolCall returns the tool call carried by the latest assistant
// message, or nil when the conversation ended in plain text. Every
// stage after extraction checks this guard so a run that degenerates to
// text skips the remaining stages.
func (st *AnalysisState) PendingToolCall() *schema.ToolCall {
	last := st.LastMessage()
	if last == nil || last.Role != schema.Assistant || len(last.ToolCalls) == 0 {
		return nil
	}
	return &last.ToolCalls[0]
}

// StartToolLog appends a "processing" progress entry and streams it to
// the client as a JSON-Patch append.
func (st *AnalysisState) StartToolLog(message string) {
	st.startToolLog(message, message)
}

// startToolLog allows the streamed wording to differ from the stored
// entry, which the allocation stage relies on.
func (st *AnalysisState) startToolLog(message, streamed string) {
	entry := models.ToolLogEntry{
		ID:      uuid.NewString(),
		Message: message,
		Status:  models.ToolLogProcessing,
	}
	st.ToolLogs = append(st.ToolLogs, entry)

	streamedEntry := entry
	streamedEntry.Message = streamed
	st.Emitter.Emit(agui.NewStateDelta(agui.PatchOp{
		Op:    "add",
		Path:  "/tool_logs/-",
		Value: streamedEntry,
	}))
}

// CompleteToolLog patches the most recent progress entry to completed.
func (st *AnalysisState) CompleteToolLog() {
	if len(st.ToolLogs) == 0 {
		return
	}
	index := len(st.ToolLogs) - 1
	st.ToolLogs[index].Status = models.ToolLogCompleted

	st.Emitter.Emit(agui.NewStateDelta(agui.PatchOp{
		Op:    "replace",
		Path:  fmt.Sprintf("/tool_logs/%d/status", index),
		Value: models.ToolLogCompleted,
	}))
}

// ReplacePortfolio streams the derived ticker/amount pairs so the
// client sees the intended allocation before any price data arrives.
func (st *AnalysisState) ReplacePortfolio(entries []models.PortfolioEntry) {
	st.Portfolio = entries
	st.Emitter.Emit(agui.NewStateDelta(agui.PatchOp{
		Op:    "replace",
		Path:  "/investment_portfolio",
		Value: entries,
	}))
}
