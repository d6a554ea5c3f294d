package models

import "encoding/json"

// ToolLogStatus values for UI progress entries.
const (
	ToolLogProcessing = "processing"
	ToolLogCompleted  = "completed"
)

// ToolLogEntry is one UI-facing progress line. Entries are created as
// "processing" when a pipeline stage starts and patched to "completed"
// when it ends.
type ToolLogEntry struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// InputMessage is one conversation turn as sent by the client.
type InputMessage struct {
	ID         string          `json:"id,omitempty"`
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  json.RawMessage `json:"toolCalls,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
}

// AgentStateInput is the client-owned state snapshot accompanying a run.
// AvailableCash is nil when the wallet balance is unknown, in which
// case the simulator starts from the sum of requested amounts.
type AgentStateInput struct {
	AvailableCash       *float64        `json:"available_cash"`
	InvestmentSummary   json.RawMessage `json:"investment_summary"`
	InvestmentPortfolio json.RawMessage `json:"investment_portfolio"`
}

// RunAgentInput is the body of a stock-agent run request.
type RunAgentInput struct {
	ThreadID string          `json:"thread_id"`
	RunID    string          `json:"run_id"`
	Messages []InputMessage  `json:"messages"`
	State    AgentStateInput `json:"state"`
	Tools    json.RawMessage `json:"tools,omitempty"`
}
