// Package service runs one agent request end to end: it seeds the
// pipeline state from the run input, executes the graph in the
// background while draining progress events, and derives the final
// client-facing events from the conversation's last assistant message.
package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/stockpilot-agent/stockpilot/internal/agui"
	"github.com/stockpilot-agent/stockpilot/internal/graph"
	"github.com/stockpilot-agent/stockpilot/internal/storage"
	"github.com/stockpilot-agent/stockpilot/internal/workflow"
	"github.com/stockpilot-agent/stockpilot/models"
)

// drainPoll bounds each wait on the event queue so the drain loop can
// notice pipeline completion between events.
const drainPoll = 100 * time.Millisecond

// textChunkDelay paces the chunked text stream for a typing effect.
const textChunkDelay = 50 * time.Millisecond

const fallbackReply = "Something went wrong! Please try again."

// AgentService executes stock-analysis runs. The store is optional;
// recording failures are logged and never fail a request.
type AgentService struct {
	stages *workflow.Stages
	store  storage.Store
}

func NewAgentService(stages *workflow.Stages, store storage.Store) *AgentService {
	return &AgentService{stages: stages, store: store}
}

// Run streams the full event sequence for one request through send.
// The sequence always starts with RUN_STARTED and ends with
// RUN_FINISHED, whatever happens in between. Cancelling ctx stops the
// pipeline; a send error aborts the stream.
func (s *AgentService) Run(ctx context.Context, input *models.RunAgentInput, send func(agui.Event) error) error {
	if err := send(agui.NewRunStarted(input.ThreadID, input.RunID)); err != nil {
		return err
	}
	if err := send(agui.NewStateSnapshot(map[string]any{
		"available_cash":       input.State.AvailableCash,
		"investment_summary":   rawOrNull(input.State.InvestmentSummary),
		"investment_portfolio": rawOrNull(input.State.InvestmentPortfolio),
		"tool_logs":            []models.ToolLogEntry{},
	})); err != nil {
		return err
	}

	emitter := agui.NewEmitter()
	state := &workflow.AnalysisState{
		Messages:      convertMessages(input.Messages),
		Emitter:       emitter,
		AvailableCash: input.State.AvailableCash,
		PortfolioJSON: input.State.InvestmentPortfolio,
	}

	sessionID := s.recordStart(ctx, input)

	runErr := s.execute(ctx, state, emitter, send)

	// The pipeline is finished and the queue drained; reset the
	// progress log before the result events.
	if err := send(agui.NewStateDelta(agui.PatchOp{
		Op: "replace", Path: "/tool_logs", Value: []models.ToolLogEntry{},
	})); err != nil {
		return err
	}

	if err := s.sendResult(ctx, state.LastMessage(), send); err != nil {
		return err
	}

	s.recordFinish(ctx, sessionID, state.LastMessage(), runErr)

	return send(agui.NewRunFinished(input.ThreadID, input.RunID))
}

// execute runs the compiled graph in its own goroutine and forwards
// progress events until the run completes and the queue is empty.
func (s *AgentService) execute(ctx context.Context, state *workflow.AnalysisState, emitter *agui.Emitter, send func(agui.Event) error) error {
	genFunc := func(ctx context.Context) *workflow.AnalysisState { return state }

	pipeline, err := graph.NewAnalysisPipeline(ctx, s.stages, genFunc)
	if err != nil {
		log.Printf("compiling pipeline: %v", err)
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := pipeline.Invoke(ctx, lastUserPrompt(state.Messages))
		done <- err
	}()

	var runErr error
	finished := false
	for !finished || !emitter.Empty() {
		if ev, ok := emitter.Next(drainPoll); ok {
			if err := send(ev); err != nil {
				awaitPipeline(finished, done)
				return err
			}
			continue
		}
		if !finished {
			select {
			case runErr = <-done:
				finished = true
			default:
			}
		}
		if err := ctx.Err(); err != nil {
			awaitPipeline(finished, done)
			return err
		}
	}

	if runErr != nil {
		log.Printf("pipeline run: %v", runErr)
	}
	return runErr
}

// awaitPipeline blocks until the pipeline goroutine has exited. Every
// early return from the drain loop must pass through here: the caller
// reads the shared state afterwards, and the stages keep writing to it
// until the goroutine is done. The stage collaborators honor ctx, so
// after cancellation this wait terminates promptly.
func awaitPipeline(finished bool, done <-chan error) {
	if !finished {
		<-done
	}
}

// sendResult derives the closing events from the last assistant
// message: the chart tool call when one is pending, chunked text
// otherwise. An empty reply degrades to a generic failure message so
// the client never renders a blank turn.
func (s *AgentService) sendResult(ctx context.Context, last *schema.Message, send func(agui.Event) error) error {
	if last == nil || last.Role != schema.Assistant {
		return nil
	}

	if len(last.ToolCalls) > 0 {
		call := last.ToolCalls[0]
		if err := send(agui.NewToolCallStart(call.ID, call.Function.Name)); err != nil {
			return err
		}
		if err := send(agui.NewToolCallArgs(call.ID, call.Function.Arguments)); err != nil {
			return err
		}
		return send(agui.NewToolCallEnd(call.ID))
	}

	messageID := uuid.NewString()
	if err := send(agui.NewTextMessageStart(messageID)); err != nil {
		return err
	}

	if last.Content == "" {
		if err := send(agui.NewTextMessageContent(messageID, fallbackReply)); err != nil {
			return err
		}
	} else {
		for _, part := range chunkContent(last.Content) {
			if err := send(agui.NewTextMessageContent(messageID, part)); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(textChunkDelay):
			}
		}
	}

	return send(agui.NewTextMessageEnd(messageID))
}

// chunkContent splits a reply into roughly a hundred pieces so the
// client can animate it as it arrives.
func chunkContent(content string) []string {
	const nParts = 100

	runes := []rune(content)
	partLen := len(runes) / nParts
	if partLen < 1 {
		partLen = 1
	}

	var parts []string
	for i := 0; i < len(runes); i += partLen {
		end := i + partLen
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
	}

	if len(parts) > nParts {
		parts = append(parts[:nParts-1], strings.Join(parts[nParts-1:], ""))
	}
	return parts
}

// convertMessages maps the inbound wire messages onto the model's
// message type. Unknown roles pass through as user turns rather than
// dropping content.
func convertMessages(in []models.InputMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(in))
	for _, m := range in {
		msg := &schema.Message{Content: m.Content}
		switch m.Role {
		case "system":
			msg.Role = schema.System
		case "assistant":
			msg.Role = schema.Assistant
			if len(m.ToolCalls) > 0 {
				var calls []schema.ToolCall
				if err := json.Unmarshal(m.ToolCalls, &calls); err == nil {
					msg.ToolCalls = calls
				}
			}
		case "tool":
			msg.Role = schema.Tool
			msg.ToolCallID = m.ToolCallID
		default:
			msg.Role = schema.User
		}
		out = append(out, msg)
	}
	return out
}

func lastUserPrompt(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.User {
			return messages[i].Content
		}
	}
	return ""
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// recordStart opens a session row for this run. A zero return means
// recording is disabled or failed; either way the run proceeds.
func (s *AgentService) recordStart(ctx context.Context, input *models.RunAgentInput) int64 {
	if s.store == nil {
		return 0
	}

	prompt := ""
	for i := len(input.Messages) - 1; i >= 0; i-- {
		if input.Messages[i].Role == "user" {
			prompt = input.Messages[i].Content
			break
		}
	}

	rec := &models.SessionRecord{
		ThreadID: input.ThreadID,
		RunID:    input.RunID,
		Prompt:   prompt,
		Status:   storage.StatusRunning,
	}
	id, err := s.store.CreateSession(ctx, rec)
	if err != nil {
		log.Printf("create session: %v", err)
		return 0
	}

	if prompt != "" {
		if err := s.store.SaveMessage(ctx, &models.MessageRecord{
			SessionID: id,
			Role:      "user",
			Content:   prompt,
			Status:    storage.StatusDone,
		}); err != nil {
			log.Printf("record prompt: %v", err)
		}
	}
	return id
}

// recordFinish stores the final assistant turn and closes the session.
func (s *AgentService) recordFinish(ctx context.Context, sessionID int64, last *schema.Message, runErr error) {
	if s.store == nil || sessionID == 0 {
		return
	}

	status := storage.StatusDone
	if runErr != nil {
		status = storage.StatusError
	}

	if last != nil && last.Role == schema.Assistant {
		msg := &models.MessageRecord{
			SessionID: sessionID,
			Role:      "assistant",
			Content:   last.Content,
			Status:    status,
		}
		if len(last.ToolCalls) > 0 {
			if encoded, err := json.Marshal(last.ToolCalls); err == nil {
				msg.ToolCalls = string(encoded)
			}
		}
		if err := s.store.SaveMessage(ctx, msg); err != nil {
			log.Printf("record assistant message: %v", err)
		}
	}

	if err := s.store.UpdateSessionStatus(ctx, sessionID, status); err != nil {
		log.Printf("update session status: %v", err)
	}
}
