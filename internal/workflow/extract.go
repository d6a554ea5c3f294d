package workflow

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/stockpilot-agent/stockpilot/models"
)

const extractionRejectedReply = "I could not determine valid investment parameters from your request. Please specify the tickers, the amount for each and the investment date."

// Extract asks the model to turn the conversation into a structured
// investment request via the extraction tool. The stage always leaves
// an assistant message on top of the conversation: a single tool call
// when extraction succeeded, plain text otherwise.
func (s *Stages) Extract(ctx context.Context, st *AnalysisState) error {
	st.StartToolLog("Analyzing user query")
	defer st.CompleteToolLog()

	s.preparePrompt(st)

	llm, err := s.llm.WithTools([]*schema.ToolInfo{ExtractToolInfo()})
	if err != nil {
		log.Printf("binding extraction tool: %v", err)
		st.Messages = append(st.Messages, schema.AssistantMessage("", nil))
		return nil
	}

	resp, err := llm.Generate(ctx, st.Messages)
	if err != nil {
		// Degrade to an empty assistant reply so the conversation still
		// ends with an assistant turn and the later stages short-circuit.
		log.Printf("extraction call failed: %v", err)
		st.Messages = append(st.Messages, schema.AssistantMessage("", nil))
		return nil
	}

	if len(resp.ToolCalls) == 0 {
		st.Messages = append(st.Messages, resp)
		return nil
	}

	call := resp.ToolCalls[0]
	req, err := parseRequest(call.Function.Arguments)
	if err != nil {
		log.Printf("rejecting extraction payload: %v", err)
		st.Messages = append(st.Messages, schema.AssistantMessage(extractionRejectedReply, nil))
		return nil
	}

	st.Request = req
	st.Messages = append(st.Messages, &schema.Message{
		Role:      schema.Assistant,
		ToolCalls: []schema.ToolCall{call},
	})
	return nil
}

// preparePrompt rewrites the leading system message with the canonical
// prompt, substituting the caller's portfolio snapshot.
func (s *Stages) preparePrompt(st *AnalysisState) {
	portfolio := "[]"
	if len(st.PortfolioJSON) > 0 {
		portfolio = string(st.PortfolioJSON)
	}
	content := strings.Replace(systemPrompt, portfolioPlaceholder, portfolio, 1)

	if len(st.Messages) > 0 && st.Messages[0].Role == schema.System {
		st.Messages[0].Content = content
		return
	}
	st.Messages = append([]*schema.Message{schema.SystemMessage(content)}, st.Messages...)
}

// parseRequest decodes and validates the extraction tool arguments.
// Mismatched or missing fields reject the whole payload; amounts are
// never guessed or truncated to fit.
func parseRequest(arguments string) (*models.InvestmentRequest, error) {
	var req models.InvestmentRequest
	if err := json.Unmarshal([]byte(arguments), &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
