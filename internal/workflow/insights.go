package workflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/cloudwego/eino/schema"

	"github.com/stockpilot-agent/stockpilot/models"
)

// GatherInsights asks the model for bull/bear commentary on the
// extracted tickers and merges the result into the pending chart tool
// call so the client receives one consolidated payload. A failed or
// text-only response leaves the chart payload untouched.
func (s *Stages) GatherInsights(ctx context.Context, st *AnalysisState) error {
	call := st.PendingToolCall()
	if call == nil || st.Request == nil {
		return nil
	}

	st.StartToolLog("Extracting Key insights")
	defer st.CompleteToolLog()

	llm, err := s.llm.WithTools([]*schema.ToolInfo{InsightsToolInfo()})
	if err != nil {
		log.Printf("binding insights tool: %v", err)
		st.Insights = &models.Insights{}
		return nil
	}

	tickers, err := json.Marshal(st.Request.Tickers)
	if err != nil {
		st.Insights = &models.Insights{}
		return nil
	}

	resp, err := llm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(insightsPrompt),
		schema.UserMessage(string(tickers)),
	})
	if err != nil {
		log.Printf("insights call failed: %v", err)
		st.Insights = &models.Insights{}
		return nil
	}

	if len(resp.ToolCalls) == 0 {
		st.Insights = &models.Insights{}
		return nil
	}

	mergeInsights(call, resp.ToolCalls[0].Function.Arguments)
	return nil
}

// mergeInsights decodes the pending tool call's arguments, adds the
// insights payload under its own key and re-encodes in place.
func mergeInsights(call *schema.ToolCall, insightsArgs string) {
	var args map[string]json.RawMessage
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		log.Printf("merging insights: %v", err)
		return
	}
	args["insights"] = json.RawMessage(insightsArgs)

	merged, err := json.Marshal(args)
	if err != nil {
		log.Printf("merging insights: %v", err)
		return
	}
	call.Function.Arguments = string(merged)
}
