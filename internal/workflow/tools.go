package workflow

import (
	"github.com/cloudwego/eino/schema"

	"github.com/stockpilot-agent/stockpilot/models"
)

// Tool names exchanged with the model and the client. RenderToolName is
// never executed server-side; the client renders the chart payload.
const (
	ExtractToolName  = "extract_relevant_data_from_user_prompt"
	InsightsToolName = "generate_insights"
	RenderToolName   = "render_standard_charts_and_table"
)

// ExtractToolInfo describes the parameter-extraction tool offered to
// the model during the first pipeline stage.
func ExtractToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ExtractToolName,
		Desc: "Gets the data like ticker symbols, amount of dollars to be invested, interval of investment.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"ticker_symbols": {
				Type:     schema.Array,
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
				Desc:     "A list of stock ticker symbols, e.g. ['AAPL', 'GOOGL'].",
				Required: true,
			},
			"investment_date": {
				Type:     schema.String,
				Desc:     "The date of investment, e.g. '2023-01-01'.",
				Required: true,
			},
			"amount_of_dollars_to_be_invested": {
				Type:     schema.Array,
				ElemInfo: &schema.ParameterInfo{Type: schema.Number},
				Desc:     "The amount of dollars to be invested, e.g. [10000, 20000, 30000].",
				Required: true,
			},
			"interval_of_investment": {
				Type: schema.String,
				Desc: "The interval of investment, e.g. '1d', '5d', '1mo', '3mo', '6mo', '1y'. If the user did not specify the interval, assume it as 'single_shot'.",
				Enum: models.ValidIntervals,
			},
			"to_be_added_in_portfolio": {
				Type:     schema.Boolean,
				Desc:     "True if the user wants to add it to the current portfolio; false if they want to add it to the sandbox portfolio.",
				Required: true,
			},
		}),
	}
}

// InsightsToolInfo describes the bull/bear insight tool offered to the
// model during the final pipeline stage.
func InsightsToolInfo() *schema.ToolInfo {
	insight := &schema.ParameterInfo{
		Type: schema.Object,
		SubParams: map[string]*schema.ParameterInfo{
			"title":       {Type: schema.String, Desc: "Short title for the insight.", Required: true},
			"description": {Type: schema.String, Desc: "Detailed description of the insight.", Required: true},
			"emoji":       {Type: schema.String, Desc: "Emoji representing the insight.", Required: true},
		},
	}

	return &schema.ToolInfo{
		Name: InsightsToolName,
		Desc: "Generate positive (bull) and negative (bear) insights for a stock or portfolio.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"bullInsights": {
				Type:     schema.Array,
				ElemInfo: insight,
				Desc:     "A list of positive insights (bull case) for the stock or portfolio.",
				Required: true,
			},
			"bearInsights": {
				Type:     schema.Array,
				ElemInfo: insight,
				Desc:     "A list of negative insights (bear case) for the stock or portfolio.",
				Required: true,
			},
		}),
	}
}
