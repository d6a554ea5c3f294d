// Package graph wires the analysis stages into an eino compose graph.
// The pipeline is straight-line: each stage hands off to the next via
// the state's Goto field, and any stage can route to END when the
// conversation degenerated to plain text.
package graph

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/stockpilot-agent/stockpilot/consts"
	"github.com/stockpilot-agent/stockpilot/internal/workflow"
)

func stageHandOff(ctx context.Context, input string) (next string, err error) {
	_ = compose.ProcessState[*workflow.AnalysisState](ctx, func(_ context.Context, state *workflow.AnalysisState) error {
		next = state.Goto
		return nil
	})
	return next, nil
}

type stageFunc func(context.Context, *workflow.AnalysisState) error

// stageNode wraps a stage function into a graph lambda. After the
// stage runs, the router target is the following node, or END when no
// tool call is pending so the remaining stages are skipped.
func stageNode(fn stageFunc, next string) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input string) (string, error) {
		err := compose.ProcessState[*workflow.AnalysisState](ctx, func(ctx context.Context, state *workflow.AnalysisState) error {
			if err := fn(ctx, state); err != nil {
				return err
			}
			state.Goto = next
			if state.PendingToolCall() == nil {
				state.Goto = compose.END
			}
			return nil
		})
		return input, err
	})
}

// NewAnalysisPipeline compiles the four-stage graph around a
// per-request state generator. The caller invokes the result once and
// reads the final state afterwards.
func NewAnalysisPipeline(ctx context.Context, stages *workflow.Stages, genFunc compose.GenLocalState[*workflow.AnalysisState]) (compose.Runnable[string, string], error) {
	g := compose.NewGraph[string, string](
		compose.WithGenLocalState(genFunc),
	)

	outMap := map[string]bool{
		consts.PriceFetcher:   true,
		consts.CashAllocator:  true,
		consts.InsightsWriter: true,
		compose.END:           true,
	}

	_ = g.AddLambdaNode(consts.Extractor, stageNode(stages.Extract, consts.PriceFetcher), compose.WithNodeName(consts.Extractor))
	_ = g.AddLambdaNode(consts.PriceFetcher, stageNode(stages.FetchPrices, consts.CashAllocator), compose.WithNodeName(consts.PriceFetcher))
	_ = g.AddLambdaNode(consts.CashAllocator, stageNode(stages.Allocate, consts.InsightsWriter), compose.WithNodeName(consts.CashAllocator))
	_ = g.AddLambdaNode(consts.InsightsWriter, stageNode(stages.GatherInsights, compose.END), compose.WithNodeName(consts.InsightsWriter))

	_ = g.AddBranch(consts.Extractor, compose.NewGraphBranch(stageHandOff, outMap))
	_ = g.AddBranch(consts.PriceFetcher, compose.NewGraphBranch(stageHandOff, outMap))
	_ = g.AddBranch(consts.CashAllocator, compose.NewGraphBranch(stageHandOff, outMap))

	_ = g.AddEdge(compose.START, consts.Extractor)
	_ = g.AddEdge(consts.InsightsWriter, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName("StockPilot-Analysis"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
}
