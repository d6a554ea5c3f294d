// Package consts names the pipeline graph nodes.
package consts

const (
	// Stock-analysis pipeline stages, in execution order.
	Extractor      = "extractor"
	PriceFetcher   = "price_fetcher"
	CashAllocator  = "cash_allocator"
	InsightsWriter = "insights_writer"
)
