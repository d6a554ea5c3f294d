// Package simulation implements the cash-allocation engine: given a
// historical price series and per-ticker dollar amounts it simulates
// share purchases under a single-shot or periodic strategy, replicates
// the strategy against a benchmark series, and derives the summary the
// client renders.
package simulation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockpilot-agent/stockpilot/internal/dataflows"
	"github.com/stockpilot-agent/stockpilot/models"
)

// PortfolioResult is the mutable outcome of one allocation run.
// Invested amounts are accumulated at the point of purchase; the log
// is a human-readable audit trail and never feeds arithmetic.
type PortfolioResult struct {
	Holdings       map[string]int64
	Cash           decimal.Decimal
	Invested       map[string]decimal.Decimal
	TotalInvested  decimal.Decimal
	Log            []string
	AddFundsNeeded bool
	Shortfalls     []models.Shortfall

	// Snapshots holds the share counts after each date's purchases,
	// one entry per series date, for the performance chart.
	Snapshots []map[string]int64
}

// SimulatePortfolio allocates startingCash across tickers following
// the requested strategy. Share counts are whole (floor division) and
// cash never goes negative. Dates or tickers without a usable price
// are skipped, never divided by.
func SimulatePortfolio(series *dataflows.PriceSeries, tickers []string, amounts []decimal.Decimal, singleShot bool, startingCash decimal.Decimal) *PortfolioResult {
	res := &PortfolioResult{
		Holdings: make(map[string]int64, len(tickers)),
		Cash:     startingCash,
		Invested: make(map[string]decimal.Decimal, len(tickers)),
	}
	for _, t := range tickers {
		res.Holdings[t] = 0
		res.Invested[t] = decimal.Zero
	}

	if series.Len() == 0 {
		return res
	}

	if singleShot {
		res.runSingleShot(series, tickers, amounts)
	} else {
		res.runPeriodic(series, tickers)
	}

	for _, t := range tickers {
		res.TotalInvested = res.TotalInvested.Add(res.Invested[t])
	}
	return res
}

// runSingleShot executes exactly one purchase round at the first date
// in the series. A ticker with no price there gets no later chance.
func (res *PortfolioResult) runSingleShot(series *dataflows.PriceSeries, tickers []string, amounts []decimal.Decimal) {
	firstDate := series.FirstDate()

	for idx, ticker := range tickers {
		price, ok := series.Close(ticker, 0)
		if !ok || !price.IsPositive() {
			res.Log = append(res.Log, fmt.Sprintf("%s: No price data for %s, could not invest.", firstDate, ticker))
			res.markShortfall(firstDate, ticker, nil, amounts[idx])
			continue
		}

		allocated := amounts[idx]
		if res.Cash.GreaterThanOrEqual(allocated) && allocated.GreaterThanOrEqual(price) {
			shares := allocated.Div(price).Floor().IntPart()
			if shares > 0 {
				cost := price.Mul(decimal.NewFromInt(shares))
				res.buy(ticker, firstDate, shares, price, cost)
			} else {
				res.Log = append(res.Log, fmt.Sprintf("%s: Not enough allocated cash to buy %s at $%s. Allocated: $%s",
					firstDate, ticker, price.StringFixed(2), allocated.StringFixed(2)))
				res.markShortfall(firstDate, ticker, &price, allocated)
			}
		} else {
			res.Log = append(res.Log, fmt.Sprintf("%s: Not enough total cash to buy %s at $%s. Allocated: $%s, Available: $%s",
				firstDate, ticker, price.StringFixed(2), allocated.StringFixed(2), res.Cash.StringFixed(2)))
			res.markShortfall(firstDate, ticker, &price, res.Cash)
		}
	}

	// Holdings are constant after the only purchase round.
	final := copyHoldings(res.Holdings)
	res.Snapshots = make([]map[string]int64, series.Len())
	for i := range res.Snapshots {
		res.Snapshots[i] = final
	}
}

// runPeriodic dollar-cost-averages across every date in the series.
// Each purchase greedily spends the entire remaining cash pool on the
// current ticker, in ticker order per date; a too-expensive price is
// recorded as a shortfall and iteration continues.
func (res *PortfolioResult) runPeriodic(series *dataflows.PriceSeries, tickers []string) {
	res.Snapshots = make([]map[string]int64, series.Len())

	for i, date := range series.Dates {
		for _, ticker := range tickers {
			price, ok := series.Close(ticker, i)
			if !ok || !price.IsPositive() {
				continue
			}

			if res.Cash.GreaterThanOrEqual(price) {
				shares := res.Cash.Div(price).Floor().IntPart()
				if shares > 0 {
					cost := price.Mul(decimal.NewFromInt(shares))
					res.buy(ticker, date, shares, price, cost)
				}
			} else {
				res.Log = append(res.Log, fmt.Sprintf("%s: Not enough cash to buy %s at $%s. Available: $%s. Please add more funds.",
					date, ticker, price.StringFixed(2), res.Cash.StringFixed(2)))
				res.markShortfall(date, ticker, &price, res.Cash)
			}
		}
		res.Snapshots[i] = copyHoldings(res.Holdings)
	}
}

func (res *PortfolioResult) buy(ticker, date string, shares int64, price, cost decimal.Decimal) {
	res.Holdings[ticker] += shares
	res.Cash = res.Cash.Sub(cost)
	res.Invested[ticker] = res.Invested[ticker].Add(cost)
	res.Log = append(res.Log, fmt.Sprintf("%s: Bought %d shares of %s at $%s (cost: $%s)",
		date, shares, ticker, price.StringFixed(2), cost.StringFixed(2)))
}

func (res *PortfolioResult) markShortfall(date, ticker string, price *decimal.Decimal, amount decimal.Decimal) {
	res.AddFundsNeeded = true
	var p *float64
	if price != nil {
		v := price.InexactFloat64()
		p = &v
	}
	res.Shortfalls = append(res.Shortfalls, models.Shortfall{
		Date:   date,
		Ticker: ticker,
		Price:  p,
		Amount: amount.InexactFloat64(),
	})
}

// BenchmarkResult is the outcome of replaying the portfolio's strategy
// against the benchmark series with the portfolio's actually-invested
// capital.
type BenchmarkResult struct {
	Shares   int64
	Cash     decimal.Decimal
	Invested decimal.Decimal
	Log      []string
}

// SimulateBenchmark invests totalInvested into the benchmark series:
// one lump purchase at the first date for single-shot runs, or equal
// per-date portions for periodic runs.
func SimulateBenchmark(bench *dataflows.Series, ticker string, totalInvested decimal.Decimal, singleShot bool) *BenchmarkResult {
	res := &BenchmarkResult{Cash: totalInvested}
	if len(bench.Dates) == 0 {
		return res
	}

	if singleShot {
		price, ok := bench.At(0)
		if !ok || !price.IsPositive() {
			return res
		}
		shares := res.Cash.Div(price).Floor().IntPart()
		cost := price.Mul(decimal.NewFromInt(shares))
		res.Shares = shares
		res.Invested = cost
		res.Cash = res.Cash.Sub(cost)
		res.Log = append(res.Log, fmt.Sprintf("%s: Bought %d shares of %s at $%s (cost: $%s)",
			bench.Dates[0], shares, ticker, price.StringFixed(2), cost.StringFixed(2)))
		return res
	}

	portion := totalInvested.Div(decimal.NewFromInt(int64(len(bench.Dates))))
	for i, date := range bench.Dates {
		price, ok := bench.At(i)
		if !ok || !price.IsPositive() {
			continue
		}
		shares := portion.Div(price).Floor().IntPart()
		if shares <= 0 {
			continue
		}
		cost := price.Mul(decimal.NewFromInt(shares))
		res.Shares += shares
		res.Cash = res.Cash.Sub(cost)
		res.Invested = res.Invested.Add(cost)
		res.Log = append(res.Log, fmt.Sprintf("%s: Bought %d shares of %s at $%s (cost: $%s)",
			date, shares, ticker, price.StringFixed(2), cost.StringFixed(2)))
	}
	return res
}

// BuildSummary derives the immutable investment summary and the
// human-readable narrative from a finished simulation. All percent
// computations short-circuit to 0 when the denominator is 0.
func BuildSummary(series *dataflows.PriceSeries, tickers []string, port *PortfolioResult, bench *BenchmarkResult, benchSeries *dataflows.Series) (*models.InvestmentSummary, string) {
	summary := &models.InvestmentSummary{
		Holdings:          copyHoldings(port.Holdings),
		FinalPrices:       make(map[string]*float64, len(tickers)),
		Cash:              port.Cash.InexactFloat64(),
		Returns:           make(map[string]float64, len(tickers)),
		InvestmentLog:     port.Log,
		AddFundsNeeded:    port.AddFundsNeeded,
		AddFundsDates:     port.Shortfalls,
		InvestedPerStock:  make(map[string]float64, len(tickers)),
		PercentAllocation: make(map[string]float64, len(tickers)),
		PercentReturn:     make(map[string]float64, len(tickers)),
	}

	last := series.Len() - 1
	totalValue := port.Cash

	for _, ticker := range tickers {
		invested := port.Invested[ticker]
		summary.InvestedPerStock[ticker] = invested.InexactFloat64()

		holdingValue := decimal.Zero
		if finalPrice, ok := series.Close(ticker, last); ok {
			v := finalPrice.InexactFloat64()
			summary.FinalPrices[ticker] = &v
			holdingValue = finalPrice.Mul(decimal.NewFromInt(port.Holdings[ticker]))
		}
		totalValue = totalValue.Add(holdingValue)

		ret := holdingValue.Sub(invested)
		summary.Returns[ticker] = ret.InexactFloat64()

		if port.TotalInvested.IsPositive() {
			summary.PercentAllocation[ticker] = invested.Div(port.TotalInvested).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		if invested.IsPositive() {
			summary.PercentReturn[ticker] = ret.Div(invested).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
	}
	summary.TotalValue = totalValue.InexactFloat64()

	summary.PerformanceData = performanceSeries(series, tickers, port, bench, benchSeries)

	return summary, narrative(tickers, summary, series.Len() == 0)
}

// performanceSeries pairs the invested-asset value of the portfolio
// with the benchmark value for every series date. Portfolio cash is
// deliberately excluded; the benchmark includes its residual cash.
func performanceSeries(series *dataflows.PriceSeries, tickers []string, port *PortfolioResult, bench *BenchmarkResult, benchSeries *dataflows.Series) []models.PerformancePoint {
	points := make([]models.PerformancePoint, 0, series.Len())

	for i, date := range series.Dates {
		value := decimal.Zero
		for _, ticker := range tickers {
			price, ok := series.Close(ticker, i)
			if !ok {
				continue
			}
			held := port.Holdings[ticker]
			if i < len(port.Snapshots) && port.Snapshots[i] != nil {
				held = port.Snapshots[i][ticker]
			}
			value = value.Add(price.Mul(decimal.NewFromInt(held)))
		}
		portValue := value.InexactFloat64()

		var benchValue *float64
		if price, ok := benchSeries.At(i); ok {
			v := price.Mul(decimal.NewFromInt(bench.Shares)).Add(bench.Cash).InexactFloat64()
			benchValue = &v
		}

		points = append(points, models.PerformancePoint{
			Date:      date,
			Portfolio: &portValue,
			Benchmark: benchValue,
		})
	}
	return points
}

// narrative composes the user-facing summary text: shortfall details
// when purchases failed, then final value and per-ticker returns. A run
// with no price data at all gets its own message; an untouched wallet
// is not a success.
func narrative(tickers []string, summary *models.InvestmentSummary, noData bool) string {
	var b strings.Builder

	switch {
	case noData:
		b.WriteString("No price data was available for the requested period, so no investments could be made.\n")
	case summary.AddFundsNeeded:
		b.WriteString("Some investments could not be made due to insufficient funds. Please add more funds to your wallet.\n")
		for _, s := range summary.AddFundsDates {
			price := "N/A"
			if s.Price != nil {
				price = fmt.Sprintf("$%.2f", *s.Price)
			}
			b.WriteString(fmt.Sprintf("On %s, not enough cash for %s: price %s, available $%.2f\n", s.Date, s.Ticker, price, s.Amount))
		}
	default:
		b.WriteString("All investments were made successfully.\n")
	}

	b.WriteString(fmt.Sprintf("\nFinal portfolio value: $%.2f\n", summary.TotalValue))
	b.WriteString("Returns by ticker (percent and $):\n")
	for _, ticker := range tickers {
		b.WriteString(fmt.Sprintf("%s: %.2f%% ($%.2f)\n", ticker, summary.PercentReturn[ticker], summary.Returns[ticker]))
	}
	return b.String()
}

func copyHoldings(holdings map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(holdings))
	for k, v := range holdings {
		out[k] = v
	}
	return out
}
