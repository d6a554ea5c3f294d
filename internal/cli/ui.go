package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockpilot-agent/stockpilot/internal/config"
	"github.com/stockpilot-agent/stockpilot/internal/marketanalysis"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	reportStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(1, 2).
			Width(80)

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func progressLine(message string) string {
	return progressStyle.Render("➤ " + message)
}

func renderReport(report *marketanalysis.Report) {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Executive Summary") + "\n")
	b.WriteString(report.ExecutiveSummary + "\n\n")

	b.WriteString(sectionStyle.Render("Economic Impact") + "\n")
	b.WriteString(report.EconomicImpact + "\n\n")

	b.WriteString(sectionStyle.Render("Market Sentiment") + "\n")
	b.WriteString(report.MarketSentiment + "\n\n")

	if len(report.Articles) > 0 {
		b.WriteString(sectionStyle.Render("Headlines") + "\n")
		for _, article := range report.Articles {
			b.WriteString(fmt.Sprintf("- %s (%s)\n", article.Title, article.Source))
		}
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("Data quality: " + report.DataQuality))

	fmt.Println(titleStyle.Render("Market Analysis"))
	fmt.Println(reportStyle.Render(b.String()))
}

func showConfig(cfg *config.Config) {
	fmt.Println(titleStyle.Render("StockPilot Configuration"))
	fmt.Printf("  Port:             %d\n", cfg.Port)
	fmt.Printf("  Model:            %s\n", cfg.Model)
	fmt.Printf("  Benchmark ticker: %s\n", cfg.BenchmarkTicker)
	fmt.Printf("  Data dir:         %s\n", cfg.DataDir)
	fmt.Printf("  Cache enabled:    %t\n", cfg.CacheEnabled)
	fmt.Printf("  OpenAI key set:   %t\n", cfg.OpenAIAPIKey != "")
	fmt.Printf("  FRED key set:     %t\n", cfg.FredAPIKey != "")
}
