package marketanalysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stockpilot-agent/stockpilot/internal/dataflows"
)

type fakeEconomic struct {
	series map[string]*dataflows.EconomicSeries
	err    error
}

func (f *fakeEconomic) GetSeries(_ context.Context, seriesID string, _ int) (*dataflows.EconomicSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	if series, ok := f.series[seriesID]; ok {
		return series, nil
	}
	return nil, errors.New("unknown series")
}

type fakeNews struct {
	articles []*dataflows.NewsArticle
	err      error
	query    string
}

func (f *fakeNews) Search(_ context.Context, query string, _ int) ([]*dataflows.NewsArticle, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

func observations(value float64) *dataflows.EconomicSeries {
	return &dataflows.EconomicSeries{
		Observations: []dataflows.EconomicObservation{{Date: "2025-08-01", Value: value}},
	}
}

func TestRunRequiresQuery(t *testing.T) {
	w := NewWorkflow(nil, &fakeEconomic{}, &fakeNews{})
	if _, err := w.Run(context.Background(), &Request{Query: "  "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestRunBuildsReportFromGatheredData(t *testing.T) {
	fred := &fakeEconomic{series: map[string]*dataflows.EconomicSeries{
		"DFF":    observations(5.33),
		"UNRATE": observations(4.1),
	}}
	news := &fakeNews{articles: []*dataflows.NewsArticle{
		{Title: "Fed holds", Source: "Example Times"},
		{Title: "Rates outlook", Source: "Example Times"},
	}}
	w := NewWorkflow(nil, fred, news)

	report, err := w.Run(context.Background(), &Request{
		Query:     "How does fed policy affect my holdings?",
		Portfolio: []string{"AAPL", "MSFT"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Plan.AnalysisType != TypeMonetaryPolicy {
		t.Errorf("analysis type = %s", report.Plan.AnalysisType)
	}
	// Failed indicators leave gaps without failing the run.
	if len(report.Indicators) != 2 {
		t.Errorf("indicators = %d, want 2", len(report.Indicators))
	}
	if !strings.Contains(report.EconomicImpact, "DFF at 5.33") {
		t.Errorf("economic impact = %q", report.EconomicImpact)
	}
	if !strings.Contains(report.MarketSentiment, "2 relevant articles") {
		t.Errorf("market sentiment = %q", report.MarketSentiment)
	}
	if !strings.Contains(report.PortfolioImplications, "2 holdings") {
		t.Errorf("portfolio implications = %q", report.PortfolioImplications)
	}
	if report.DataQuality != "economic data available, 2 news sources" {
		t.Errorf("data quality = %q", report.DataQuality)
	}
	// Keywords drive the news search instead of the raw query.
	if news.query != "fed" {
		t.Errorf("news query = %q", news.query)
	}
	if report.ExecutiveSummary == "" {
		t.Error("summary should have a fallback without a model")
	}
}

func TestRunDegradesWhenSourcesFail(t *testing.T) {
	w := NewWorkflow(nil, &fakeEconomic{err: errors.New("fred down")}, &fakeNews{err: errors.New("news down")})

	report, err := w.Run(context.Background(), &Request{Query: "general market outlook"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Indicators) != 0 || len(report.Articles) != 0 {
		t.Errorf("expected empty data, got %d indicators, %d articles", len(report.Indicators), len(report.Articles))
	}
	if report.DataQuality != "limited economic data, limited news coverage" {
		t.Errorf("data quality = %q", report.DataQuality)
	}
	if report.EconomicImpact != "No economic data available for analysis" {
		t.Errorf("economic impact = %q", report.EconomicImpact)
	}
}

func TestAnalysisTypeKeywordRouting(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"what will the fed do", TypeMonetaryPolicy},
		{"is inflation cooling", TypeInflation},
		{"tech earnings preview", TypeEarnings},
		{"energy sector rotation", TypeSector},
		{"how are markets doing", TypeGeneral},
	}
	for _, tc := range tests {
		if got := analysisType(tc.query); got != tc.want {
			t.Errorf("analysisType(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestExtractKeywordsFallsBack(t *testing.T) {
	got := extractKeywords("tell me about Fed rates and inflation")
	want := map[string]bool{"inflation": true, "rates": true, "fed": true}
	if len(got) != 3 {
		t.Fatalf("keywords = %v", got)
	}
	for _, kw := range got {
		if !want[kw] {
			t.Errorf("unexpected keyword %q", kw)
		}
	}

	if got := extractKeywords("hello"); len(got) != 2 || got[0] != "market" {
		t.Errorf("fallback keywords = %v", got)
	}
}

func TestBuildPlanCapsFocusTickers(t *testing.T) {
	plan := buildPlan(&Request{
		Query:     "outlook",
		Portfolio: []string{"A", "B", "C", "D", "E", "F", "G"},
	})
	if len(plan.FocusTickers) != 5 {
		t.Errorf("focus tickers = %d, want 5", len(plan.FocusTickers))
	}
	if len(plan.EconomicIndicators) == 0 {
		t.Error("plan should carry default indicators")
	}
}
