package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

func promptQuery() (string, error) {
	prompt := &survey.Input{
		Message: "What do you want to analyze?",
		Help:    "e.g. 'How does fed policy affect tech stocks?'",
	}

	var query string
	err := survey.AskOne(prompt, &query, survey.WithValidator(func(val interface{}) error {
		s, ok := val.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("query cannot be empty")
		}
		return nil
	}))
	return strings.TrimSpace(query), err
}

func promptPortfolio() ([]string, error) {
	prompt := &survey.Input{
		Message: "Portfolio tickers (comma separated, empty for none):",
		Help:    "e.g. 'AAPL, MSFT, SPY'",
	}

	var raw string
	if err := survey.AskOne(prompt, &raw); err != nil {
		return nil, err
	}

	var tickers []string
	for _, part := range strings.Split(raw, ",") {
		if ticker := strings.ToUpper(strings.TrimSpace(part)); ticker != "" {
			tickers = append(tickers, ticker)
		}
	}
	return tickers, nil
}
