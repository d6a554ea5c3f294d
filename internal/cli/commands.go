// Package cli provides the command-line interface for StockPilot.
package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/spf13/cobra"

	"github.com/stockpilot-agent/stockpilot/internal/config"
	"github.com/stockpilot-agent/stockpilot/internal/dataflows"
	"github.com/stockpilot-agent/stockpilot/internal/marketanalysis"
	"github.com/stockpilot-agent/stockpilot/internal/server"
	"github.com/stockpilot-agent/stockpilot/internal/service"
	"github.com/stockpilot-agent/stockpilot/internal/storage"
	"github.com/stockpilot-agent/stockpilot/internal/workflow"
)

const version = "1.0.0"

// NewRootCmd creates the root command. Running without a subcommand
// starts the agent server.
func NewRootCmd() *cobra.Command {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("loading config: %v", err)
		cfg = config.DefaultConfig()
	}

	rootCmd := &cobra.Command{
		Use:   "stockpilot",
		Short: "StockPilot - portfolio simulation agent server",
		Long: `StockPilot turns natural-language investment queries into simulated
portfolio allocations with benchmark comparison, streamed to a client
as typed events. It also answers macro/news market-analysis queries.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	return rootCmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agent HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Port = port
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().Int("port", 0, "Listen port (overrides PORT)")
	return cmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [QUERY]",
		Short: "Run a market analysis from the terminal",
		Long: `Run the macro/news market-analysis workflow once and render the
report. With no arguments the query and portfolio are prompted for
interactively.
Example: stockpilot analyze "How does fed policy affect my portfolio?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return runAnalyzeCommand(cfg, query)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("StockPilot v%s\n", version)
			fmt.Println("Portfolio Simulation Agent Server")
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	}
}

// runServe wires the collaborators together and blocks until the
// process is signalled.
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llm, err := newChatModel(ctx, cfg)
	if err != nil {
		return err
	}

	prices := dataflows.NewYahooFinanceClient(cfg)
	stages := workflow.NewStages(llm, prices, cfg.BenchmarkTicker)

	var store storage.Store
	if sqliteStore, err := storage.NewSQLiteStore(cfg); err != nil {
		log.Printf("session recording disabled: %v", err)
	} else {
		store = sqliteStore
		defer sqliteStore.Close()
	}

	agent := service.NewAgentService(stages, store)
	market := marketanalysis.NewWorkflow(llm, dataflows.NewFredClient(cfg), dataflows.NewNewsClient(cfg))

	return server.New(cfg, agent, market).ListenAndServe(ctx)
}

// runAnalyzeCommand executes one market analysis interactively.
func runAnalyzeCommand(cfg *config.Config, query string) error {
	ctx := context.Background()

	if query == "" {
		var err error
		query, err = promptQuery()
		if err != nil {
			return err
		}
	}
	portfolio, err := promptPortfolio()
	if err != nil {
		return err
	}

	llm, err := newChatModel(ctx, cfg)
	if err != nil {
		return err
	}

	market := marketanalysis.NewWorkflow(llm, dataflows.NewFredClient(cfg), dataflows.NewNewsClient(cfg))

	fmt.Println(progressLine("Gathering economic and news data..."))
	report, err := market.Run(ctx, &marketanalysis.Request{Query: query, Portfolio: portfolio})
	if err != nil {
		return err
	}

	renderReport(report)
	return nil
}

func newChatModel(ctx context.Context, cfg *config.Config) (*openai.ChatModel, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	llm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return llm, nil
}
