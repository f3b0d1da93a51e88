// ProStock — AI-Powered Market Analytics Pipeline
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prostockhq/prostock/api"
	"github.com/prostockhq/prostock/internal/analysis/feargreed"
	"github.com/prostockhq/prostock/internal/config"
	"github.com/prostockhq/prostock/internal/feed"
	"github.com/prostockhq/prostock/internal/pipeline"
	"github.com/prostockhq/prostock/internal/report"
	"github.com/prostockhq/prostock/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "prostock",
	Short: "ProStock — AI-powered market analytics",
	Long: `ProStock
A market analytics pipeline covering live quotes, historical charts,
technical indicators, news sentiment, a fear/greed gauge, trend
projection, and AI-generated analyst summaries.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(feargreedCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ProStock %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Run the full analysis pipeline for an asset",
	Long:  "Resolve a ticker or asset name and print indicators, sentiment, market mood, and the executive summary.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetString("interval")
		period, _ := cmd.Flags().GetString("period")

		analyzer := pipeline.NewFromConfig(cfg)
		result := analyzer.Analyze(cmd.Context(), args[0], interval, period)

		fmt.Println(report.Snapshot(result.Info, result.Price, result.ChangePct, result.FearGreed))
		fmt.Println()
		fmt.Println(result.Report)
		if result.Forecast != nil {
			fmt.Printf("\n  30-bar projection: %s (slope %.4f)\n",
				utils.FormatPrice(result.Forecast.Terminal), result.Forecast.Slope)
		}
		if result.AISummary != "" {
			fmt.Printf("\n%s\n", result.AISummary)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("interval", pipeline.DefaultInterval, "bar interval (1m, 5m, 15m, 1h, 1d, 1wk)")
	analyzeCmd.Flags().String("period", pipeline.DefaultPeriod, "lookback period (1d, 5d, 1mo, 6mo, 1y, max)")
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [query]",
	Short: "Show a live quote for an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer := pipeline.NewFromConfig(cfg)
		quote := analyzer.Quote(cmd.Context(), args[0])

		fmt.Printf("%s (%s)\n", quote.Name, quote.Ticker)
		fmt.Printf("  Price:  %s (%s)\n", utils.FormatPrice(quote.Price), utils.FormatPct(quote.ChangePct))
		return nil
	},
}

// --- Trending Command ---

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show live quotes for the trending boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer := pipeline.NewFromConfig(cfg)
		boards := analyzer.TrendingBoards(cmd.Context())

		for _, board := range boards {
			fmt.Printf("\n  %s\n", board.Name)
			fmt.Println("  ───────────────────────────────────")
			for _, q := range board.Quotes {
				fmt.Printf("  %-12s %14s  %s\n", q.Ticker, utils.FormatPrice(q.Price), utils.FormatPct(q.ChangePct))
			}
		}
		return nil
	},
}

// --- Feed Command ---

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show breaking-news headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher := feed.New(feed.WithSources(cfg.Feed.Sources))
		items := fetcher.FetchAll(cmd.Context())
		if len(items) == 0 {
			fmt.Println("No headlines available.")
			return nil
		}
		for _, item := range items {
			fmt.Printf("  • %s\n    %s\n", item.Title, item.Link)
		}
		return nil
	},
}

// --- Fear/Greed Command ---

var feargreedCmd = &cobra.Command{
	Use:   "feargreed",
	Short: "Show the fear/greed market mood gauge",
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer := pipeline.NewFromConfig(cfg)
		fg := feargreed.NewWithTickers(analyzer.Market(), cfg.Market.VolatilityIndex, cfg.Market.BroadIndex)
		result := fg.Compute(cmd.Context())

		fmt.Printf("Fear & Greed Index: %d (%s)\n", result.Score, result.Label)
		return nil
	},
}

// --- Chat Command ---

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the AI analyst a question about an asset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker, _ := cmd.Flags().GetString("ticker")
		question := args[0]
		if ticker == "" {
			ticker = question
		}

		analyzer := pipeline.NewFromConfig(cfg)
		answer := analyzer.SmartResponse(cmd.Context(), question, ticker)
		fmt.Println(answer)
		return nil
	},
}

func init() {
	chatCmd.Flags().String("ticker", "", "asset the question is about (defaults to resolving the question itself)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return fmt.Errorf("failed to build server: %w", err)
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting ProStock API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  ProStock — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Models:  %v\n", cfg.LLM.Models)
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Feeds:       %d sources\n", len(cfg.Feed.Sources))
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
