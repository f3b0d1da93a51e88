// Package pipeline orchestrates the full analysis flow: resolve a query to
// an instrument, fetch market data, compute indicators, score news, blend
// market mood, project a trend, and compose the report. Every stage
// degrades independently so one upstream failure never takes down the rest
// of the result.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prostockhq/prostock/internal/analysis/feargreed"
	"github.com/prostockhq/prostock/internal/analysis/forecast"
	"github.com/prostockhq/prostock/internal/analysis/sentiment"
	"github.com/prostockhq/prostock/internal/analysis/technical"
	"github.com/prostockhq/prostock/internal/config"
	"github.com/prostockhq/prostock/internal/llm"
	"github.com/prostockhq/prostock/internal/marketdata"
	"github.com/prostockhq/prostock/internal/report"
	"github.com/prostockhq/prostock/internal/resolver"
	"github.com/prostockhq/prostock/pkg/models"
)

// Default chart window used when the caller does not specify one.
const (
	DefaultInterval = "1d"
	DefaultPeriod   = "6mo"
)

// Analysis is the full result of one pipeline run.
type Analysis struct {
	Instrument models.Instrument      `json:"instrument"`
	Info       *models.InstrumentInfo `json:"info"`
	Price      float64                `json:"price"`
	ChangePct  float64                `json:"change_pct"`
	Series     []models.PriceBar      `json:"series"`
	Indicators models.IndicatorSet    `json:"indicators"`
	Sentiment  models.SentimentResult `json:"sentiment"`
	FearGreed  models.FearGreedResult `json:"fear_greed"`
	Forecast   *models.ForecastResult `json:"forecast,omitempty"`
	Report     string                 `json:"report"`
	AISummary  string                 `json:"ai_summary,omitempty"`
	Generated  time.Time              `json:"generated"`
}

// Analyzer wires the analytics stages together.
type Analyzer struct {
	resolver  *resolver.Resolver
	market    *marketdata.Service
	feargreed *feargreed.Proxy
	completer *llm.Completer
	now       func() time.Time
}

// New creates an Analyzer. The completer may be nil; AI summaries then fall
// back to the deterministic report only.
func New(res *resolver.Resolver, market *marketdata.Service, fg *feargreed.Proxy, completer *llm.Completer) *Analyzer {
	if res == nil {
		res = resolver.New(nil)
	}
	return &Analyzer{
		resolver:  res,
		market:    market,
		feargreed: fg,
		completer: completer,
		now:       time.Now,
	}
}

// NewFromConfig assembles the full pipeline from configuration.
func NewFromConfig(cfg *config.Config) *Analyzer {
	market := marketdata.NewService(marketdata.NewYahoo(), marketdata.WithTTLs(
		time.Duration(cfg.Cache.QuoteTTL)*time.Second,
		time.Duration(cfg.Cache.HistoryTTL)*time.Second,
		time.Duration(cfg.Cache.InfoTTL)*time.Second,
		time.Duration(cfg.Cache.NewsTTL)*time.Second,
	))
	fg := feargreed.NewWithTickers(market, cfg.Market.VolatilityIndex, cfg.Market.BroadIndex)
	return New(resolver.New(nil), market, fg, NewCompleter(cfg))
}

// NewCompleter builds the completion router from configured API keys.
// Returns a completer with no providers when no key is set.
func NewCompleter(cfg *config.Config) *llm.Completer {
	var providers []llm.Provider
	if p, err := llm.NewGeminiProvider(cfg.LLM.GeminiKey); err == nil {
		providers = append(providers, p)
	}
	if p, err := llm.NewOpenAIProvider(cfg.LLM.OpenAIKey); err == nil {
		providers = append(providers, p)
	}
	return llm.NewCompleter(providers,
		llm.WithModels(cfg.LLM.Models),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
	)
}

// Market exposes the underlying market data service.
func (a *Analyzer) Market() *marketdata.Service { return a.market }

// Resolve maps a free-form query to a concrete instrument.
func (a *Analyzer) Resolve(query string) models.Instrument {
	return a.resolver.Resolve(query)
}

// Analyze runs the whole pipeline for one query. It always returns a
// result; missing upstream data shows up as empty sections rather than an
// error.
func (a *Analyzer) Analyze(ctx context.Context, query, interval, period string) *Analysis {
	if interval == "" {
		interval = DefaultInterval
	}
	if period == "" {
		period = DefaultPeriod
	}

	inst := a.resolver.Resolve(query)

	series := a.market.GetSeries(ctx, inst.ID, interval, period, time.Time{}, time.Time{})
	indicators := technical.Compute(series)
	price, changePct := a.market.GetLivePrice(ctx, inst.ID)
	info := a.market.GetInfo(ctx, inst.ID)

	news := a.market.GetNews(ctx, inst.ID)
	sent := sentiment.ScoreRecords(news)

	var fg models.FearGreedResult
	if a.feargreed != nil {
		fg = a.feargreed.Compute(ctx)
	} else {
		fg = models.FearGreedResult{Score: 50, Label: "Neutral"}
	}

	var fc *models.ForecastResult
	if projected, err := forecast.Project(models.Closes(series), forecast.DefaultHorizon); err == nil {
		fc = projected
	}

	summary := report.Compose(report.Input{
		Ticker:    inst.ID,
		Price:     price,
		SMA:       indicators.LastSMA(),
		RSI:       indicators.LastRSI(),
		FearGreed: fg,
		NewsLabel: sent.Label,
	})

	result := &Analysis{
		Instrument: inst,
		Info:       info,
		Price:      price,
		ChangePct:  changePct,
		Series:     series,
		Indicators: indicators,
		Sentiment:  sent,
		FearGreed:  fg,
		Forecast:   fc,
		Report:     summary,
		Generated:  a.now(),
	}

	if a.completer != nil && a.completer.Available() {
		result.AISummary = a.completer.CompleteText(ctx, analystPrompt(inst.ID, summary, price, indicators))
	}

	return result
}

// SmartResponse answers a free-form question about a ticker, grounding the
// model in current price and indicator context. Without a configured
// provider the fixed unavailable message comes back.
func (a *Analyzer) SmartResponse(ctx context.Context, question, query string) string {
	inst := a.resolver.Resolve(query)

	price, _ := a.market.GetLivePrice(ctx, inst.ID)
	series := a.market.GetSeries(ctx, inst.ID, DefaultInterval, DefaultPeriod, time.Time{}, time.Time{})
	indicators := technical.Compute(series)

	prompt := fmt.Sprintf(
		"You are a professional financial analyst. Analyze %s based on this data:\n"+
			"- Price: %s\n- RSI (14): %s\n- SMA (20): %s\n\n"+
			"Question: %s\n\n"+
			"Provide a concise, actionable answer (max 3 sentences).",
		inst.ID,
		orNA(price), orNA(indicators.LastRSI()), orNA(indicators.LastSMA()),
		question,
	)

	if a.completer == nil || !a.completer.Available() {
		return llm.UnavailableMessage
	}
	return a.completer.CompleteText(ctx, prompt)
}

// analystPrompt asks the model to expand the deterministic report into a
// short narrative.
func analystPrompt(ticker, summary string, price float64, ind models.IndicatorSet) string {
	return fmt.Sprintf(
		"You are a professional financial analyst. Here is the current snapshot for %s:\n\n%s\n\n"+
			"- Price: %s\n- RSI (14): %s\n- SMA (20): %s\n\n"+
			"Write a concise narrative summary for an investor (max 3 sentences).",
		ticker, summary,
		orNA(price), orNA(ind.LastRSI()), orNA(ind.LastSMA()),
	)
}

// orNA renders a metric value, or "N/A" when it is undefined.
func orNA(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}
