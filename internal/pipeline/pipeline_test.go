package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prostockhq/prostock/internal/analysis/feargreed"
	"github.com/prostockhq/prostock/internal/llm"
	"github.com/prostockhq/prostock/internal/marketdata"
	"github.com/prostockhq/prostock/internal/resolver"
	"github.com/prostockhq/prostock/pkg/models"
)

// stubProvider serves canned market data keyed by identifier.
type stubProvider struct {
	history map[string][]marketdata.PriceBarRow
	quotes  map[string][2]float64
	news    map[string][]map[string]any
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchHistory(ctx context.Context, id, interval, period string, start, end time.Time) ([]marketdata.PriceBarRow, error) {
	rows, ok := p.history[id]
	if !ok {
		return nil, errors.New("no data")
	}
	return rows, nil
}

func (p *stubProvider) FetchLiveQuote(ctx context.Context, id string) (float64, float64, error) {
	q, ok := p.quotes[id]
	if !ok {
		return 0, 0, errors.New("no quote")
	}
	return q[0], q[1], nil
}

func (p *stubProvider) FetchInfo(ctx context.Context, id string) (*models.InstrumentInfo, error) {
	return &models.InstrumentInfo{Ticker: id, Name: id + " Inc."}, nil
}

func (p *stubProvider) FetchNews(ctx context.Context, id string) ([]map[string]any, error) {
	return p.news[id], nil
}

func risingRows(n int, start float64) []marketdata.PriceBarRow {
	rows := make([]marketdata.PriceBarRow, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := start + float64(i)
		rows[i] = marketdata.PriceBarRow{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}
	return rows
}

func newTestAnalyzer(p *stubProvider, completer *llm.Completer) *Analyzer {
	market := marketdata.NewService(p)
	fg := feargreed.New(market)
	return New(resolver.New(nil), market, fg, completer)
}

func TestAnalyzeFullPipeline(t *testing.T) {
	p := &stubProvider{
		history: map[string][]marketdata.PriceBarRow{
			"AAPL":  risingRows(60, 100),
			"^VIX":  risingRows(5, 18),  // last close 22
			"^GSPC": risingRows(10, 5000),
		},
		quotes: map[string][2]float64{"AAPL": {165, 160}},
		news: map[string][]map[string]any{
			"AAPL": {
				{"title": "Stocks surge to record high"},
				{"title": "Markets tumble amid fears"},
			},
		},
	}
	a := newTestAnalyzer(p, nil)

	result := a.Analyze(context.Background(), "apple", "", "")

	if result.Instrument.ID != "AAPL" {
		t.Errorf("Instrument.ID = %q, want AAPL", result.Instrument.ID)
	}
	if result.Price != 165 {
		t.Errorf("Price = %v, want 165", result.Price)
	}
	if len(result.Series) != 60 {
		t.Errorf("len(Series) = %d, want 60", len(result.Series))
	}
	if result.Indicators.Empty() {
		t.Error("Indicators empty for a 60-bar series")
	}
	if rsi := result.Indicators.LastRSI(); rsi != 100 {
		t.Errorf("LastRSI = %v, want 100 for a rising series", rsi)
	}
	if result.Sentiment.Positive != 1 || result.Sentiment.Negative != 1 {
		t.Errorf("Sentiment counts = %+v", result.Sentiment)
	}
	if result.FearGreed.Score == 0 || result.FearGreed.Label == "" {
		t.Errorf("FearGreed = %+v", result.FearGreed)
	}
	if result.Forecast == nil {
		t.Fatal("Forecast is nil for a 60-bar series")
	}
	if math.Abs(result.Forecast.Slope-1) > 1e-9 {
		t.Errorf("Forecast.Slope = %v, want 1", result.Forecast.Slope)
	}
	if !strings.Contains(result.Report, "AI Executive Summary for AAPL") {
		t.Errorf("Report missing header:\n%s", result.Report)
	}
	if !strings.Contains(result.Report, "Bullish") {
		t.Errorf("Report should read bullish with price above the average:\n%s", result.Report)
	}
	if result.AISummary != "" {
		t.Errorf("AISummary = %q, want empty without a completer", result.AISummary)
	}
	if result.Generated.IsZero() {
		t.Error("Generated timestamp not set")
	}
}

func TestAnalyzeUnavailableData(t *testing.T) {
	p := &stubProvider{} // every fetch fails
	a := newTestAnalyzer(p, nil)

	result := a.Analyze(context.Background(), "AAPL", "1d", "6mo")

	if len(result.Series) != 0 {
		t.Errorf("len(Series) = %d, want 0", len(result.Series))
	}
	if !result.Indicators.Empty() {
		t.Error("Indicators should be empty with no data")
	}
	if result.Forecast != nil {
		t.Error("Forecast should be nil with no data")
	}
	if result.FearGreed.Score != 50 || result.FearGreed.Label != "Neutral" {
		t.Errorf("FearGreed = %+v, want neutral default", result.FearGreed)
	}
	if result.Sentiment.Label != "Neutral" {
		t.Errorf("Sentiment.Label = %q, want Neutral", result.Sentiment.Label)
	}
	// The report still renders, with placeholders.
	if !strings.Contains(result.Report, "Unavailable") {
		t.Errorf("Report should carry placeholders:\n%s", result.Report)
	}
}

func TestQuote(t *testing.T) {
	p := &stubProvider{
		quotes: map[string][2]float64{"BTC-USD": {50000, 48000}},
	}
	a := newTestAnalyzer(p, nil)

	q := a.Quote(context.Background(), "bitcoin")
	if q.Ticker != "BTC-USD" {
		t.Errorf("Ticker = %q, want BTC-USD", q.Ticker)
	}
	if q.Price != 50000 {
		t.Errorf("Price = %v, want 50000", q.Price)
	}
	wantPct := (50000.0 - 48000.0) / 48000.0 * 100
	if math.Abs(q.ChangePct-wantPct) > 1e-9 {
		t.Errorf("ChangePct = %v, want %v", q.ChangePct, wantPct)
	}
}

func TestBoards(t *testing.T) {
	p := &stubProvider{
		quotes: map[string][2]float64{
			"NVDA": {500, 490},
			"TSLA": {250, 255},
		},
	}
	a := newTestAnalyzer(p, nil)

	boards := a.Boards(context.Background(), []Board{
		{Name: "Test", Tickers: []string{"NVDA", "TSLA", "UNKNOWN"}},
	})

	if len(boards) != 1 {
		t.Fatalf("len(boards) = %d, want 1", len(boards))
	}
	quotes := boards[0].Quotes
	if len(quotes) != 3 {
		t.Fatalf("len(quotes) = %d, want 3 (failed tickers keep their slot)", len(quotes))
	}
	if quotes[0].Ticker != "NVDA" || quotes[0].Price != 500 {
		t.Errorf("quotes[0] = %+v", quotes[0])
	}
	if quotes[1].Ticker != "TSLA" || quotes[1].Price != 250 {
		t.Errorf("quotes[1] = %+v", quotes[1])
	}
	// Unfetchable ticker appears with zero values.
	if quotes[2].Ticker != "UNKNOWN" || quotes[2].Price != 0 {
		t.Errorf("quotes[2] = %+v", quotes[2])
	}
}

func TestTrendingBoardShape(t *testing.T) {
	p := &stubProvider{}
	a := newTestAnalyzer(p, nil)

	boards := a.TrendingBoards(context.Background())
	if len(boards) != len(DefaultBoards) {
		t.Fatalf("len(boards) = %d, want %d", len(boards), len(DefaultBoards))
	}
	for i, b := range boards {
		if b.Name != DefaultBoards[i].Name {
			t.Errorf("boards[%d].Name = %q, want %q", i, b.Name, DefaultBoards[i].Name)
		}
		if len(b.Quotes) != len(DefaultBoards[i].Tickers) {
			t.Errorf("boards[%d] has %d quotes, want %d", i, len(b.Quotes), len(DefaultBoards[i].Tickers))
		}
	}
}

func TestSmartResponseWithoutProvider(t *testing.T) {
	a := newTestAnalyzer(&stubProvider{}, nil)
	got := a.SmartResponse(context.Background(), "Should I buy?", "AAPL")
	if got != llm.UnavailableMessage {
		t.Errorf("got %q, want the fixed unavailable message", got)
	}
}

// promptRecorder captures the prompt sent to the completion backend.
type promptRecorder struct {
	prompt string
	reply  string
}

func (p *promptRecorder) Name() string                   { return "recorder" }
func (p *promptRecorder) Models() []string               { return []string{"m"} }
func (p *promptRecorder) Ping(ctx context.Context) error { return nil }

func (p *promptRecorder) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	p.prompt = req.Prompt
	return p.reply, nil
}

func TestSmartResponsePrompt(t *testing.T) {
	rec := &promptRecorder{reply: "Hold."}
	completer := llm.NewCompleter([]llm.Provider{rec})

	p := &stubProvider{
		history: map[string][]marketdata.PriceBarRow{"AAPL": risingRows(60, 100)},
		quotes:  map[string][2]float64{"AAPL": {165, 160}},
	}
	a := newTestAnalyzer(p, completer)

	got := a.SmartResponse(context.Background(), "Should I buy?", "apple")
	if got != "Hold." {
		t.Errorf("got %q, want the provider reply", got)
	}

	for _, want := range []string{
		"professional financial analyst",
		"AAPL",
		"Should I buy?",
		"RSI (14)",
		"SMA (20)",
		"max 3 sentences",
	} {
		if !strings.Contains(rec.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, rec.prompt)
		}
	}
}

func TestSmartResponsePromptPlaceholders(t *testing.T) {
	rec := &promptRecorder{reply: "ok"}
	completer := llm.NewCompleter([]llm.Provider{rec})
	a := newTestAnalyzer(&stubProvider{}, completer)

	a.SmartResponse(context.Background(), "What now?", "AAPL")
	if !strings.Contains(rec.prompt, "N/A") {
		t.Errorf("prompt should carry N/A placeholders with no data:\n%s", rec.prompt)
	}
}

func TestOrNA(t *testing.T) {
	if got := orNA(math.NaN()); got != "N/A" {
		t.Errorf("orNA(NaN) = %q", got)
	}
	if got := orNA(0); got != "N/A" {
		t.Errorf("orNA(0) = %q", got)
	}
	if got := orNA(42.1); got != "42.10" {
		t.Errorf("orNA(42.1) = %q", got)
	}
}
