package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prostockhq/prostock/internal/analysis/feargreed"
	"github.com/prostockhq/prostock/internal/config"
	"github.com/prostockhq/prostock/internal/feed"
	"github.com/prostockhq/prostock/internal/marketdata"
	"github.com/prostockhq/prostock/internal/pipeline"
	"github.com/prostockhq/prostock/internal/resolver"
	"github.com/prostockhq/prostock/pkg/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 0
	cfg.Market.VolatilityIndex = "^VIX"
	cfg.Market.BroadIndex = "^GSPC"
	cfg.Market.RatePair = "KRW=X"
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(testConfig())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if !resp.Success {
			t.Errorf("GET %s: success = false", path)
		}
	}
}

func TestResolveEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/resolve?q=bitcoin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", resp.Data)
	}
	if data["id"] != "BTC-USD" {
		t.Errorf("id = %v, want BTC-USD", data["id"])
	}
	if data["class"] != "crypto" {
		t.Errorf("class = %v, want crypto", data["class"])
	}
}

func TestResolveRequiresQuery(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/resolve", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Success || resp.Error == "" {
		t.Errorf("response = %+v, want error envelope", resp)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing query", `{"interval": "1d"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/chat", `{"ticker": "AAPL"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without a message", rec.Code)
	}
}

func TestConfigEndpointHidesSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.GeminiKey = "super-secret-value"
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "super-secret-value") {
		t.Error("config response leaks the API key")
	}
}

func TestConfigKeysEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.GeminiKey = "AIzaSyExampleExample"
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/config/keys", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "AIzaSyExampleExample") {
		t.Error("key status response leaks the full key")
	}
	if !strings.Contains(body, "Gemini API Key") {
		t.Errorf("key status missing entries:\n%s", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// stubProvider serves canned market data keyed by identifier.
type stubProvider struct {
	history map[string][]marketdata.PriceBarRow
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
	return 0, 0, errors.New("no quote")
}

func (p *stubProvider) FetchInfo(ctx context.Context, id string) (*models.InstrumentInfo, error) {
	return &models.InstrumentInfo{Ticker: id}, nil
}

func (p *stubProvider) FetchNews(ctx context.Context, id string) ([]map[string]any, error) {
	return nil, errors.New("no news")
}

func newStubServer(t *testing.T, p marketdata.Provider) *Server {
	t.Helper()
	market := marketdata.NewService(p)
	srv := &Server{
		cfg:      testConfig(),
		analyzer: pipeline.New(resolver.New(nil), market, feargreed.New(market), nil),
		fg:       feargreed.New(market),
		feeds:    feed.New(),
		wsHub:    NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
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

func TestAnalyzeEncodesIndicatorColumns(t *testing.T) {
	srv := newStubServer(t, &stubProvider{
		history: map[string][]marketdata.PriceBarRow{"AAPL": risingRows(60, 100)},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", `{"query": "AAPL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("response body is empty")
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("success = false: %s", resp.Error)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", resp.Data)
	}
	indicators, ok := data["indicators"].(map[string]interface{})
	if !ok {
		t.Fatalf("indicators = %T, want object", data["indicators"])
	}
	rsi, ok := indicators["rsi"].([]interface{})
	if !ok || len(rsi) != 60 {
		t.Fatalf("rsi = %v, want 60-element array", indicators["rsi"])
	}

	// Undefined leading positions come through as null, defined ones as
	// numbers.
	if rsi[0] != nil {
		t.Errorf("rsi[0] = %v, want null", rsi[0])
	}
	if v, ok := rsi[59].(float64); !ok || v != 100 {
		t.Errorf("rsi[59] = %v, want 100", rsi[59])
	}
}

func TestWSHubBroadcast(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	client := &WSClient{
		hub:  hub,
		send: make(chan WSMessage, 8),
		done: make(chan struct{}),
	}
	hub.Register(client)

	hub.Broadcast(WSMessage{Type: "quote", Data: "payload"})

	msg := <-client.send
	if msg.Type != "quote" {
		t.Errorf("msg.Type = %q, want quote", msg.Type)
	}

	hub.Unregister(client)
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestDeliverAfterUnregister(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	// A streaming goroutine may race the hub tearing its client down; a
	// delivery to a closed client must report failure, never panic.
	for i := 0; i < 40; i++ {
		client := &WSClient{
			hub:  hub,
			send: make(chan WSMessage, 1),
			done: make(chan struct{}),
		}
		hub.Register(client)
		hub.Unregister(client)
		<-client.done

		if client.deliver(WSMessage{Type: "quote"}) {
			t.Fatal("deliver reported success on a closed client")
		}
	}
}

func TestDeliverDropsWhenBufferFull(t *testing.T) {
	client := &WSClient{send: make(chan WSMessage, 1), done: make(chan struct{})}

	if !client.deliver(WSMessage{Type: "quote"}) {
		t.Fatal("first deliver should succeed")
	}
	// Buffer is full; the message is dropped but the client stays alive.
	if !client.deliver(WSMessage{Type: "quote"}) {
		t.Fatal("deliver to a full buffer should not report a closed client")
	}
	if n := len(client.send); n != 1 {
		t.Errorf("len(send) = %d, want 1", n)
	}
}
