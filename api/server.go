// Package api provides the HTTP REST API server for ProStock.
//
// It exposes endpoints for instrument resolution, quotes, historical
// series, full analysis runs, news sentiment, the fear/greed gauge,
// analyst chat, and WebSocket quote streaming.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/prostockhq/prostock/internal/analysis/feargreed"
	"github.com/prostockhq/prostock/internal/analysis/sentiment"
	"github.com/prostockhq/prostock/internal/config"
	"github.com/prostockhq/prostock/internal/feed"
	"github.com/prostockhq/prostock/internal/pipeline"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	analyzer *pipeline.Analyzer
	fg       *feargreed.Proxy
	feeds    *feed.Fetcher
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	analyzer := pipeline.NewFromConfig(cfg)

	fg := feargreed.NewWithTickers(analyzer.Market(), cfg.Market.VolatilityIndex, cfg.Market.BroadIndex)

	feedOpts := []feed.Option{feed.WithSources(cfg.Feed.Sources)}
	if cfg.Feed.TimeoutSec > 0 {
		feedOpts = append(feedOpts, feed.WithTimeout(time.Duration(cfg.Feed.TimeoutSec)*time.Second))
	}
	if cfg.Cache.FeedTTL > 0 {
		feedOpts = append(feedOpts, feed.WithTTL(time.Duration(cfg.Cache.FeedTTL)*time.Second))
	}

	srv := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		fg:       fg,
		feeds:    feed.New(feedOpts...),
		wsHub:    NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Resolution and quotes
		r.Get("/resolve", s.handleResolve)
		r.Get("/quote/{ticker}", s.handleQuote)
		r.Get("/series/{ticker}", s.handleSeries)

		// Analysis
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/chat", s.handleChat)

		// News and market mood
		r.Get("/news/{ticker}", s.handleNews)
		r.Get("/feed", s.handleFeed)
		r.Get("/feargreed", s.handleFearGreed)

		// Market overview
		r.Get("/market/trending", s.handleTrending)
		r.Get("/rate", s.handleRate)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		// WebSocket quote streaming
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Query    string `json:"query"`
	Interval string `json:"interval,omitempty"`
	Period   string `json:"period,omitempty"`
}

// ChatRequest is the body for POST /api/v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
	Ticker  string `json:"ticker,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	inst := s.analyzer.Resolve(query)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: inst})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	quote := s.analyzer.Quote(r.Context(), ticker)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: quote})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = pipeline.DefaultInterval
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = pipeline.DefaultPeriod
	}

	inst := s.analyzer.Resolve(ticker)
	bars := s.analyzer.Market().GetSeries(r.Context(), inst.ID, interval, period, time.Time{}, time.Time{})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"ticker":   inst.ID,
			"interval": interval,
			"period":   period,
			"bars":     bars,
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	result := s.analyzer.Analyze(ctx, req.Query, req.Interval, req.Period)

	// Broadcast to WebSocket clients
	s.wsHub.Broadcast(WSMessage{
		Type: "analysis_complete",
		Data: map[string]interface{}{
			"ticker": result.Instrument.ID,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ticker := req.Ticker
	if ticker == "" {
		ticker = req.Message
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	answer := s.analyzer.SmartResponse(ctx, req.Message, ticker)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]interface{}{"answer": answer},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	inst := s.analyzer.Resolve(ticker)
	records := s.analyzer.Market().GetNews(r.Context(), inst.ID)
	result := sentiment.ScoreRecords(records)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"ticker":    inst.ID,
			"articles":  records,
			"sentiment": result,
		},
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	items := s.feeds.FetchAll(r.Context())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

func (s *Server) handleFearGreed(w http.ResponseWriter, r *http.Request) {
	result := s.fg.Compute(r.Context())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	boards := s.analyzer.TrendingBoards(r.Context())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: boards})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		pair = s.cfg.Market.RatePair
	}

	rate := s.analyzer.Market().ExchangeRate(r.Context(), pair)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]interface{}{"pair": pair, "rate": rate},
	})
}

// handleGetConfig returns the non-sensitive parts of the configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"cache":   s.cfg.Cache,
			"feed":    s.cfg.Feed,
			"market":  s.cfg.Market,
			"api":     s.cfg.API,
			"logging": s.cfg.Logging,
			"llm": map[string]interface{}{
				"models":      s.cfg.LLM.Models,
				"max_tokens":  s.cfg.LLM.MaxTokens,
				"temperature": s.cfg.LLM.Temperature,
			},
		},
	})
}

// handleGetConfigKeys returns masked API key status.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	// Marshal before touching the ResponseWriter so an encoding failure
	// still yields a well-formed error response instead of a bare 200.
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshal JSON response: %v", err)
		status = http.StatusInternalServerError
		data = []byte(`{"success":false,"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Printf("write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
