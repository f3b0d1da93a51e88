package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/prostockhq/prostock/pkg/models"
)

// Default TTLs for the read-through cache, by data kind.
const (
	DefaultQuoteTTL   = 10 * time.Second
	DefaultHistoryTTL = 10 * time.Second
	DefaultInfoTTL    = 300 * time.Second
	DefaultNewsTTL    = 300 * time.Second
)

// intradayIntervals are the granularities that need a widened window when
// requested with a single-day period: one calendar day may hold too few or
// zero samples for a closed or illiquid market.
var intradayIntervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "1h": true,
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithClock injects a clock for cache expiry, used in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithTTLs overrides the per-kind cache TTLs. Non-positive values keep the
// defaults.
func WithTTLs(quote, history, info, news time.Duration) ServiceOption {
	return func(s *Service) {
		if quote > 0 {
			s.quoteTTL = quote
		}
		if history > 0 {
			s.historyTTL = history
		}
		if info > 0 {
			s.infoTTL = info
		}
		if news > 0 {
			s.newsTTL = news
		}
	}
}

// Service is the cached gateway to the market data provider. Every getter
// swallows provider failures and returns empty/zero defaults; callers treat
// those as "unavailable", never as errors.
type Service struct {
	provider   Provider
	cache      *Cache
	now        func() time.Time
	quoteTTL   time.Duration
	historyTTL time.Duration
	infoTTL    time.Duration
	newsTTL    time.Duration
}

// NewService creates a Service around the given provider.
func NewService(provider Provider, opts ...ServiceOption) *Service {
	s := &Service{
		provider:   provider,
		now:        time.Now,
		quoteTTL:   DefaultQuoteTTL,
		historyTTL: DefaultHistoryTTL,
		infoTTL:    DefaultInfoTTL,
		newsTTL:    DefaultNewsTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewCacheWithClock(s.historyTTL, s.now)
	return s
}

// GetSeries returns cleaned price bars for an instrument. Request widening:
// intraday intervals with a "1d" period widen to "5d"; a daily interval with
// an explicit end date extends the end by one day so the date is inclusive.
// An empty or single-row result for a "1d" request is retried once at "5d".
// Provider failures yield an empty series.
func (s *Service) GetSeries(ctx context.Context, id, interval, period string, start, end time.Time) []models.PriceBar {
	key := fmt.Sprintf("series:%s:%s:%s:%d:%d", id, interval, period, start.Unix(), end.Unix())
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.PriceBar)
	}

	fetchPeriod := period
	if intradayIntervals[interval] && period == "1d" {
		fetchPeriod = "5d"
	}
	fetchEnd := end
	if interval == "1d" && !end.IsZero() {
		fetchEnd = end.AddDate(0, 0, 1)
	}

	rows, err := s.provider.FetchHistory(ctx, id, interval, fetchPeriod, start, fetchEnd)
	if err != nil {
		rows = nil
	}
	if len(rows) < 2 && period == "1d" {
		retry, retryErr := s.provider.FetchHistory(ctx, id, interval, "5d", time.Time{}, time.Time{})
		if retryErr == nil && len(retry) > 0 {
			rows = retry
		}
	}

	bars := cleanRows(rows)
	s.cache.SetWithTTL(key, bars, s.historyTTL)
	return bars
}

// GetLivePrice returns the current price and percent change for an
// instrument. When the quote endpoint lacks a field, the recent history is
// consulted, mirroring the quote fallback chain. Failure yields 0, 0.
func (s *Service) GetLivePrice(ctx context.Context, id string) (price, changePct float64) {
	key := "quote:" + id
	if cached, ok := s.cache.Get(key); ok {
		q := cached.([2]float64)
		return q[0], q[1]
	}

	price, prev, err := s.provider.FetchLiveQuote(ctx, id)
	if err != nil {
		price, prev = 0, 0
	}
	if price == 0 {
		if bars := s.GetSeries(ctx, id, "1d", "1d", time.Time{}, time.Time{}); len(bars) > 0 {
			price = bars[len(bars)-1].Close
		}
	}
	if prev == 0 {
		if bars := s.GetSeries(ctx, id, "1d", "5d", time.Time{}, time.Time{}); len(bars) > 1 {
			prev = bars[len(bars)-2].Close
		}
	}
	if price != 0 && prev != 0 {
		changePct = (price - prev) / prev * 100
	}

	s.cache.SetWithTTL(key, [2]float64{price, changePct}, s.quoteTTL)
	return price, changePct
}

// GetInfo returns descriptive fields for an instrument. Failure yields an
// empty value, never nil.
func (s *Service) GetInfo(ctx context.Context, id string) *models.InstrumentInfo {
	key := "info:" + id
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.InstrumentInfo)
	}

	info, err := s.provider.FetchInfo(ctx, id)
	if err != nil || info == nil {
		info = &models.InstrumentInfo{Ticker: id}
	}

	s.cache.SetWithTTL(key, info, s.infoTTL)
	return info
}

// GetNews returns raw news records for an instrument. Failure yields an
// empty slice.
func (s *Service) GetNews(ctx context.Context, id string) []map[string]any {
	key := "news:" + id
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]map[string]any)
	}

	records, err := s.provider.FetchNews(ctx, id)
	if err != nil {
		records = nil
	}
	if records == nil {
		records = []map[string]any{}
	}

	s.cache.SetWithTTL(key, records, s.newsTTL)
	return records
}

// ExchangeRate returns the latest daily close for a currency pair such as
// "KRW=X". Failure yields zero.
func (s *Service) ExchangeRate(ctx context.Context, pair string) float64 {
	bars := s.GetSeries(ctx, pair, "1d", "1d", time.Time{}, time.Time{})
	if len(bars) == 0 {
		return 0
	}
	return bars[len(bars)-1].Close
}

// cleanRows converts raw provider rows to price bars, dropping rows with
// any missing field. Zero-volume rows are dropped only when the series
// carries volume data at all; index-style series report no volume and
// would otherwise be filtered to nothing.
func cleanRows(rows []PriceBarRow) []models.PriceBar {
	hasVolume := false
	for _, r := range rows {
		if r.Volume > 0 {
			hasVolume = true
			break
		}
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for _, r := range rows {
		bar := models.PriceBar{
			Timestamp: r.Timestamp,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
		if !bar.Complete() {
			continue
		}
		if hasVolume && bar.Volume == 0 {
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}
