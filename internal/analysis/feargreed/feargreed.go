// Package feargreed derives a 0-100 market-mood composite from a volatility
// index level and broad-index momentum.
package feargreed

import (
	"context"
	"math"
	"time"

	"github.com/prostockhq/prostock/pkg/models"
)

// Default reference series.
const (
	DefaultVolatilityIndex = "^VIX"
	DefaultBroadIndex      = "^GSPC"
)

// SeriesSource supplies the two reference series. Satisfied by the market
// data service.
type SeriesSource interface {
	GetSeries(ctx context.Context, id, interval, period string, start, end time.Time) []models.PriceBar
}

// Proxy computes the fear-greed composite over injected reference tickers.
type Proxy struct {
	src          SeriesSource
	volatilityID string
	broadIndexID string
}

// New creates a Proxy with the default reference tickers.
func New(src SeriesSource) *Proxy {
	return &Proxy{
		src:          src,
		volatilityID: DefaultVolatilityIndex,
		broadIndexID: DefaultBroadIndex,
	}
}

// NewWithTickers creates a Proxy with custom reference tickers.
func NewWithTickers(src SeriesSource, volatilityID, broadIndexID string) *Proxy {
	return &Proxy{src: src, volatilityID: volatilityID, broadIndexID: broadIndexID}
}

// Compute blends a volatility-derived fear score (40%) with six-month index
// momentum (60%). When either reference series is unavailable the result
// defaults to 50 / Neutral; errors never propagate.
func (p *Proxy) Compute(ctx context.Context) models.FearGreedResult {
	neutral := models.FearGreedResult{Score: 50, Label: "Neutral"}

	vixBars := p.src.GetSeries(ctx, p.volatilityID, "1d", "5d", time.Time{}, time.Time{})
	if len(vixBars) == 0 {
		return neutral
	}
	vix := vixBars[len(vixBars)-1].Close

	indexBars := p.src.GetSeries(ctx, p.broadIndexID, "1d", "6mo", time.Time{}, time.Time{})
	if len(indexBars) == 0 {
		return neutral
	}
	latest := indexBars[len(indexBars)-1].Close
	mean := avgClose(indexBars)
	if mean == 0 {
		return neutral
	}

	fearScore := clamp(100 - (vix-10)*2.5)
	momentumScore := clamp(50 + ((latest-mean)/mean)*500)
	score := int(math.Round(fearScore*0.4 + momentumScore*0.6))

	return models.FearGreedResult{Score: score, Label: Label(score)}
}

// Label buckets a composite score into its five-level description.
func Label(score int) string {
	switch {
	case score < 25:
		return "Extreme Fear"
	case score < 45:
		return "Fear"
	case score < 55:
		return "Neutral"
	case score < 75:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func avgClose(bars []models.PriceBar) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars))
}
