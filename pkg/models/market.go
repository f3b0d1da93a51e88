// Package models defines the core data structures used throughout ProStock.
package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// InstrumentClass categorizes an instrument by its identifier conventions.
type InstrumentClass string

const (
	ClassEquity    InstrumentClass = "equity"
	ClassCrypto    InstrumentClass = "crypto"
	ClassCommodity InstrumentClass = "commodity"
	ClassCurrency  InstrumentClass = "currency"
	ClassIndex     InstrumentClass = "index"
)

// Instrument is a resolved market instrument: a canonical identifier plus
// the class derived from it. Derived on each resolution, never stored.
type Instrument struct {
	ID    string          `json:"id"`    // e.g., "BTC-USD", "005930.KS", "^KS11"
	Class InstrumentClass `json:"class"`
}

// PriceBar represents a single candlestick bar of price data.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Complete reports whether the bar has no missing price fields.
func (b PriceBar) Complete() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Closes extracts the close column from a bar sequence.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Quote represents a near-real-time quote.
type Quote struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	ChangePct float64   `json:"change_pct"`
	Timestamp time.Time `json:"timestamp"`
}

// InstrumentInfo holds descriptive fields for an instrument.
type InstrumentInfo struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

// Column is a per-bar indicator column. Undefined positions hold NaN in
// memory; JSON has no NaN, so they serialize as null.
type Column []float64

// MarshalJSON renders NaN positions as null.
func (c Column) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(c)*8+2)
	b = append(b, '[')
	for i, v := range c {
		if i > 0 {
			b = append(b, ',')
		}
		if math.IsNaN(v) {
			b = append(b, "null"...)
		} else {
			b = strconv.AppendFloat(b, v, 'g', -1, 64)
		}
	}
	return append(b, ']'), nil
}

// UnmarshalJSON reads null positions back as NaN.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Column, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	*c = out
	return nil
}

// IndicatorSet holds per-bar derived indicator columns aligned 1:1 with the
// price series they were computed from. Positions before each indicator's
// window are NaN, never zero-filled.
type IndicatorSet struct {
	RSI            Column `json:"rsi"`
	SMA            Column `json:"sma"`
	BollingerUpper Column `json:"bb_upper"`
	BollingerLower Column `json:"bb_lower"`
}

// Empty reports whether no indicator columns were produced.
func (s IndicatorSet) Empty() bool {
	return len(s.RSI) == 0 && len(s.SMA) == 0
}

// LastRSI returns the most recent RSI value, NaN when undefined.
func (s IndicatorSet) LastRSI() float64 { return lastValue(s.RSI) }

// LastSMA returns the most recent SMA value, NaN when undefined.
func (s IndicatorSet) LastSMA() float64 { return lastValue(s.SMA) }

func lastValue(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

// SentimentResult holds per-headline classification counts and the
// mean-polarity aggregate label.
type SentimentResult struct {
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Neutral  int     `json:"neutral"`
	Mean     float64 `json:"mean_polarity"`
	Label    string  `json:"label"` // "Positive", "Negative", "Neutral"
}

// FearGreedResult is the composite market-mood score.
type FearGreedResult struct {
	Score int    `json:"score"` // 0..100
	Label string `json:"label"` // "Extreme Fear" .. "Extreme Greed"
}

// ForecastPoint is one projected (index, close) pair.
type ForecastPoint struct {
	Index int     `json:"index"`
	Close float64 `json:"close"`
}

// ForecastResult is a fixed-horizon linear trend projection.
type ForecastResult struct {
	Points   []ForecastPoint `json:"points"`
	Terminal float64         `json:"terminal"`
	Slope    float64         `json:"slope"`
}

// FeedItem is a single headline from an RSS-style feed.
type FeedItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}
