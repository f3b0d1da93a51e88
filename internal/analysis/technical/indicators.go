// Package technical implements rolling technical indicators over ordered
// price bar series. All columns are per-bar and aligned 1:1 with the input;
// positions before a window's first defined index are NaN.
package technical

import (
	"math"

	"github.com/prostockhq/prostock/pkg/models"
)

// Rolling window sizes. Fixed, not configurable.
const (
	RSIPeriod       = 14
	SMAPeriod       = 20
	BollingerMult   = 2.0
	BollingerPeriod = SMAPeriod
)

// Compute derives the full indicator set for a series. Series with fewer
// than 2 bars produce an empty set (no-op).
func Compute(bars []models.PriceBar) models.IndicatorSet {
	if len(bars) < 2 {
		return models.IndicatorSet{}
	}

	closes := models.Closes(bars)
	sma, sd := rollingMeanStd(closes, SMAPeriod)

	n := len(closes)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = sma[i] + BollingerMult*sd[i]
		lower[i] = sma[i] - BollingerMult*sd[i]
	}

	return models.IndicatorSet{
		RSI:            RSI(closes, RSIPeriod),
		SMA:            sma,
		BollingerUpper: upper,
		BollingerLower: lower,
	}
}

// RSI computes the Relative Strength Index from rolling means of positive
// and negative close deltas. The delta at bar 0 counts as zero, so the
// first defined value sits at index period-1. A zero average loss maps to
// RSI 100, matching the gain/loss ratio going to infinity.
func RSI(closes []float64, period int) []float64 {
	if period <= 0 {
		period = RSIPeriod
	}
	n := len(closes)
	rsi := nanSlice(n)
	if n < period {
		return rsi
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 0; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i >= period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period-1 {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			rsi[i] = 100
		} else {
			rs := avgGain / avgLoss
			rsi[i] = 100 - (100 / (1 + rs))
		}
	}

	return rsi
}

// SMA computes the rolling mean of the input over the trailing window.
func SMA(values []float64, period int) []float64 {
	mean, _ := rollingMeanStd(values, period)
	return mean
}

// rollingMeanStd computes the rolling mean and standard deviation over the
// trailing window. Positions before index period-1 are NaN.
func rollingMeanStd(values []float64, period int) (mean, sd []float64) {
	n := len(values)
	mean = nanSlice(n)
	sd = nanSlice(n)
	if period <= 0 || n < period {
		return mean, sd
	}

	for i := period - 1; i < n; i++ {
		window := values[i-period+1 : i+1]
		m := avg(window)
		mean[i] = m
		sd[i] = stddev(window, m)
	}
	return mean, sd
}

// --- helper functions ---

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func avg(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// stddev is the sample standard deviation over the window, matching the
// ddof=1 convention of the band formula this feeds.
func stddev(data []float64, mean float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}
