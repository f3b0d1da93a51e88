package technical

import (
	"math"
	"testing"
	"time"

	"github.com/prostockhq/prostock/pkg/models"
)

// risingBars builds a synthetic series with closes start, start+1, ...
func risingBars(n int, start float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := start + float64(i)
		bars[i] = models.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func TestComputeShortSeries(t *testing.T) {
	if got := Compute(nil); !got.Empty() {
		t.Errorf("Compute(nil) not empty: %+v", got)
	}
	if got := Compute(risingBars(1, 100)); !got.Empty() {
		t.Errorf("Compute(1 bar) not empty: %+v", got)
	}
}

func TestComputeAlignment(t *testing.T) {
	bars := risingBars(60, 100)
	set := Compute(bars)

	for _, col := range [][]float64{set.RSI, set.SMA, set.BollingerUpper, set.BollingerLower} {
		if len(col) != len(bars) {
			t.Fatalf("column length %d, want %d", len(col), len(bars))
		}
	}
}

func TestRSIRisingSeries(t *testing.T) {
	bars := risingBars(60, 100)
	set := Compute(bars)

	// Values before the window's first defined index are NaN.
	for i := 0; i < RSIPeriod-1; i++ {
		if !math.IsNaN(set.RSI[i]) {
			t.Errorf("RSI[%d] = %v, want NaN", i, set.RSI[i])
		}
	}
	// A monotonically rising series has no losses, so RSI pins at 100.
	for i := RSIPeriod - 1; i < len(bars); i++ {
		if set.RSI[i] != 100 {
			t.Errorf("RSI[%d] = %v, want 100", i, set.RSI[i])
		}
	}
}

func TestRSIMixedSeries(t *testing.T) {
	closes := []float64{
		100, 102, 101, 103, 105, 104, 106, 108,
		107, 109, 111, 110, 112, 114, 113, 115,
	}
	rsi := RSI(closes, RSIPeriod)

	if !math.IsNaN(rsi[RSIPeriod-2]) {
		t.Errorf("RSI[%d] = %v, want NaN", RSIPeriod-2, rsi[RSIPeriod-2])
	}
	for i := RSIPeriod - 1; i < len(closes); i++ {
		if math.IsNaN(rsi[i]) {
			t.Fatalf("RSI[%d] is NaN, want defined", i)
		}
		if rsi[i] < 0 || rsi[i] > 100 {
			t.Errorf("RSI[%d] = %v, want within [0, 100]", i, rsi[i])
		}
	}
	// More gains than losses in this series, so RSI should lean bullish.
	last := rsi[len(rsi)-1]
	if last <= 50 {
		t.Errorf("final RSI = %v, want > 50 for an uptrending series", last)
	}
}

func TestSMARisingSeries(t *testing.T) {
	bars := risingBars(60, 100)
	set := Compute(bars)

	for i := 0; i < SMAPeriod-1; i++ {
		if !math.IsNaN(set.SMA[i]) {
			t.Errorf("SMA[%d] = %v, want NaN", i, set.SMA[i])
		}
	}

	// Window over closes 140..159 has mean 149.5.
	want := 149.5
	got := set.SMA[59]
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("SMA[59] = %v, want %v", got, want)
	}
}

func TestBollingerBands(t *testing.T) {
	bars := risingBars(60, 100)
	set := Compute(bars)

	for i := 0; i < BollingerPeriod-1; i++ {
		if !math.IsNaN(set.BollingerUpper[i]) || !math.IsNaN(set.BollingerLower[i]) {
			t.Errorf("bands[%d] defined before the window", i)
		}
	}

	for i := BollingerPeriod - 1; i < len(bars); i++ {
		up, lo, mid := set.BollingerUpper[i], set.BollingerLower[i], set.SMA[i]
		if !(lo < mid && mid < up) {
			t.Errorf("bands[%d]: lower %v, mid %v, upper %v out of order", i, lo, mid, up)
		}
		// Bands sit symmetrically around the mean.
		if math.Abs((up-mid)-(mid-lo)) > 1e-9 {
			t.Errorf("bands[%d] asymmetric: +%v / -%v", i, up-mid, mid-lo)
		}
	}

	// Sample standard deviation of 20 consecutive integers.
	wantSD := math.Sqrt(35.0)
	gotSD := (set.BollingerUpper[59] - set.SMA[59]) / BollingerMult
	if math.Abs(gotSD-wantSD) > 1e-9 {
		t.Errorf("band stddev = %v, want %v", gotSD, wantSD)
	}
}

func TestSMAConstantSeries(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 42
	}
	sma := SMA(values, SMAPeriod)
	for i := SMAPeriod - 1; i < len(values); i++ {
		if sma[i] != 42 {
			t.Errorf("SMA[%d] = %v, want 42", i, sma[i])
		}
	}
}
