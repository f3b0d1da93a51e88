package feargreed

import (
	"context"
	"testing"
	"time"

	"github.com/prostockhq/prostock/pkg/models"
)

// stubSource serves canned series keyed by ticker.
type stubSource struct {
	series map[string][]models.PriceBar
}

func (s *stubSource) GetSeries(ctx context.Context, id, interval, period string, start, end time.Time) []models.PriceBar {
	return s.series[id]
}

func closesToBars(closes []float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.PriceBar{Timestamp: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func TestComputeNeutralDefaults(t *testing.T) {
	tests := []struct {
		name string
		src  *stubSource
	}{
		{"no data at all", &stubSource{series: map[string][]models.PriceBar{}}},
		{"missing index", &stubSource{series: map[string][]models.PriceBar{
			"^VIX": closesToBars([]float64{20}),
		}}},
		{"missing vix", &stubSource{series: map[string][]models.PriceBar{
			"^GSPC": closesToBars([]float64{5000, 5100}),
		}}},
		{"zero index mean", &stubSource{series: map[string][]models.PriceBar{
			"^VIX":  closesToBars([]float64{20}),
			"^GSPC": closesToBars([]float64{0, 0}),
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.src).Compute(context.Background())
			want := models.FearGreedResult{Score: 50, Label: "Neutral"}
			if got != want {
				t.Errorf("Compute() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestComputeBalancedMarket(t *testing.T) {
	// VIX 30 gives a fear score of 50; a flat index gives momentum 50.
	src := &stubSource{series: map[string][]models.PriceBar{
		"^VIX":  closesToBars([]float64{28, 30}),
		"^GSPC": closesToBars([]float64{5000, 5000, 5000}),
	}}

	got := New(src).Compute(context.Background())
	if got.Score != 50 {
		t.Errorf("Score = %d, want 50", got.Score)
	}
	if got.Label != "Neutral" {
		t.Errorf("Label = %q, want Neutral", got.Label)
	}
}

func TestComputeClamping(t *testing.T) {
	// Extreme VIX pins the fear component at 0; a collapsing index pins
	// momentum at 0 too.
	src := &stubSource{series: map[string][]models.PriceBar{
		"^VIX":  closesToBars([]float64{80, 90}),
		"^GSPC": closesToBars([]float64{6000, 6000, 6000, 3000}),
	}}

	got := New(src).Compute(context.Background())
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0 (both components clamped)", got.Score)
	}
	if got.Label != "Extreme Fear" {
		t.Errorf("Label = %q, want Extreme Fear", got.Label)
	}
}

func TestComputeGreedySide(t *testing.T) {
	// Calm volatility and a strongly rising index push both components to
	// their ceilings.
	src := &stubSource{series: map[string][]models.PriceBar{
		"^VIX":  closesToBars([]float64{9, 8}),
		"^GSPC": closesToBars([]float64{4000, 4000, 4000, 8000}),
	}}

	got := New(src).Compute(context.Background())
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100", got.Score)
	}
	if got.Label != "Extreme Greed" {
		t.Errorf("Label = %q, want Extreme Greed", got.Label)
	}
}

func TestComputeUsesLastVIXClose(t *testing.T) {
	// Only the final VIX close matters, not the series mean.
	src := &stubSource{series: map[string][]models.PriceBar{
		"^VIX":  closesToBars([]float64{90, 90, 90, 10}),
		"^GSPC": closesToBars([]float64{5000, 5000}),
	}}

	got := New(src).Compute(context.Background())
	// fear = 100, momentum = 50: 100*0.4 + 50*0.6 = 70.
	if got.Score != 70 {
		t.Errorf("Score = %d, want 70", got.Score)
	}
	if got.Label != "Greed" {
		t.Errorf("Label = %q, want Greed", got.Label)
	}
}

func TestLabelBuckets(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "Extreme Fear"},
		{24, "Extreme Fear"},
		{25, "Fear"},
		{44, "Fear"},
		{45, "Neutral"},
		{54, "Neutral"},
		{55, "Greed"},
		{74, "Greed"},
		{75, "Extreme Greed"},
		{100, "Extreme Greed"},
	}

	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestNewWithTickers(t *testing.T) {
	src := &stubSource{series: map[string][]models.PriceBar{
		"^VKOSPI": closesToBars([]float64{30}),
		"^KS11":   closesToBars([]float64{2500, 2500}),
	}}

	got := NewWithTickers(src, "^VKOSPI", "^KS11").Compute(context.Background())
	if got.Score != 50 {
		t.Errorf("Score = %d, want 50", got.Score)
	}
}
