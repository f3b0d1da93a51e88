package forecast

import (
	"errors"
	"math"
	"testing"
)

func linearCloses(n int, start float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)
	}
	return closes
}

func TestProjectInsufficientData(t *testing.T) {
	for _, n := range []int{0, 1, 29, 30} {
		_, err := Project(linearCloses(n, 100), DefaultHorizon)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Project(%d closes) error = %v, want ErrInsufficientData", n, err)
		}
	}
}

func TestProjectMinimumLength(t *testing.T) {
	// One past the horizon is enough.
	result, err := Project(linearCloses(31, 100), DefaultHorizon)
	if err != nil {
		t.Fatalf("Project(31 closes): %v", err)
	}
	if len(result.Points) != DefaultHorizon {
		t.Errorf("len(Points) = %d, want %d", len(result.Points), DefaultHorizon)
	}
}

func TestProjectLinearSeries(t *testing.T) {
	// Closes 100..159: exact fit with slope 1, intercept 100.
	result, err := Project(linearCloses(60, 100), DefaultHorizon)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	if math.Abs(result.Slope-1) > 1e-9 {
		t.Errorf("Slope = %v, want 1", result.Slope)
	}

	// Projection covers indices 60..89; values continue the line.
	for i, pt := range result.Points {
		wantIdx := 60 + i
		if pt.Index != wantIdx {
			t.Errorf("Points[%d].Index = %d, want %d", i, pt.Index, wantIdx)
		}
		want := 100 + float64(wantIdx)
		if math.Abs(pt.Close-want) > 1e-6 {
			t.Errorf("Points[%d].Close = %v, want %v", i, pt.Close, want)
		}
	}

	if math.Abs(result.Terminal-189) > 1e-6 {
		t.Errorf("Terminal = %v, want 189", result.Terminal)
	}
}

func TestProjectFlatSeries(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 77.5
	}

	result, err := Project(closes, DefaultHorizon)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if math.Abs(result.Slope) > 1e-9 {
		t.Errorf("Slope = %v, want 0", result.Slope)
	}
	for i, pt := range result.Points {
		if math.Abs(pt.Close-77.5) > 1e-6 {
			t.Errorf("Points[%d].Close = %v, want 77.5", i, pt.Close)
		}
	}
}

func TestProjectDefaultHorizon(t *testing.T) {
	// A non-positive horizon falls back to the default.
	result, err := Project(linearCloses(60, 100), 0)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(result.Points) != DefaultHorizon {
		t.Errorf("len(Points) = %d, want %d", len(result.Points), DefaultHorizon)
	}
}
