// Package forecast fits a linear trend to close prices and extrapolates a
// fixed horizon. This is directional guidance only, not a calibrated price
// model.
package forecast

import (
	"errors"

	"github.com/prostockhq/prostock/pkg/models"
)

// DefaultHorizon is the number of projected points.
const DefaultHorizon = 30

// ErrInsufficientData is returned when the series is too short to fit.
var ErrInsufficientData = errors.New("forecast: insufficient data")

// Project fits an ordinary least-squares regression of close against bar
// index over the full history and projects the next horizon indices. The
// series must be strictly longer than the horizon.
func Project(closes []float64, horizon int) (*models.ForecastResult, error) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	n := len(closes)
	if n <= horizon {
		return nil, ErrInsufficientData
	}

	slope, intercept := fitLine(closes)

	points := make([]models.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		idx := n + i
		points[i] = models.ForecastPoint{
			Index: idx,
			Close: intercept + slope*float64(idx),
		}
	}

	return &models.ForecastResult{
		Points:   points,
		Terminal: points[horizon-1].Close,
		Slope:    slope,
	}, nil
}

// fitLine computes OLS slope and intercept of values against their indices.
func fitLine(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
