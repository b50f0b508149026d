package pipeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aouyang1/go-forecast-api/timedataset"
)

const (
	MinObservations   = 7
	DefaultMaxHorizon = 365
)

// Validator checks a request and converts its observations into a date ordered series
type Validator struct {
	MinObservations int
	MaxHorizon      int
}

func NewValidator() *Validator {
	return &Validator{
		MinObservations: MinObservations,
		MaxHorizon:      DefaultMaxHorizon,
	}
}

// Validate returns the observations sorted ascending by date. Gaps between dates are kept and
// repeated calendar dates are rejected.
func (v *Validator) Validate(req ForecastRequest) (*timedataset.TimeDataset, error) {
	// the engine cannot fit fewer than MinObservations points
	minObs := max(v.MinObservations, MinObservations)
	if len(req.Observations) < minObs {
		return nil, fmt.Errorf("at least %d observations are required, got %d, %w",
			minObs, len(req.Observations), ErrInsufficientData)
	}

	maxHorizon := v.MaxHorizon
	if maxHorizon <= 0 {
		maxHorizon = DefaultMaxHorizon
	}
	if req.Horizon < 1 || req.Horizon > maxHorizon {
		return nil, fmt.Errorf("periods must be within [1, %d], got %d, %w",
			maxHorizon, req.Horizon, ErrInvalidHorizon)
	}

	type point struct {
		t time.Time
		y float64
	}
	points := make([]point, 0, len(req.Observations))
	for i, obs := range req.Observations {
		t, err := timedataset.ParseDate(obs.Date)
		if err != nil {
			return nil, fmt.Errorf("observation %d, %w, %w", i, ErrMalformedDate, err)
		}
		if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
			return nil, fmt.Errorf("observation %d on %s has value %v, %w", i, obs.Date, obs.Value, ErrMalformedValue)
		}
		points = append(points, point{t, obs.Value})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].t.Before(points[j].t)
	})

	t := make([]time.Time, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		if i > 0 && p.t.Equal(points[i-1].t) {
			return nil, fmt.Errorf("%s appears more than once, %w", timedataset.FormatDate(p.t), ErrDuplicateDate)
		}
		t[i] = p.t
		y[i] = p.y
	}
	return timedataset.NewUnivariateDataset(t, y)
}
