package pipeline

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/stat"

	forecaster "github.com/aouyang1/go-forecast-api"
	"github.com/aouyang1/go-forecast-api/timedataset"
)

// stubEngine predicts the historical mean plus offset with a fixed band
type stubEngine struct {
	newErr     error
	fitErr     error
	predictErr error

	offset float64
	width  float64

	// started is signalled once a fit begins and the fit then waits on release
	started chan struct{}
	release chan struct{}

	lastOpt *forecaster.Options
}

func (s *stubEngine) New(opt *forecaster.Options) (Model, error) {
	if s.newErr != nil {
		return nil, s.newErr
	}
	s.lastOpt = opt
	return &stubModel{e: s}, nil
}

type stubModel struct {
	e *stubEngine
	t []time.Time
	y []float64
}

func (m *stubModel) Fit(t []time.Time, y []float64) error {
	if m.e.started != nil {
		m.e.started <- struct{}{}
	}
	if m.e.release != nil {
		<-m.e.release
	}
	if m.e.fitErr != nil {
		return m.e.fitErr
	}
	m.t = t
	m.y = y
	return nil
}

func (m *stubModel) Predict(horizon int) (*forecaster.Results, error) {
	if m.e.predictErr != nil {
		return nil, m.e.predictErr
	}
	t := append(append([]time.Time{}, m.t...), timedataset.TimeSlice(m.t).NextDays(horizon)...)
	mean := stat.Mean(m.y, nil) + m.e.offset

	res := &forecaster.Results{
		T:        t,
		Forecast: make([]float64, len(t)),
		Upper:    make([]float64, len(t)),
		Lower:    make([]float64, len(t)),
	}
	for i := range t {
		res.Forecast[i] = mean
		res.Upper[i] = mean + m.e.width
		res.Lower[i] = mean - m.e.width
	}
	return res, nil
}

func (m *stubModel) Describe(w io.Writer) error {
	_, err := fmt.Fprintf(w, "stub model over %d points\n", len(m.t))
	return err
}

func dailyObservations(start time.Time, values ...float64) []Observation {
	obs := make([]Observation, 0, len(values))
	for i, v := range values {
		obs = append(obs, Observation{
			Date:  timedataset.FormatDate(start.AddDate(0, 0, i)),
			Value: v,
		})
	}
	return obs
}
