package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	forecaster "github.com/aouyang1/go-forecast-api"
	"github.com/aouyang1/go-forecast-api/timedataset"
)

var errUnfitModel = errors.New("model has not been fit")

// Engine creates forecasting models from engine options
type Engine interface {
	New(opt *forecaster.Options) (Model, error)
}

// Model is a single use forecasting model. Predict returns one row per fitted date followed
// by horizon consecutive days after the last fitted date.
type Model interface {
	Fit(t []time.Time, y []float64) error
	Predict(horizon int) (*forecaster.Results, error)
	Describe(w io.Writer) error
}

// ForecasterEngine fits the additive forecaster in this module
type ForecasterEngine struct{}

func (ForecasterEngine) New(opt *forecaster.Options) (Model, error) {
	f, err := forecaster.New(opt)
	if err != nil {
		return nil, err
	}
	return &forecasterModel{f: f}, nil
}

type forecasterModel struct {
	f *forecaster.Forecaster
	t []time.Time
}

func (m *forecasterModel) Fit(t []time.Time, y []float64) error {
	if err := m.f.Fit(t, y); err != nil {
		return err
	}
	m.t = make([]time.Time, len(t))
	copy(m.t, t)
	return nil
}

func (m *forecasterModel) Predict(horizon int) (*forecaster.Results, error) {
	if len(m.t) == 0 {
		return nil, errUnfitModel
	}
	t := make([]time.Time, 0, len(m.t)+horizon)
	t = append(t, m.t...)
	t = append(t, timedataset.TimeSlice(m.t).NextDays(horizon)...)
	return m.f.Predict(t)
}

func (m *forecasterModel) Describe(w io.Writer) error {
	model, err := m.f.Model()
	if err != nil {
		return fmt.Errorf("unable to describe model, %w", err)
	}
	return model.TablePrint(w)
}
