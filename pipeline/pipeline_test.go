package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/go-forecast-api/timedataset"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// checkResponse verifies the shape every successful response must have
func checkResponse(t *testing.T, req ForecastRequest, resp *ForecastResponse, floor float64) {
	t.Helper()
	require.Len(t, resp.Historical, len(req.Observations))
	require.Len(t, resp.Forecast, req.Horizon)

	for _, row := range resp.Historical {
		assert.GreaterOrEqual(t, row.Predicted, floor)
		assert.GreaterOrEqual(t, row.Lower, floor)
		assert.GreaterOrEqual(t, row.Upper, floor)
		assert.LessOrEqual(t, row.Lower, row.Predicted)
		assert.LessOrEqual(t, row.Predicted, row.Upper)
	}

	last, err := timedataset.ParseDate(resp.Historical[len(resp.Historical)-1].Date)
	require.NoError(t, err)
	for i, row := range resp.Forecast {
		assert.Equal(t, timedataset.FormatDate(last.AddDate(0, 0, i+1)), row.Date)
		assert.GreaterOrEqual(t, row.Predicted, floor)
		assert.GreaterOrEqual(t, row.Lower, floor)
		assert.GreaterOrEqual(t, row.Upper, floor)
		assert.LessOrEqual(t, row.Lower, row.Predicted)
		assert.LessOrEqual(t, row.Predicted, row.Upper)
	}
}

func TestRunStubEngine(t *testing.T) {
	testData := map[string]struct {
		policy   Policy
		values   []float64
		offset   float64
		width    float64
		expected float64
	}{
		"soft floor lifts negative estimates": {
			policy: CanonicalPolicy(),
			values: []float64{100, 110, 90, 120, 130, 95, 105},
			offset: -200,
			width:  50,
			// 5% of the mean of 107.14
			expected: 0.05 * 750.0 / 7.0,
		},
		"hard floor clips at zero": {
			policy:   LegacyPolicy(),
			values:   []float64{100, 110, 90, 120, 130, 95, 105},
			offset:   -200,
			width:    50,
			expected: 0,
		},
		"all zero history": {
			policy:   CanonicalPolicy(),
			values:   []float64{0, 0, 0, 0, 0, 0, 0, 0},
			width:    1,
			expected: 0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			engine := &stubEngine{offset: td.offset, width: td.width}
			p := New(WithEngine(engine), WithPolicy(td.policy))

			req := ForecastRequest{Observations: dailyObservations(testStart, td.values...), Horizon: 5}
			resp, err := p.Run(context.Background(), req)
			require.NoError(t, err)
			checkResponse(t, req, resp, td.expected)

			for _, row := range resp.Forecast {
				assert.False(t, math.IsNaN(row.Predicted))
				assert.InDelta(t, td.expected, row.Lower, 1e-9)
			}
		})
	}
}

func TestRunUnsortedInput(t *testing.T) {
	obs := dailyObservations(testStart, 1, 2, 3, 4, 5, 6, 7, 8)
	shuffled := []Observation{obs[3], obs[7], obs[0], obs[5], obs[1], obs[6], obs[2], obs[4]}

	p := New(WithEngine(&stubEngine{width: 1}))
	resp, err := p.Run(context.Background(), ForecastRequest{Observations: shuffled, Horizon: 3, Label: "revenue"})
	require.NoError(t, err)

	assert.Equal(t, "revenue", resp.Label)
	for i, row := range resp.Historical {
		assert.Equal(t, obs[i].Date, row.Date)
		assert.Equal(t, obs[i].Value, row.Actual)
	}
}

func TestRunDefaults(t *testing.T) {
	p := New(WithEngine(&stubEngine{width: 1}), WithMetricName("orders"))
	resp, err := p.Run(context.Background(), ForecastRequest{
		Observations: dailyObservations(testStart, 1, 2, 3, 4, 5, 6, 7),
	})
	require.NoError(t, err)
	assert.Len(t, resp.Forecast, DefaultHorizon)
	assert.Equal(t, "orders", resp.Label)
}

func TestRunErrors(t *testing.T) {
	errEngine := errors.New("engine failure")
	seven := dailyObservations(testStart, 100, 110, 90, 120, 130, 95, 105)

	testData := map[string]struct {
		engine *stubEngine
		req    ForecastRequest
		err    error
	}{
		"six observations": {
			engine: &stubEngine{},
			req:    ForecastRequest{Observations: seven[:6], Horizon: 5},
			err:    ErrInsufficientData,
		},
		"engine rejects options": {
			engine: &stubEngine{newErr: errEngine},
			req:    ForecastRequest{Observations: seven, Horizon: 5},
			err:    ErrEngineInitialization,
		},
		"fit fails": {
			engine: &stubEngine{fitErr: errEngine},
			req:    ForecastRequest{Observations: seven, Horizon: 5},
			err:    ErrFit,
		},
		"predict fails": {
			engine: &stubEngine{predictErr: errEngine},
			req:    ForecastRequest{Observations: seven, Horizon: 5},
			err:    ErrPredict,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			p := New(WithEngine(td.engine))
			resp, err := p.Run(context.Background(), td.req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, td.err)
			if td.engine.newErr != nil || td.engine.fitErr != nil || td.engine.predictErr != nil {
				assert.ErrorIs(t, err, errEngine)
				assert.Contains(t, err.Error(), errEngine.Error())
			}
		})
	}
}

func TestRunOverloaded(t *testing.T) {
	engine := &stubEngine{started: make(chan struct{}), release: make(chan struct{})}
	p := New(WithEngine(engine), WithPool(NewPool(1, 0, time.Minute, nil)))
	req := ForecastRequest{Observations: dailyObservations(testStart, 1, 2, 3, 4, 5, 6, 7), Horizon: 2}

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), req)
		done <- err
	}()
	<-engine.started

	_, err := p.Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrOverloaded)

	close(engine.release)
	assert.NoError(t, <-done)
}

func TestRunTimeout(t *testing.T) {
	engine := &stubEngine{release: make(chan struct{})}
	defer close(engine.release)

	p := New(WithEngine(engine), WithPool(NewPool(1, 0, 10*time.Millisecond, nil)))
	_, err := p.Run(context.Background(), ForecastRequest{
		Observations: dailyObservations(testStart, 1, 2, 3, 4, 5, 6, 7),
		Horizon:      2,
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunExplain(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithEngine(&stubEngine{}), WithExplain(&buf))
	_, err := p.Run(context.Background(), ForecastRequest{
		Observations: dailyObservations(testStart, 1, 2, 3, 4, 5, 6, 7),
		Horizon:      2,
	})
	require.NoError(t, err)
	assert.Equal(t, "stub model over 7 points\n", buf.String())
}

func TestRunForecasterEngine(t *testing.T) {
	testData := map[string]struct {
		values  []float64
		horizon int
	}{
		"seven observations": {
			values:  []float64{100, 110, 90, 120, 130, 95, 105},
			horizon: 5,
		},
		"constant zero": {
			values:  []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			horizon: 3,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			p := New()
			req := ForecastRequest{Observations: dailyObservations(testStart, td.values...), Horizon: td.horizon}
			resp, err := p.Run(context.Background(), req)
			require.NoError(t, err)

			series, err := p.validator.Validate(req)
			require.NoError(t, err)
			checkResponse(t, req, resp, p.Policy().Floor.Floor(series.Y))

			// identical input yields identical output
			again, err := p.Run(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, resp, again)
		})
	}
}

func TestRunYearlySpan(t *testing.T) {
	values := make([]float64, 201)
	for i := range values {
		values[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/7)
	}
	engine := &stubEngine{width: 1}
	p := New(WithEngine(engine))

	_, err := p.Run(context.Background(), ForecastRequest{Observations: dailyObservations(testStart, values...), Horizon: 10})
	require.NoError(t, err)

	seasCfgs := engine.lastOpt.SeriesOptions.ForecastOptions.SeasonalityOptions.SeasonalityConfigs
	require.Len(t, seasCfgs, 2)
	assert.Equal(t, "yearly", seasCfgs[1].Name)
}

func TestRunMinimumHistoryBand(t *testing.T) {
	req := ForecastRequest{
		Observations: dailyObservations(testStart, 100, 110, 90, 120, 130, 95, 105),
		Horizon:      5,
	}
	resp, err := New().Run(context.Background(), req)
	require.NoError(t, err)

	// the history spans 90 to 130 so a 95% band must be tens of units wide
	for _, row := range resp.Forecast {
		assert.Greater(t, row.Upper-row.Lower, 20.0, row.Date)
	}
	for _, row := range resp.Historical {
		assert.Greater(t, row.Upper-row.Lower, 20.0, row.Date)
	}
}

func TestRunHugeValues(t *testing.T) {
	values := make([]float64, 7)
	for i := range values {
		values[i] = 1e308
	}
	req := ForecastRequest{Observations: dailyObservations(testStart, values...), Horizon: 2}

	resp, err := New().Run(context.Background(), req)
	if err != nil {
		assert.ErrorIs(t, err, ErrPredict)
		return
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	for _, row := range resp.Historical {
		assert.True(t, finite(row.Predicted) && finite(row.Lower) && finite(row.Upper), row.Date)
	}
	for _, row := range resp.Forecast {
		assert.True(t, finite(row.Predicted) && finite(row.Lower) && finite(row.Upper), row.Date)
	}
}
