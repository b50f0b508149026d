package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-forecast-api/feature"
	"github.com/aouyang1/go-forecast-api/forecast/options"
	"github.com/aouyang1/go-forecast-api/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startDay = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func weeklyOnlyOptions() *options.Options {
	opt := options.NewDefaultOptions()
	opt.SeasonalityOptions.SeasonalityConfigs = []options.SeasonalityConfig{
		options.NewWeeklySeasonalityConfig(options.DefaultWeeklyOrders),
	}
	return opt
}

func TestNew(t *testing.T) {
	testData := map[string]struct {
		opt *options.Options
		err error
	}{
		"nil options": {},
		"default":     {opt: options.NewDefaultOptions()},
		"negative lambda": {
			opt: &options.Options{
				RegularizationOptions: options.RegularizationOptions{
					Lambda:           -1,
					ChangepointPrior: 1,
					SeasonalityPrior: 1,
					HolidayPrior:     1,
				},
			},
			err: options.ErrNegativeLambda,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := New(td.opt)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestFitLinearWithWeekly(t *testing.T) {
	tSeries := timedataset.GenerateDays(startDay, 140)
	y := timedataset.GenerateConstY(len(tSeries), 50.0).
		Add(timedataset.GenerateLinearY(tSeries, 1.0)).
		Add(timedataset.GenerateWaveY(tSeries, 5.0, 7*86400.0, 1.0, 0))

	f, err := New(weeklyOnlyOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(tSeries, y))

	scores := f.Scores()
	assert.Greater(t, scores.R2, 0.99)
	assert.Less(t, scores.MAPE, 0.02)

	start, end := f.TrainingWindow()
	assert.Equal(t, tSeries[0], start)
	assert.Equal(t, tSeries[len(tSeries)-1], end)

	assert.InDelta(t, 50.0, f.Intercept(), 3.0)

	// trend, seasonality and events add back up to the prediction
	pred, comp, err := f.Predict(tSeries)
	require.NoError(t, err)
	for i := range pred {
		assert.InDelta(t, pred[i], comp.Trend[i]+comp.Seasonality[i]+comp.Event[i], 1e-9)
	}
	assert.Len(t, f.TrendComponent(), len(tSeries))
	assert.Len(t, f.SeasonalityComponent(), len(tSeries))

	residual := f.Residuals()
	require.Len(t, residual, len(y))
	for i := range residual {
		assert.InDelta(t, y[i]-pred[i], residual[i], 1e-9)
	}

	// extrapolate two weeks into the future to cancel out the wave
	future := timedataset.TimeSlice(tSeries).NextDays(14)
	futurePred, _, err := f.Predict(future)
	require.NoError(t, err)
	assert.InDelta(t, y[len(y)-1]+14.0, futurePred[13], 3.0)
}

func TestFitWithNaN(t *testing.T) {
	tSeries := timedataset.GenerateDays(startDay, 60)
	y := timedataset.GenerateConstY(len(tSeries), 10.0)
	y[5] = math.NaN()
	y[30] = math.NaN()

	f, err := New(weeklyOnlyOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(tSeries, y))

	residual := f.Residuals()
	assert.True(t, math.IsNaN(residual[5]))
	assert.True(t, math.IsNaN(residual[30]))
	assert.InDelta(t, 0.0, residual[0], 0.5)
}

func TestFitErrors(t *testing.T) {
	testData := map[string]struct {
		t   []time.Time
		y   []float64
		err error
	}{
		"no data": {
			err: timedataset.ErrNoTrainingData,
		},
		"single point": {
			t:   []time.Time{startDay},
			y:   []float64{1.0},
			err: ErrInsufficientTrainingData,
		},
		"only nans": {
			t:   timedataset.GenerateDays(startDay, 3),
			y:   []float64{math.NaN(), math.NaN(), 2.0},
			err: ErrInsufficientTrainingData,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := New(nil)
			require.NoError(t, err)
			assert.ErrorIs(t, f.Fit(td.t, td.y), td.err)
		})
	}
}

func TestUntrained(t *testing.T) {
	var nilF *Forecast
	_, _, err := nilF.Predict(nil)
	assert.ErrorIs(t, err, ErrUninitializedForecast)
	assert.Equal(t, Scores{}, nilF.Scores())
	assert.Nil(t, nilF.Residuals())

	f, err := New(nil)
	require.NoError(t, err)

	_, _, err = f.Predict([]time.Time{startDay})
	assert.ErrorIs(t, err, ErrUntrainedForecast)

	_, err = f.Model()
	assert.ErrorIs(t, err, ErrUntrainedForecast)

	_, err = f.Coefficients()
	assert.ErrorIs(t, err, ErrNoModelCoefficients)
}

func TestFitEvents(t *testing.T) {
	tSeries := timedataset.GenerateDays(startDay, 120)
	promoStart := startDay.AddDate(0, 0, 40)
	promoEnd := startDay.AddDate(0, 0, 45)
	y := timedataset.GenerateConstY(len(tSeries), 20.0).
		Add(timedataset.GenerateConstY(len(tSeries), 0.0).SetConst(tSeries, 15.0, promoStart, promoEnd))

	opt := weeklyOnlyOptions()
	opt.ChangepointOptions.Auto = false
	opt.EventOptions.Events = []options.Event{
		options.NewEvent("promo", promoStart, promoEnd),
	}

	f, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, f.Fit(tSeries, y))

	evCoef := f.CoefficientsByType(feature.FeatureTypeEvent)
	require.Len(t, evCoef, 1)
	assert.InDelta(t, 15.0, evCoef[0], 1.0)

	coef, err := f.Coefficients()
	require.NoError(t, err)
	assert.Contains(t, coef, feature.NewEvent("promo").String())

	eq, err := f.ModelEq()
	require.NoError(t, err)
	assert.Contains(t, eq, "y ~ ")
}

func TestModel(t *testing.T) {
	tSeries := timedataset.GenerateDays(startDay, 30)
	y := timedataset.GenerateLinearY(tSeries, 2.0)

	f, err := New(weeklyOnlyOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(tSeries, y))

	m, err := f.Model()
	require.NoError(t, err)
	assert.Equal(t, tSeries[0], m.TrainStartTime)
	assert.Equal(t, tSeries[len(tSeries)-1], m.TrainEndTime)
	assert.NotNil(t, m.Scores)
	assert.Len(t, m.Weights.Coef, len(f.FeatureLabels()))
	assert.Equal(t, feature.FeatureTypeGrowth, m.Weights.Coef[0].Type)
}
