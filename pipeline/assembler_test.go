package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forecaster "github.com/aouyang1/go-forecast-api"
	"github.com/aouyang1/go-forecast-api/timedataset"
)

func assemblerFixture(t *testing.T, horizon int) (*timedataset.TimeDataset, *forecaster.Results) {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tSeries := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 3)}
	series, err := timedataset.NewUnivariateDataset(tSeries, []float64{10, 20, 30})
	require.NoError(t, err)

	all := append(append([]time.Time{}, tSeries...), timedataset.TimeSlice(tSeries).NextDays(horizon)...)
	res := &forecaster.Results{T: all}
	for i := range all {
		pred := float64(i) - 2.0
		res.Forecast = append(res.Forecast, pred)
		res.Lower = append(res.Lower, pred-1)
		res.Upper = append(res.Upper, pred+1)
	}
	return series, res
}

func TestAssemble(t *testing.T) {
	series, res := assemblerFixture(t, 2)

	resp, err := Assemble(series, res, 2, 0.5, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricName, resp.Label)

	expectedHist := []FittedPoint{
		{Date: "2024-01-01", Actual: 10, Predicted: 0.5, Lower: 0.5, Upper: 0.5},
		{Date: "2024-01-02", Actual: 20, Predicted: 0.5, Lower: 0.5, Upper: 0.5},
		{Date: "2024-01-04", Actual: 30, Predicted: 0.5, Lower: 0.5, Upper: 1},
	}
	expectedForecast := []ForecastPoint{
		{Date: "2024-01-05", Predicted: 1, Lower: 0.5, Upper: 2},
		{Date: "2024-01-06", Predicted: 2, Lower: 1, Upper: 3},
	}
	assert.Equal(t, expectedHist, resp.Historical)
	assert.Equal(t, expectedForecast, resp.Forecast)
}

func TestAssembleErrors(t *testing.T) {
	testData := map[string]struct {
		mutate func(res *forecaster.Results)
		horz   int
		floor  float64
	}{
		"nil results": {
			horz: 2,
		},
		"wrong horizon": {
			mutate: func(res *forecaster.Results) {},
			horz:   3,
		},
		"misaligned history": {
			mutate: func(res *forecaster.Results) { res.T[1] = res.T[1].AddDate(0, 0, 1) },
			horz:   2,
		},
		"gap in forecast": {
			mutate: func(res *forecaster.Results) { res.T[4] = res.T[4].AddDate(0, 0, 1) },
			horz:   2,
		},
		"nan estimate": {
			mutate: func(res *forecaster.Results) { res.Upper[0] = math.NaN() },
			horz:   2,
		},
		"inf estimate": {
			mutate: func(res *forecaster.Results) { res.Forecast[4] = math.Inf(1) },
			horz:   2,
		},
		"column length mismatch": {
			mutate: func(res *forecaster.Results) { res.Lower = res.Lower[:2] },
			horz:   2,
		},
		"infinite floor": {
			mutate: func(res *forecaster.Results) {},
			horz:   2,
			floor:  math.Inf(1),
		},
		"nan floor": {
			mutate: func(res *forecaster.Results) {},
			horz:   2,
			floor:  math.NaN(),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			series, res := assemblerFixture(t, 2)
			if td.mutate == nil {
				res = nil
			} else {
				td.mutate(res)
			}
			_, err := Assemble(series, res, td.horz, td.floor, "revenue")
			assert.ErrorIs(t, err, ErrPredict)
		})
	}
}
