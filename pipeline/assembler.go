package pipeline

import (
	"fmt"
	"math"

	forecaster "github.com/aouyang1/go-forecast-api"
	"github.com/aouyang1/go-forecast-api/timedataset"
)

// Assemble joins the engine rows with the series. The first series.Len() rows must match the
// series dates and carry the actual values from the series. The remaining rows must be the
// horizon days following the last historical date. Every estimate is clipped at floor.
func Assemble(series *timedataset.TimeDataset, res *forecaster.Results, horizon int, floor float64, label string) (*ForecastResponse, error) {
	if res == nil {
		return nil, fmt.Errorf("no results, %w", ErrPredict)
	}
	if math.IsNaN(floor) || math.IsInf(floor, 0) {
		return nil, fmt.Errorf("non-finite floor %v, %w", floor, ErrPredict)
	}
	n := series.Len()
	if len(res.Forecast) != len(res.T) || len(res.Lower) != len(res.T) || len(res.Upper) != len(res.T) {
		return nil, fmt.Errorf("result columns have mismatched lengths, %w", ErrPredict)
	}
	if len(res.T) != n+horizon {
		return nil, fmt.Errorf("expected %d rows but got %d, %w", n+horizon, len(res.T), ErrPredict)
	}

	for i := range res.T {
		for _, v := range []float64{res.Forecast[i], res.Lower[i], res.Upper[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite estimate on %s, %w", timedataset.FormatDate(res.T[i]), ErrPredict)
			}
		}
	}

	if label == "" {
		label = DefaultMetricName
	}
	resp := &ForecastResponse{
		Historical: make([]FittedPoint, 0, n),
		Forecast:   make([]ForecastPoint, 0, horizon),
		Label:      label,
	}

	for i := 0; i < n; i++ {
		if !res.T[i].Equal(series.T[i]) {
			return nil, fmt.Errorf("row %d is %s but history is %s, %w",
				i, timedataset.FormatDate(res.T[i]), timedataset.FormatDate(series.T[i]), ErrPredict)
		}
		resp.Historical = append(resp.Historical, FittedPoint{
			Date:      timedataset.FormatDate(series.T[i]),
			Actual:    series.Y[i],
			Predicted: Clip(res.Forecast[i], floor),
			Lower:     Clip(res.Lower[i], floor),
			Upper:     Clip(res.Upper[i], floor),
		})
	}

	last := timedataset.TimeSlice(series.T).EndTime()
	for i := n; i < len(res.T); i++ {
		expected := last.AddDate(0, 0, i-n+1)
		if !res.T[i].Equal(expected) {
			return nil, fmt.Errorf("forecast row %d is %s but expected %s, %w",
				i-n, timedataset.FormatDate(res.T[i]), timedataset.FormatDate(expected), ErrPredict)
		}
		resp.Forecast = append(resp.Forecast, ForecastPoint{
			Date:      timedataset.FormatDate(res.T[i]),
			Predicted: Clip(res.Forecast[i], floor),
			Lower:     Clip(res.Lower[i], floor),
			Upper:     Clip(res.Upper[i], floor),
		})
	}
	return resp, nil
}
