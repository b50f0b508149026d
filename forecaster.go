// Package forecaster fits an additive time series model of trend, seasonality and events and
// produces forecasts with uncertainty bands.
package forecaster

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-forecast-api/feature"
	"github.com/aouyang1/go-forecast-api/forecast"
	"github.com/aouyang1/go-forecast-api/stats"
	"github.com/aouyang1/go-forecast-api/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInsufficientResidual = errors.New("insufficient samples from residual after outlier removal")
	ErrEmptyTimeDataset     = errors.New("no timedataset or uninitialized")
	ErrUntrainedForecaster  = errors.New("forecaster has not been fit")
)

const MinResidualSize = 2

// Forecaster fits a forecast model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	seriesForecast *forecast.Forecast
	uncertainty    Uncertainty

	fitTrainingData *timedataset.TimeDataset
	residual        []float64
	trained         bool
}

// New creates a new instance of a Forecaster using thhe provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate options, %w", err)
	}

	f := &Forecaster{
		opt: opt,
	}

	seriesForecast, err := forecast.New(f.opt.SeriesOptions.ForecastOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}
	f.seriesForecast = seriesForecast
	return f, nil
}

// Fit uses the input time dataset and fits the forecast model
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	f.fitTrainingData = td.Copy()

	residual, err := f.fitSeriesWithOutliers(td.T, td.Y)
	if err != nil {
		return err
	}
	f.residual = residual

	if err := f.fitUncertainty(td.Y, residual); err != nil {
		return err
	}
	f.trained = true
	return nil
}

// fitSeriesWithOutliers refits the series after masking outliers of the previous pass. The
// input y is masked in place so callers pass a copy.
func (f *Forecaster) fitSeriesWithOutliers(t []time.Time, y []float64) ([]float64, error) {
	outlierOpt := f.opt.SeriesOptions.OutlierOptions

	// iterate to remove outliers
	numPasses := 0
	if outlierOpt != nil {
		numPasses = outlierOpt.NumPasses
	}

	var residual []float64
	for i := 0; i <= numPasses; i++ {
		if err := f.seriesForecast.Fit(t, y); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}

		residual = f.seriesForecast.Residuals()
		if outlierOpt == nil || i == numPasses {
			break
		}

		outlierIdxs := stats.DetectOutliers(
			residual,
			outlierOpt.LowerPercentile,
			outlierOpt.UpperPercentile,
			outlierOpt.TukeyFactor,
		)

		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}

		for _, idx := range outlierIdxs {
			y[idx] = math.NaN()
		}
	}
	return residual, nil
}

// fitUncertainty derives the band width from the residual of the points used in the final fit
// and the size of the fitted trend changes. The residual deviation is corrected for the number
// of non-zero coefficients. A fit with no residual degrees of freedom falls back to the
// deviation of the observations themselves.
func (f *Forecaster) fitUncertainty(y, residual []float64) error {
	fitResidual := make([]float64, 0, len(residual))
	observed := make([]float64, 0, len(residual))
	for i, r := range residual {
		if math.IsNaN(y[i]) || math.IsNaN(r) {
			continue
		}
		fitResidual = append(fitResidual, r)
		observed = append(observed, y[i])
	}
	if len(fitResidual) < MinResidualSize {
		return ErrInsufficientResidual
	}

	coef, err := f.SeriesCoefficients()
	if err != nil {
		return fmt.Errorf("unable to count fitted coefficients, %w", err)
	}
	var params int
	for _, c := range coef {
		if c != 0 {
			params++
		}
	}

	width := f.opt.UncertaintyOptions.IntervalWidth
	u := Uncertainty{
		DegreesOfFreedom: len(fitResidual) - params,
		Zscore:           distuv.UnitNormal.Quantile(0.5 + width/2.0),
	}
	if u.DegreesOfFreedom > 0 {
		u.ResidualStdDev = floats.Norm(fitResidual, 2) / math.Sqrt(float64(u.DegreesOfFreedom))
	} else {
		u.ResidualStdDev = stat.StdDev(observed, nil)
	}

	if f.opt.UncertaintyOptions.TrendUncertainty {
		// changepoint coefficients are slope changes per unit of scaled training time
		chptCoef := f.seriesForecast.CoefficientsByType(feature.FeatureTypeChangepoint)
		start, end := f.seriesForecast.TrainingWindow()
		windowDays := end.Sub(start).Hours() / 24.0
		if len(chptCoef) > 0 && windowDays > 0 {
			absCoef := make([]float64, len(chptCoef))
			for i, c := range chptCoef {
				absCoef[i] = math.Abs(c)
			}
			u.TrendStdDev = stat.Mean(absCoef, nil) / windowDays
		}
	}
	f.uncertainty = u
	return nil
}

// bandWidth returns the half width of the band at time t
func (f *Forecaster) bandWidth(t time.Time) float64 {
	u := f.uncertainty
	variance := u.ResidualStdDev * u.ResidualStdDev

	_, end := f.seriesForecast.TrainingWindow()
	if t.After(end) && u.TrendStdDev > 0 {
		days := t.Sub(end).Hours() / 24.0
		drift := days * u.TrendStdDev
		variance += drift * drift
	}
	return u.Zscore * math.Sqrt(variance)
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time point
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	if f == nil || !f.trained {
		return nil, ErrUntrainedForecaster
	}

	seriesRes, seriesComp, err := f.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}

	r := &Results{
		T:                t,
		Forecast:         seriesRes,
		SeriesComponents: seriesComp,
	}
	width := make([]float64, len(t))
	for i, tPnt := range t {
		width[i] = f.bandWidth(tPnt)
	}

	upper := make([]float64, len(seriesRes))
	lower := make([]float64, len(seriesRes))

	copy(upper, seriesRes)
	copy(lower, seriesRes)

	floats.Add(upper, width)
	floats.Sub(lower, width)
	r.Upper = upper
	r.Lower = lower
	return r, nil
}

// Residuals returns the difference between the training data and the final series fit
func (f *Forecaster) Residuals() []float64 {
	return f.residual
}

// TrendComponent returns the trend component created by growth and changepoints after fitting
func (f *Forecaster) TrendComponent() []float64 {
	return f.seriesForecast.TrendComponent()
}

// SeasonalityComponent returns the seasonality component after fitting the fourier series
func (f *Forecaster) SeasonalityComponent() []float64 {
	return f.seriesForecast.SeasonalityComponent()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (f *Forecaster) SeriesCoefficients() (map[string]float64, error) {
	return f.seriesForecast.Coefficients()
}

// Model generates a serializeable representaioon of the fit options, series model, and uncertainty.
func (f *Forecaster) Model() (Model, error) {
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	m := Model{
		Options:     f.opt,
		Series:      seriesModel,
		Uncertainty: f.uncertainty,
	}
	return m, nil
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ m1x1 + m2x2 ...
func (f *Forecaster) SeriesModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults predicts the forecast, upper, and lower values over the training points
func (f *Forecaster) FitResults() (*Results, error) {
	if f == nil || f.fitTrainingData == nil {
		return nil, ErrUntrainedForecaster
	}
	return f.Predict(f.fitTrainingData.T)
}
