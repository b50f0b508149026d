package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aouyang1/go-forecast-api/feature"
	"github.com/aouyang1/go-forecast-api/forecast/options"
	"github.com/aouyang1/go-forecast-api/models"
	"github.com/aouyang1/go-forecast-api/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing Nans")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrNonFiniteFit             = errors.New("fit produced non-finite coefficients")
)

// Forecast represents a single forecast model of a time series. This is a linear model using
// coordinate descent to calculate the weights. This will decompose the series into an intercept,
// a piecewise linear trend (based on changepoint times), seasonal components and events.
type Forecast struct {
	opt    *options.Options
	scores *Scores // score calculations after training

	// model coefficients
	fLabels *feature.Labels

	trainStartTime  time.Time
	trainEndTime    time.Time
	residual        []float64
	trainComponents Components

	coef    []float64
	trained bool
}

// New creates a new forecast instance withh thhe given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast options, %w", err)
	}

	return &Forecast{opt: opt}, nil
}

// Fit takes the input training data and fits a forecast model for possible changepoints,
// seasonal components, events and intercept. NaN values are ignored during the fit.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return err
	}

	fitData := trainingData.DropNan()
	if fitData.Len() <= 1 {
		return ErrInsufficientTrainingData
	}

	ts := timedataset.TimeSlice(fitData.T)
	f.trainStartTime = ts.StartTime()
	f.trainEndTime = ts.EndTime()

	f.opt.Prepare(fitData.T)

	x := f.opt.GenerateFeatures(fitData.T, f.trainStartTime, f.trainEndTime)
	x.RemoveZeroOnlyFeatures()
	f.fLabels = x.FeatureLabels()
	if f.fLabels.Len() == 0 {
		return ErrNoModelCoefficients
	}

	// values are scaled to a unit maximum so the regularization strength does not depend on the
	// magnitude of the series
	yScale := floats.Norm(fitData.Y, math.Inf(1))
	if yScale == 0 {
		yScale = 1.0
	}
	scaledY := make([]float64, fitData.Len())
	floats.ScaleTo(scaledY, 1.0/yScale, fitData.Y)

	lassoOpt := f.opt.NewLassoOptions(fitData.Len(), f.opt.PenaltyFactors(f.fLabels.Labels()))
	reg, err := models.NewLassoRegression(lassoOpt)
	if err != nil {
		return err
	}
	if err := reg.Fit(x.Matrix(false), mat.NewDense(len(scaledY), 1, scaledY)); err != nil {
		return err
	}

	f.coef = make([]float64, len(reg.Coef()))
	floats.ScaleTo(f.coef, yScale, reg.Coef())
	for _, c := range f.coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return ErrNonFiniteFit
		}
	}
	f.trained = true

	// use input training to include NaNs
	predicted, comp, err := f.Predict(trainingData.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, trainingData.Len())
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual

	return nil
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}

	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	x := f.opt.GenerateFeatures(t, f.trainStartTime, f.trainEndTime)

	res := make([]float64, len(t))
	comp := Components{
		Trend:       make([]float64, len(t)),
		Seasonality: make([]float64, len(t)),
		Event:       make([]float64, len(t)),
	}
	for i, label := range f.fLabels.Labels() {
		data, exists := x.Get(label)
		if !exists || f.coef[i] == 0 {
			continue
		}
		dst := comp.Trend
		switch label.Type() {
		case feature.FeatureTypeSeasonality:
			dst = comp.Seasonality
		case feature.FeatureTypeEvent:
			dst = comp.Event
		}
		floats.AddScaled(dst, f.coef[i], data[:len(t)])
	}
	floats.Add(res, comp.Trend)
	floats.Add(res, comp.Seasonality)
	floats.Add(res, comp.Event)
	return res, comp, nil
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil || f.fLabels == nil {
		return nil
	}

	return f.fLabels.Labels()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	labels := f.FeatureLabels()
	if len(labels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i := 0; i < len(f.coef); i++ {
		coef[labels[i].String()] = f.coef[i]
	}
	return coef, nil
}

// CoefficientsByType returns the coefficients of every feature of the given type
func (f *Forecast) CoefficientsByType(ft feature.FeatureType) []float64 {
	if f == nil || f.fLabels == nil {
		return nil
	}
	idx := f.fLabels.IndicesOf(ft)
	res := make([]float64, 0, len(idx))
	for _, i := range idx {
		res = append(res, f.coef[i])
	}
	return res
}

// Intercept returns the intercept of the forecast model
func (f *Forecast) Intercept() float64 {
	if f == nil || f.fLabels == nil {
		return 0
	}
	if idx, exists := f.fLabels.Index(feature.Intercept()); exists {
		return f.coef[idx]
	}
	return 0
}

// TrainingWindow returns the first and last time point used to fit the model
func (f *Forecast) TrainingWindow() (time.Time, time.Time) {
	if f == nil {
		return time.Time{}, time.Time{}
	}
	return f.trainStartTime, f.trainEndTime
}

// Model returns the serializeable format of the forecast model composing of the
// forecast options, coefficients with their feature labels, and the model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	labels := f.fLabels.Labels()
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		Options:        f.opt,
		Weights:        Weights{Coef: fws},
		Scores:         f.scores,
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ m1x1 + m2x2 + ...
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	terms := make([]string, 0, len(f.coef))
	for _, label := range f.FeatureLabels() {
		w := coef[label.String()]
		if w == 0 {
			continue
		}
		terms = append(terms, fmt.Sprintf("%.2f*%s", w, label))
	}
	if len(terms) == 0 {
		return "y ~ 0", nil
	}
	return "y ~ " + strings.Join(terms, "+"), nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil {
		return Scores{}
	}
	if f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent represents the overall trend component of the model which is determined
// by the growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Trend))
	copy(res, f.trainComponents.Trend)
	return res
}

// SeasonalityComponent represents the overall seasonal component of the model
func (f *Forecast) SeasonalityComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Seasonality))
	copy(res, f.trainComponents.Seasonality)
	return res
}
