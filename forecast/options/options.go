// Package options contains all forecast options for a linear fit of a univariate time series
package options

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/go-forecast-api/feature"
	"github.com/aouyang1/go-forecast-api/forecast/util"
	"github.com/aouyang1/go-forecast-api/models"
	"github.com/aouyang1/go-forecast-api/timedataset"
)

const (
	LabelTimeEpoch = "epoch"

	LabelSeasDaily  = "daily"
	LabelSeasWeekly = "weekly"
	LabelSeasYearly = "yearly"

	DefaultLambda           = 0.0005
	DefaultChangepointPrior = 0.05
	DefaultSeasonalityPrior = 10.0
	DefaultHolidayPrior     = 10.0
)

var (
	ErrNonPositivePrior        = errors.New("prior must be positive")
	ErrNegativeLambda          = errors.New("negative regularization")
	ErrInvalidChangepointRange = errors.New("changepoint range must be within (0, 1]")
	ErrNegativeOrders          = errors.New("negative seasonality orders")
)

// RegularizationOptions controls the L1 penalty of each feature group. The effective penalty of
// a feature is Lambda * number of training points / prior, so a larger prior lets the group
// fit more freely. Growth features are never penalized.
type RegularizationOptions struct {
	Lambda           float64 `json:"lambda"`
	ChangepointPrior float64 `json:"changepoint_prior"`
	SeasonalityPrior float64 `json:"seasonality_prior"`
	HolidayPrior     float64 `json:"holiday_prior"`
}

// NewDefaultRegularizationOptions returns the default penalty configuration
func NewDefaultRegularizationOptions() RegularizationOptions {
	return RegularizationOptions{
		Lambda:           DefaultLambda,
		ChangepointPrior: DefaultChangepointPrior,
		SeasonalityPrior: DefaultSeasonalityPrior,
		HolidayPrior:     DefaultHolidayPrior,
	}
}

// Options configures a forecast by specifying changepoints, seasonality orders, events and
// the regularization applied to each group of features.
type Options struct {
	ChangepointOptions    ChangepointOptions    `json:"changepoint_options"`
	SeasonalityOptions    SeasonalityOptions    `json:"seasonality_options"`
	EventOptions          EventOptions          `json:"event_options"`
	RegularizationOptions RegularizationOptions `json:"regularization_options"`

	// Lasso related options
	Iterations int     `json:"iterations"`
	Tolerance  float64 `json:"tolerance"`
}

// NewDefaultOptions returns a set of default forecast options
func NewDefaultOptions() *Options {
	return &Options{
		ChangepointOptions:    NewDefaultChangepointOptions(),
		SeasonalityOptions:    NewDefaultSeasonalityOptions(),
		RegularizationOptions: NewDefaultRegularizationOptions(),
		Iterations:            models.DefaultIterations,
		Tolerance:             models.DefaultTolerance,
	}
}

// Validate checks the options for values the fit cannot work with
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	reg := o.RegularizationOptions
	if reg.Lambda < 0 {
		return ErrNegativeLambda
	}
	if reg.ChangepointPrior <= 0 || reg.SeasonalityPrior <= 0 || reg.HolidayPrior <= 0 {
		return fmt.Errorf("changepoint %.3f, seasonality %.3f, holiday %.3f, %w",
			reg.ChangepointPrior, reg.SeasonalityPrior, reg.HolidayPrior, ErrNonPositivePrior)
	}
	if o.ChangepointOptions.Auto {
		if r := o.ChangepointOptions.Range; r <= 0 || r > 1 {
			return fmt.Errorf("got %.3f, %w", r, ErrInvalidChangepointRange)
		}
	}
	for _, seasCfg := range o.SeasonalityOptions.SeasonalityConfigs {
		if seasCfg.Orders < 0 {
			return fmt.Errorf("seasonality %q, %w", seasCfg.Name, ErrNegativeOrders)
		}
	}
	if o.Iterations < 0 {
		return models.ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return models.ErrNegativeTolerance
	}
	return nil
}

// Prepare adapts the options to the training times. Duplicate and unresolvable seasonalities
// are dropped and auto changepoints are placed.
func (o *Options) Prepare(t []time.Time) {
	o.SeasonalityOptions.removeDuplicates()

	if freq, err := timedataset.TimeSlice(t).EstimateFreq(); err == nil {
		o.SeasonalityOptions.removeUnresolvable(freq)
	}

	if o.ChangepointOptions.Auto {
		o.ChangepointOptions.GenerateAutoChangepoints(t)
	}
}

// GenerateFeatures builds the design features for each time point ordered as growth,
// changepoints, seasonality then events. Time is scaled against the training window.
func (o *Options) GenerateFeatures(t []time.Time, trainStartTime, trainEndTime time.Time) *feature.Set {
	x := feature.NewSet()

	epoch := feature.NewTime(LabelTimeEpoch).Generate(t)

	interceptFeat := feature.Intercept()
	linearFeat := feature.Linear()
	if intercept := interceptFeat.Generate(epoch, trainStartTime, trainEndTime); intercept != nil {
		x.Set(interceptFeat, intercept)
		x.Set(linearFeat, linearFeat.Generate(epoch, trainStartTime, trainEndTime))
	}

	x.Update(o.ChangepointOptions.GenerateFeatures(t, trainStartTime, trainEndTime))
	x.Update(o.SeasonalityOptions.generateFeatures(epoch))
	x.Update(o.EventOptions.generateFeatures(t))
	return x
}

// PenaltyFactors returns the relative L1 penalty of each feature in the same order
func (o *Options) PenaltyFactors(labels []feature.Feature) []float64 {
	reg := o.RegularizationOptions
	factors := make([]float64, len(labels))
	for i, label := range labels {
		switch label.Type() {
		case feature.FeatureTypeChangepoint:
			factors[i] = 1.0 / reg.ChangepointPrior
		case feature.FeatureTypeSeasonality:
			factors[i] = 1.0 / reg.SeasonalityPrior
		case feature.FeatureTypeEvent:
			factors[i] = 1.0 / reg.HolidayPrior
		default:
			factors[i] = 0.0
		}
	}
	return factors
}

// NewLassoOptions returns the regression options for a training set of m points
func (o *Options) NewLassoOptions(m int, penalties []float64) *models.LassoOptions {
	lassoOpt := models.NewDefaultLassoOptions()
	lassoOpt.Lambda = o.RegularizationOptions.Lambda * float64(m)
	lassoOpt.PenaltyFactors = penalties

	// intercept is part of the design features
	lassoOpt.FitIntercept = false

	lassoOpt.Iterations = o.Iterations
	if o.Iterations == 0 {
		lassoOpt.Iterations = models.DefaultIterations
	}

	lassoOpt.Tolerance = o.Tolerance
	if o.Tolerance == 0 {
		lassoOpt.Tolerance = models.DefaultTolerance
	}
	return lassoOpt
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	reg := o.RegularizationOptions
	if _, err := fmt.Fprintf(w, "%s%sRegularization: lambda %.4f, changepoint prior %.3f, seasonality prior %.3f, holiday prior %.3f\n",
		prefix, util.IndentExpand(indent, indentGrowth),
		reg.Lambda, reg.ChangepointPrior, reg.SeasonalityPrior, reg.HolidayPrior); err != nil {
		return err
	}
	if err := o.SeasonalityOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	if err := o.ChangepointOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	return o.EventOptions.TablePrint(w, prefix, indent, indentGrowth)
}
