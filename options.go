package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-forecast-api/forecast/options"
)

const DefaultIntervalWidth = 0.95

var ErrInvalidIntervalWidth = errors.New("interval width must be within (0, 1)")

// OutlierOptions configures repeated fits where points outside of the Tukey fences of the
// residual are masked out before the next fit.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// SeriesOptions configures the fit of the series itself
type SeriesOptions struct {
	ForecastOptions *options.Options `json:"forecast_options"`
	OutlierOptions  *OutlierOptions  `json:"outlier_options"`
}

func NewSeriesOptions() *SeriesOptions {
	return &SeriesOptions{
		ForecastOptions: options.NewDefaultOptions(),
	}
}

// UncertaintyOptions configures the bands around the series forecast. IntervalWidth is the
// probability mass the band should cover. With TrendUncertainty the band widens the further a
// point is past the training window according to the size of the fitted trend changes.
type UncertaintyOptions struct {
	IntervalWidth    float64 `json:"interval_width"`
	TrendUncertainty bool    `json:"trend_uncertainty"`
}

func NewUncertaintyOptions() *UncertaintyOptions {
	return &UncertaintyOptions{
		IntervalWidth:    DefaultIntervalWidth,
		TrendUncertainty: true,
	}
}

type Options struct {
	SeriesOptions      *SeriesOptions      `json:"series_options"`
	UncertaintyOptions *UncertaintyOptions `json:"uncertainty_options"`
}

func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:      NewSeriesOptions(),
		UncertaintyOptions: NewUncertaintyOptions(),
	}
}

// Validate fills in any unset options with defaults and rejects invalid values
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.SeriesOptions == nil {
		o.SeriesOptions = NewSeriesOptions()
	}
	if o.SeriesOptions.ForecastOptions == nil {
		o.SeriesOptions.ForecastOptions = options.NewDefaultOptions()
	}
	if o.UncertaintyOptions == nil {
		o.UncertaintyOptions = NewUncertaintyOptions()
	}
	if w := o.UncertaintyOptions.IntervalWidth; w <= 0 || w >= 1 {
		return nil, fmt.Errorf("got %.3f, %w", w, ErrInvalidIntervalWidth)
	}
	if err := o.SeriesOptions.ForecastOptions.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}
