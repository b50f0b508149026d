package pipeline

import (
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-forecast-api"
	"github.com/aouyang1/go-forecast-api/forecast/options"
	"github.com/aouyang1/go-forecast-api/timedataset"
)

// Configurator turns the derived seasonality settings into engine options
type Configurator struct {
	MaxChangepoints int

	// Holidays names US holidays from options.HolidayNames to model as events
	Holidays      []string
	HolidayBefore time.Duration
	HolidayAfter  time.Duration

	// OutlierPasses refits with outliers of the previous fit masked. 0 disables it.
	OutlierPasses int
}

func NewConfigurator() *Configurator {
	return &Configurator{
		MaxChangepoints: options.DefaultAutoNumChangepoints,
	}
}

// Configure builds the engine options for the series and horizon. Holiday events are placed
// over the history and the horizon so that learned effects carry into the forecast.
func (c *Configurator) Configure(cfg SeasonalityConfig, series *timedataset.TimeDataset, horizon int) (*forecaster.Options, error) {
	fOpt := options.NewDefaultOptions()

	// short histories get fewer Fourier orders and changepoints so the fit keeps residual
	// degrees of freedom for the uncertainty band
	budget := newParamBudget(series.Len())

	var seasCfgs []options.SeasonalityConfig
	if cfg.EnableWeekly {
		seasCfgs = append(seasCfgs, options.NewWeeklySeasonalityConfig(budget.orders(options.DefaultWeeklyOrders)))
	}
	if cfg.EnableYearly {
		seasCfgs = append(seasCfgs, options.NewYearlySeasonalityConfig(budget.orders(options.DefaultYearlyOrders)))
	}
	if cfg.EnableDaily {
		seasCfgs = append(seasCfgs, options.NewDailySeasonalityConfig(budget.orders(options.DefaultDailyOrders)))
	}
	fOpt.SeasonalityOptions.SeasonalityConfigs = seasCfgs

	maxChpts := c.MaxChangepoints
	if maxChpts <= 0 {
		maxChpts = options.DefaultAutoNumChangepoints
	}
	maxChpts = min(maxChpts, budget.remaining())
	fOpt.ChangepointOptions = options.ChangepointOptions{
		Auto:                maxChpts > 0,
		AutoNumChangepoints: maxChpts,
		Range:               cfg.ChangepointRange,
	}

	fOpt.RegularizationOptions.ChangepointPrior = cfg.TrendFlexibility
	fOpt.RegularizationOptions.SeasonalityPrior = cfg.SeasonalityStrength

	if len(c.Holidays) > 0 && series.Len() > 0 {
		ts := timedataset.TimeSlice(series.T)
		end := ts.EndTime().AddDate(0, 0, horizon+1)
		events, err := options.HolidayEvents(c.Holidays, ts.StartTime(), end, c.HolidayBefore, c.HolidayAfter)
		if err != nil {
			return nil, fmt.Errorf("%w, %w", ErrEngineInitialization, err)
		}
		fOpt.EventOptions.Events = events
	}

	opt := &forecaster.Options{
		SeriesOptions: &forecaster.SeriesOptions{
			ForecastOptions: fOpt,
		},
		UncertaintyOptions: &forecaster.UncertaintyOptions{
			IntervalWidth:    cfg.IntervalWidth,
			TrendUncertainty: true,
		},
	}
	if c.OutlierPasses > 0 {
		outlierOpt := forecaster.NewOutlierOptions()
		outlierOpt.NumPasses = c.OutlierPasses
		opt.SeriesOptions.OutlierOptions = outlierOpt
	}
	return opt, nil
}

// paramBudget caps the number of model coefficients at half the number of observations. The
// intercept and linear growth are always fit.
type paramBudget struct {
	left int
}

func newParamBudget(n int) *paramBudget {
	return &paramBudget{left: n/2 - 2}
}

// orders reserves a sin and cos pair per order up to limit. At least one order is always
// granted so an enabled seasonality is never dropped.
func (b *paramBudget) orders(limit int) int {
	orders := min(limit, b.left/2)
	if orders < 1 {
		orders = 1
	}
	b.left -= 2 * orders
	return orders
}

func (b *paramBudget) remaining() int {
	if b.left < 0 {
		return 0
	}
	return b.left
}
