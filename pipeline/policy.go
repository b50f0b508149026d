package pipeline

import "github.com/aouyang1/go-forecast-api/timedataset"

const (
	YearlyMinSpanDays          = 180
	DefaultTrendFlexibility    = 0.05
	DefaultSeasonalityStrength = 10.0
	DefaultChangepointRange    = 0.8
	DefaultIntervalWidth       = 0.95
)

// Policy holds the decisions that differ between service generations: how estimates are
// floored and whether daily seasonality is modelled.
type Policy struct {
	Floor             FloorPolicy
	DailySeasonality  bool
	YearlyMinSpanDays int

	TrendFlexibility    float64
	SeasonalityStrength float64
	ChangepointRange    float64
	IntervalWidth       float64
}

// CanonicalPolicy floors at 5% of the historical mean and leaves out daily seasonality which
// is meaningless for daily aggregates
func CanonicalPolicy() Policy {
	return Policy{
		Floor:               SoftFloor{Fraction: DefaultFloorFraction},
		DailySeasonality:    false,
		YearlyMinSpanDays:   YearlyMinSpanDays,
		TrendFlexibility:    DefaultTrendFlexibility,
		SeasonalityStrength: DefaultSeasonalityStrength,
		ChangepointRange:    DefaultChangepointRange,
		IntervalWidth:       DefaultIntervalWidth,
	}
}

// LegacyPolicy floors at zero and always asks for daily seasonality
func LegacyPolicy() Policy {
	p := CanonicalPolicy()
	p.Floor = HardFloor{}
	p.DailySeasonality = true
	return p
}

// Derive returns the model settings for the series. Yearly seasonality needs at least
// YearlyMinSpanDays of history.
func (p Policy) Derive(series *timedataset.TimeDataset) SeasonalityConfig {
	minSpan := p.YearlyMinSpanDays
	if minSpan <= 0 {
		minSpan = YearlyMinSpanDays
	}
	return SeasonalityConfig{
		EnableDaily:         p.DailySeasonality,
		EnableWeekly:        true,
		EnableYearly:        series.SpanDays() >= minSpan,
		TrendFlexibility:    p.TrendFlexibility,
		SeasonalityStrength: p.SeasonalityStrength,
		ChangepointRange:    p.ChangepointRange,
		IntervalWidth:       p.IntervalWidth,
	}
}
