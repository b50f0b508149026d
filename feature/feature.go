// Package feature describes the individual regressors of a forecast model along with how each
// one is generated from a series of time points.
package feature

type FeatureType int

const (
	FeatureTypeGrowth FeatureType = iota
	FeatureTypeChangepoint
	FeatureTypeSeasonality
	FeatureTypeEvent
	FeatureTypeTime
)

func (f FeatureType) String() string {
	switch f {
	case FeatureTypeGrowth:
		return "growth"
	case FeatureTypeChangepoint:
		return "changepoint"
	case FeatureTypeSeasonality:
		return "seasonality"
	case FeatureTypeEvent:
		return "event"
	case FeatureTypeTime:
		return "time"
	}
	return "unknown"
}

type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
