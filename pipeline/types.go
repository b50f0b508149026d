package pipeline

const (
	DefaultHorizon    = 30
	DefaultMetricName = "sales"
)

// Observation is a single historical data point
type Observation struct {
	Date  string  `json:"date" validate:"required"`
	Value float64 `json:"value"`
}

// ForecastRequest is the input of a forecast. Observations may arrive in any order. A zero or
// omitted Horizon is filled with DefaultHorizon before validation, so a bound request always has a
// Horizon of at least 1. An empty Label uses the configured metric name.
type ForecastRequest struct {
	Observations []Observation `json:"data" validate:"dive"`
	Horizon      int           `json:"periods" default:"30" validate:"gte=1"`
	Label        string        `json:"metric_name"`
}

// SeasonalityConfig holds the per request model settings derived from the history
type SeasonalityConfig struct {
	EnableDaily         bool    `json:"enable_daily"`
	EnableWeekly        bool    `json:"enable_weekly"`
	EnableYearly        bool    `json:"enable_yearly"`
	TrendFlexibility    float64 `json:"trend_flexibility"`
	SeasonalityStrength float64 `json:"seasonality_strength"`
	ChangepointRange    float64 `json:"changepoint_range"`
	IntervalWidth       float64 `json:"interval_width"`
}

// FittedPoint is the model fit of one historical observation
type FittedPoint struct {
	Date      string  `json:"date"`
	Actual    float64 `json:"value"`
	Predicted float64 `json:"predicted"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// ForecastPoint is the estimate of one day after the history
type ForecastPoint struct {
	Date      string  `json:"date"`
	Predicted float64 `json:"predicted"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

type ForecastResponse struct {
	Historical []FittedPoint   `json:"historical"`
	Forecast   []ForecastPoint `json:"forecast"`
	Label      string          `json:"metric_name"`
}
