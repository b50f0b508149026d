package forecaster

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-forecast-api/forecast"
)

// Uncertainty describes how the bands around the series forecast are computed
type Uncertainty struct {
	ResidualStdDev float64 `json:"residual_stddev"`
	Zscore         float64 `json:"zscore"`

	// TrendStdDev is the expected trend drift per day past the training window
	TrendStdDev float64 `json:"trend_stddev"`

	// DegreesOfFreedom is the number of fitted points less the non-zero coefficients
	DegreesOfFreedom int `json:"degrees_of_freedom"`
}

// Model is the serializeable representation of a fit forecaster
type Model struct {
	Options     *Options       `json:"options"`
	Series      forecast.Model `json:"series_model"`
	Uncertainty Uncertainty    `json:"uncertainty"`
}

// TablePrint writes a human readable summary of the model
func (m Model) TablePrint(w io.Writer) error {
	prefix := ""
	indent := "  "
	if _, err := fmt.Fprintf(w, "Series:\n"); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w, prefix+indent, indent); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Uncertainty:\n%sResidual StdDev: %.3f    DoF: %d    Z: %.3f    Trend StdDev/day: %.3f\n",
		indent, m.Uncertainty.ResidualStdDev, m.Uncertainty.DegreesOfFreedom, m.Uncertainty.Zscore, m.Uncertainty.TrendStdDev); err != nil {
		return err
	}
	return nil
}
