// Package plot renders forecast responses as echarts html pages
package plot

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/aouyang1/go-forecast-api/pipeline"
)

var ErrNoResponse = errors.New("no forecast response to plot")

// LineForecast plots the actual values along with the predicted, upper and lower values of the
// historical and forecast rows on a shared date axis
func LineForecast(resp *pipeline.ForecastResponse) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title:    "Forecast",
				Subtitle: resp.Label,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	n := len(resp.Historical) + len(resp.Forecast)
	dates := make([]string, 0, n)
	lineDataActual := make([]opts.LineData, 0, len(resp.Historical))
	lineDataForecast := make([]opts.LineData, 0, n)
	lineDataUpper := make([]opts.LineData, 0, n)
	lineDataLower := make([]opts.LineData, 0, n)

	for _, p := range resp.Historical {
		dates = append(dates, p.Date)
		lineDataActual = append(lineDataActual, opts.LineData{Value: p.Actual})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: p.Predicted})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: p.Upper})
		lineDataLower = append(lineDataLower, opts.LineData{Value: p.Lower})
	}
	for _, p := range resp.Forecast {
		dates = append(dates, p.Date)
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: p.Predicted})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: p.Upper})
		lineDataLower = append(lineDataLower, opts.LineData{Value: p.Lower})
	}

	line.SetXAxis(dates).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

// LineResidual plots actual minus predicted over the historical rows
func LineResidual(resp *pipeline.ForecastResponse) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Forecast Residual",
			},
		),
	)

	dates := make([]string, 0, len(resp.Historical))
	lineData := make([]opts.LineData, 0, len(resp.Historical))
	for _, p := range resp.Historical {
		dates = append(dates, p.Date)
		lineData = append(lineData, opts.LineData{Value: p.Actual - p.Predicted})
	}

	line.SetXAxis(dates).AddSeries("Residual", lineData)
	return line
}

// Render writes an html page with the forecast and residual charts
func Render(w io.Writer, resp *pipeline.ForecastResponse) error {
	if resp == nil {
		return ErrNoResponse
	}

	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s forecast", resp.Label))
	page.AddCharts(
		LineForecast(resp),
		LineResidual(resp),
	)
	return page.Render(w)
}
