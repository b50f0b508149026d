// Package metrics records service metrics with Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "forecast"

// Recorder collects request, pipeline stage and fit admission metrics. A nil Recorder is valid
// and records nothing.
type Recorder struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	fitsInFlight    prometheus.Gauge
	rejectionsTotal *prometheus.CounterVec
}

// New registers the service metrics with reg
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route", "method"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_stage_duration_seconds",
				Help:      "Duration of each forecast pipeline stage in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		fitsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fits_in_flight",
				Help:      "Current number of model fits holding a worker slot",
			},
		),
		rejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_rejections_total",
				Help:      "Total number of forecasts rejected before or during the fit",
			},
			[]string{"reason"},
		),
	}
}

// RecordRequest records a served HTTP request
func (r *Recorder) RecordRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ObserveStage records the duration of a pipeline stage
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Recorder) FitStarted() {
	if r == nil {
		return
	}
	r.fitsInFlight.Inc()
}

func (r *Recorder) FitFinished() {
	if r == nil {
		return
	}
	r.fitsInFlight.Dec()
}

// RecordRejection counts a forecast that was refused, e.g. "overloaded" or "timeout"
func (r *Recorder) RecordRejection(reason string) {
	if r == nil {
		return
	}
	r.rejectionsTotal.WithLabelValues(reason).Inc()
}
