package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRequest("/forecast", http.MethodPost, http.StatusOK, 10*time.Millisecond)
	r.RecordRequest("/forecast", http.MethodPost, http.StatusOK, 20*time.Millisecond)
	r.RecordRequest("/forecast", http.MethodPost, http.StatusBadRequest, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues("/forecast", http.MethodPost, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues("/forecast", http.MethodPost, "400")))

	r.FitStarted()
	r.FitStarted()
	r.FitFinished()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fitsInFlight))

	r.RecordRejection("overloaded")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejectionsTotal.WithLabelValues("overloaded")))

	r.ObserveStage("fit", time.Second)
	assert.Equal(t, 1, testutil.CollectAndCount(r.stageDuration))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
		r.ObserveStage("fit", time.Millisecond)
		r.FitStarted()
		r.FitFinished()
		r.RecordRejection("timeout")
	})
}
