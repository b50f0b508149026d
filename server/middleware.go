package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aouyang1/go-forecast-api/metrics"
)

func requestLogger(l zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError:  true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			var e *zerolog.Event
			switch {
			case v.Status >= 500:
				e = l.Error().Err(v.Error)
			case v.Status >= 400:
				e = l.Warn().Err(v.Error)
			default:
				e = l.Info()
			}
			e.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("remote_ip", v.RemoteIP).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// recordMetrics counts requests by route template so unmatched paths share one label
func recordMetrics(r *metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			r.RecordRequest(route, c.Request().Method, c.Response().Status, time.Since(start))
			return err
		}
	}
}

// rateLimit rejects requests beyond the limiter's rate with ErrRateLimited. A nil limiter
// admits everything.
func rateLimit(limiter *rate.Limiter, r *metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter != nil && !limiter.Allow() {
				r.RecordRejection("rate_limited")
				return ErrRateLimited
			}
			return next(c)
		}
	}
}
