// Package server exposes the forecast pipeline over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aouyang1/go-forecast-api/metrics"
	"github.com/aouyang1/go-forecast-api/pipeline"
)

const (
	ServiceName = "Forecast API"
	Version     = "1.0.0"

	DefaultMetricsPath = "/metrics"
)

// Option configures Server
type Option func(*Server)

// Server wraps an echo server serving forecasts from a pipeline
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	validate *validator.Validate

	logger   zerolog.Logger
	recorder *metrics.Recorder
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter

	host            string
	port            int
	allowedOrigins  []string
	metricsPath     string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
}

func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithTimeouts sets the read, write and graceful shutdown timeouts
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
		s.shutdownTimeout = shutdown
	}
}

// WithAllowedOrigins sets the CORS allowed origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithRateLimit limits forecast requests across all clients to limit per second with the
// given burst. A limit of 0 disables rate limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(s *Server) {
		if limit <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request metrics with r and serves g on path. A nil gatherer disables
// the scrape endpoint.
func WithMetrics(r *metrics.Recorder, g prometheus.Gatherer, path string) Option {
	return func(s *Server) {
		s.recorder = r
		s.gatherer = g
		if path != "" {
			s.metricsPath = path
		}
	}
}

// New creates a server running forecasts through p
func New(p *pipeline.Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline:        p,
		validate:        newValidator(),
		logger:          zerolog.Nop(),
		host:            "0.0.0.0",
		port:            8000,
		allowedOrigins:  []string{"*"},
		metricsPath:     DefaultMetricsPath,
		readTimeout:     30 * time.Second,
		writeTimeout:    90 * time.Second,
		shutdownTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = s.handleError
	e.Server.ReadTimeout = s.readTimeout
	e.Server.WriteTimeout = s.writeTimeout

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(s.logger))
	e.Use(recordMetrics(s.recorder))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Bytes("stack", stack).
				Msg("recovered from panic")
			return err
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.allowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
		},
	}))

	e.GET("/", s.root)
	e.GET("/health", s.health)
	forecast := e.Group("/forecast", rateLimit(s.limiter, s.recorder))
	forecast.POST("", s.forecast)
	forecast.POST("/plot", s.plot)
	if s.gatherer != nil {
		e.GET(s.metricsPath, echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.echo = e
	return s
}

// Echo returns the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// ListenAndServe serves until ctx is done and then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr()).Msg("http server listening")
		if err := s.echo.Start(s.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("unable to shutdown http server, %w", err)
	}
	s.logger.Info().Msg("http server stopped gracefully")
	return nil
}
