package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aouyang1/go-forecast-api/metrics"
	"github.com/aouyang1/go-forecast-api/server"
	"github.com/aouyang1/go-forecast-api/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve forecasts over HTTP until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := telemetry.Init(ctx, a.cfg.Telemetry)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(cmd.Context()); err != nil {
					a.log.Error().Err(err).Msg("unable to flush traces")
				}
			}()

			sc := a.cfg.Server
			opts := []server.Option{
				server.WithHost(sc.Host),
				server.WithPort(sc.Port),
				server.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout, sc.ShutdownTimeout),
				server.WithAllowedOrigins(sc.AllowedOrigins),
				server.WithRateLimit(sc.RateLimit, sc.RateBurst),
				server.WithLogger(a.log),
			}

			var recorder *metrics.Recorder
			if sc.MetricsEnabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				recorder = metrics.New(reg)
				opts = append(opts, server.WithMetrics(recorder, reg, sc.MetricsPath))
			}

			p, err := a.pipeline(recorder)
			if err != nil {
				return err
			}

			a.log.Info().
				Str("policy", a.cfg.Forecast.Policy).
				Str("floor", p.Policy().Floor.String()).
				Bool("daily_seasonality", p.Policy().DailySeasonality).
				Msg("starting forecast service")
			return server.New(p, opts...).ListenAndServe(ctx)
		},
	}
}
