package main

import (
	"fmt"
	"strings"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aouyang1/go-forecast-api/config"
	"github.com/aouyang1/go-forecast-api/logger"
	"github.com/aouyang1/go-forecast-api/metrics"
	"github.com/aouyang1/go-forecast-api/pipeline"
	"github.com/aouyang1/go-forecast-api/server"
)

// app holds what every subcommand needs once the persistent flags are parsed
type app struct {
	configPath  string
	profileMode string
	profilePath string

	cfg      *config.Config
	log      zerolog.Logger
	profiler interface{ Stop() }
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "forecastd",
		Short:         "Daily time series forecasting service",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.profiler != nil {
				a.profiler.Stop()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml), defaults to ./config.yaml or ./configs/config.yaml when present")
	cmd.PersistentFlags().StringVar(&a.profileMode, "profile", "", "write a cpu or mem profile")
	cmd.PersistentFlags().StringVar(&a.profilePath, "profile-path", ".", "directory to write profiles to")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newRunCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log
	logger.SetSlogDefault(log)

	switch strings.ToLower(a.profileMode) {
	case "":
	case "cpu":
		a.profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(a.profilePath), profile.NoShutdownHook, profile.Quiet)
	case "mem":
		a.profiler = profile.Start(profile.MemProfile, profile.ProfilePath(a.profilePath), profile.NoShutdownHook, profile.Quiet)
	default:
		return fmt.Errorf("unknown profile mode %q, expected cpu or mem", a.profileMode)
	}
	return nil
}

// pipeline builds the forecast pipeline described by the loaded configuration
func (a *app) pipeline(recorder *metrics.Recorder, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	fc := a.cfg.Forecast

	policy, err := fc.PipelinePolicy()
	if err != nil {
		return nil, err
	}

	configurator := pipeline.NewConfigurator()
	configurator.Holidays = fc.Holidays
	configurator.OutlierPasses = fc.OutlierPasses

	base := []pipeline.Option{
		pipeline.WithValidator(&pipeline.Validator{
			MinObservations: fc.MinObservations,
			MaxHorizon:      fc.MaxHorizon,
		}),
		pipeline.WithPolicy(policy),
		pipeline.WithConfigurator(configurator),
		pipeline.WithPool(pipeline.NewPool(fc.MaxConcurrentFits, fc.QueueTimeout, fc.FitTimeout, recorder)),
		pipeline.WithMetricName(fc.DefaultMetricName),
		pipeline.WithLogger(a.log),
		pipeline.WithRecorder(recorder),
	}
	return pipeline.New(append(base, opts...)...), nil
}
