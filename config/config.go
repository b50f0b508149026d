// Package config loads the service configuration from an optional YAML file, a .env file
// and FORECAST_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aouyang1/go-forecast-api/forecast/options"
	"github.com/aouyang1/go-forecast-api/logger"
	"github.com/aouyang1/go-forecast-api/pipeline"
	"github.com/aouyang1/go-forecast-api/telemetry"
)

const EnvPrefix = "FORECAST"

var (
	ErrInvalidPort     = errors.New("port must be within [1, 65535]")
	ErrInvalidPolicy   = errors.New("policy must be canonical or legacy")
	ErrInvalidLimit    = errors.New("limit must be non-negative")
	ErrInvalidInterval = errors.New("interval width must be within (0, 1)")
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Forecast  ForecastConfig   `mapstructure:"forecast"`
	Log       logger.Config    `mapstructure:"log"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RateLimit is the sustained requests per second across all clients. 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsPath    string `mapstructure:"metrics_path"`
}

type ForecastConfig struct {
	// Policy is canonical or legacy. Floor, FloorFraction and DailySeasonality override the
	// policy when set.
	Policy           string   `mapstructure:"policy"`
	Floor            string   `mapstructure:"floor"`
	FloorFraction    *float64 `mapstructure:"floor_fraction"`
	DailySeasonality *bool    `mapstructure:"daily_seasonality"`

	IntervalWidth     float64 `mapstructure:"interval_width"`
	MinObservations   int     `mapstructure:"min_observations"`
	MaxHorizon        int     `mapstructure:"max_horizon"`
	DefaultMetricName string  `mapstructure:"default_metric_name"`

	Holidays      []string `mapstructure:"holidays"`
	OutlierPasses int      `mapstructure:"outlier_passes"`

	MaxConcurrentFits int           `mapstructure:"max_concurrent_fits"`
	QueueTimeout      time.Duration `mapstructure:"queue_timeout"`
	FitTimeout        time.Duration `mapstructure:"fit_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.metrics_path", "/metrics")

	v.SetDefault("forecast.policy", "canonical")
	v.SetDefault("forecast.floor", "")
	v.SetDefault("forecast.interval_width", pipeline.DefaultIntervalWidth)
	v.SetDefault("forecast.min_observations", pipeline.MinObservations)
	v.SetDefault("forecast.max_horizon", pipeline.DefaultMaxHorizon)
	v.SetDefault("forecast.default_metric_name", pipeline.DefaultMetricName)
	v.SetDefault("forecast.holidays", []string{})
	v.SetDefault("forecast.outlier_passes", 0)
	v.SetDefault("forecast.max_concurrent_fits", 0)
	v.SetDefault("forecast.queue_timeout", pipeline.DefaultQueueTimeout.String())
	v.SetDefault("forecast.fit_timeout", pipeline.DefaultFitTimeout.String())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
}

// Load reads the configuration. A missing .env or config file is not an error unless path
// names the config file explicitly. PORT is honoured for the listen port.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env, %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}
	for _, key := range []string{"forecast.floor_fraction", "forecast.daily_seasonality"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s, %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("unable to read config, %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("got %d, %w", c.Server.Port, ErrInvalidPort)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("rate limit %v burst %d, %w", c.Server.RateLimit, c.Server.RateBurst, ErrInvalidLimit)
	}
	if c.Forecast.MaxConcurrentFits < 0 || c.Forecast.OutlierPasses < 0 || c.Forecast.MaxHorizon < 0 {
		return fmt.Errorf("max concurrent fits %d, outlier passes %d, max horizon %d, %w",
			c.Forecast.MaxConcurrentFits, c.Forecast.OutlierPasses, c.Forecast.MaxHorizon, ErrInvalidLimit)
	}
	if c.Forecast.MinObservations < pipeline.MinObservations || c.Forecast.MaxHorizon < 1 {
		return fmt.Errorf("min observations %d, max horizon %d, %w",
			c.Forecast.MinObservations, c.Forecast.MaxHorizon, ErrInvalidLimit)
	}
	if w := c.Forecast.IntervalWidth; w <= 0 || w >= 1 {
		return fmt.Errorf("got %v, %w", w, ErrInvalidInterval)
	}
	if _, err := c.Forecast.PipelinePolicy(); err != nil {
		return err
	}
	if _, err := logger.NewWithWriter(c.Log, io.Discard); err != nil {
		return err
	}
	if len(c.Forecast.Holidays) > 0 {
		if _, err := options.HolidayEvents(c.Forecast.Holidays, time.Now(), time.Now(), 0, 0); err != nil {
			return fmt.Errorf("%w, supported holidays are %s", err, strings.Join(options.HolidayNames(), ", "))
		}
	}
	return nil
}

// PipelinePolicy resolves the named policy and applies any overrides
func (f ForecastConfig) PipelinePolicy() (pipeline.Policy, error) {
	var policy pipeline.Policy
	switch strings.ToLower(strings.TrimSpace(f.Policy)) {
	case "canonical", "":
		policy = pipeline.CanonicalPolicy()
	case "legacy":
		policy = pipeline.LegacyPolicy()
	default:
		return pipeline.Policy{}, fmt.Errorf("got %q, %w", f.Policy, ErrInvalidPolicy)
	}

	if f.Floor != "" || f.FloorFraction != nil {
		floorName := f.Floor
		if floorName == "" {
			floorName = policy.Floor.String()
			if _, ok := policy.Floor.(pipeline.SoftFloor); ok {
				floorName = "soft"
			}
		}
		fraction := pipeline.DefaultFloorFraction
		if f.FloorFraction != nil {
			fraction = *f.FloorFraction
		}
		floor, err := pipeline.ParseFloorPolicy(floorName, fraction)
		if err != nil {
			return pipeline.Policy{}, err
		}
		policy.Floor = floor
	}
	if f.DailySeasonality != nil {
		policy.DailySeasonality = *f.DailySeasonality
	}
	if f.IntervalWidth > 0 {
		policy.IntervalWidth = f.IntervalWidth
	}
	return policy, nil
}
