// Package pipeline turns a forecast request into a forecast response. The request is
// validated, a seasonality policy is derived from the history, the engine is configured,
// fitted and queried, and the estimates are floored and assembled.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	forecaster "github.com/aouyang1/go-forecast-api"
	"github.com/aouyang1/go-forecast-api/metrics"
	"github.com/aouyang1/go-forecast-api/timedataset"
)

const tracerName = "github.com/aouyang1/go-forecast-api/pipeline"

type Option func(*Pipeline)

// Pipeline holds no per request state and may serve concurrent requests
type Pipeline struct {
	validator    *Validator
	policy       Policy
	configurator *Configurator
	engine       Engine
	pool         *Pool

	metricName string
	explain    io.Writer

	logger   zerolog.Logger
	recorder *metrics.Recorder
	tracer   trace.Tracer
}

// New creates a pipeline with the canonical policy and the forecaster engine unless
// overridden by opts
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		validator:    NewValidator(),
		policy:       CanonicalPolicy(),
		configurator: NewConfigurator(),
		engine:       ForecasterEngine{},
		metricName:   DefaultMetricName,
		logger:       zerolog.Nop(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.policy.Floor == nil {
		p.policy.Floor = SoftFloor{Fraction: DefaultFloorFraction}
	}
	if p.pool == nil {
		p.pool = NewPool(0, DefaultQueueTimeout, DefaultFitTimeout, p.recorder)
	}
	return p
}

func WithValidator(v *Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

func WithPolicy(policy Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

func WithConfigurator(c *Configurator) Option {
	return func(p *Pipeline) { p.configurator = c }
}

func WithEngine(e Engine) Option {
	return func(p *Pipeline) { p.engine = e }
}

func WithPool(pool *Pool) Option {
	return func(p *Pipeline) { p.pool = pool }
}

// WithMetricName sets the label used when a request has none
func WithMetricName(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.metricName = name
		}
	}
}

// WithExplain writes a description of every fitted model to w
func WithExplain(w io.Writer) Option {
	return func(p *Pipeline) { p.explain = w }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithRecorder(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// Policy returns the policy the pipeline derives model settings with
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// Run produces the forecast for req. Nothing is returned unless every step succeeds.
func (p *Pipeline) Run(ctx context.Context, req ForecastRequest) (*ForecastResponse, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	resp, err := p.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, req ForecastRequest) (*ForecastResponse, error) {
	if req.Horizon == 0 {
		req.Horizon = DefaultHorizon
	}
	if req.Label == "" {
		req.Label = p.metricName
	}
	log := p.logger.With().Str("metric", req.Label).Logger()

	var series *timedataset.TimeDataset
	err := p.stage(ctx, "validate", func(ctx context.Context) error {
		var err error
		series, err = p.validator.Validate(req)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Int("observations", len(req.Observations)).Msg("rejected forecast request")
		return nil, err
	}

	floor := p.policy.Floor.Floor(series.Y)
	cfg := p.policy.Derive(series)
	ts := timedataset.TimeSlice(series.T)
	log.Info().
		Int("observations", series.Len()).
		Str("start", timedataset.FormatDate(ts.StartTime())).
		Str("end", timedataset.FormatDate(ts.EndTime())).
		Float64("min", floats.Min(series.Y)).
		Float64("max", floats.Max(series.Y)).
		Int("span_days", series.SpanDays()).
		Bool("yearly", cfg.EnableYearly).
		Bool("daily", cfg.EnableDaily).
		Str("floor_policy", p.policy.Floor.String()).
		Float64("floor", floor).
		Int("horizon", req.Horizon).
		Msg("forecasting series")

	opt, err := p.configurator.Configure(cfg, series, req.Horizon)
	if err != nil {
		return nil, err
	}

	var res *forecaster.Results
	err = p.pool.Do(ctx, func() error {
		var err error
		res, err = p.fitPredict(ctx, opt, series, req.Horizon)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("forecast failed")
		return nil, err
	}

	var resp *ForecastResponse
	err = p.stage(ctx, "assemble", func(ctx context.Context) error {
		var err error
		resp, err = Assemble(series, res, req.Horizon, floor, req.Label)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("unable to assemble forecast")
		return nil, err
	}

	log.Info().
		Int("historical", len(resp.Historical)).
		Int("forecast", len(resp.Forecast)).
		Msg("forecast complete")
	return resp, nil
}

func (p *Pipeline) fitPredict(ctx context.Context, opt *forecaster.Options, series *timedataset.TimeDataset, horizon int) (*forecaster.Results, error) {
	model, err := p.engine.New(opt)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrEngineInitialization, err)
	}

	err = p.stage(ctx, "fit", func(ctx context.Context) error {
		if err := model.Fit(series.T, series.Y); err != nil {
			return fmt.Errorf("%w, %w", ErrFit, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.explain != nil {
		if err := model.Describe(p.explain); err != nil {
			p.logger.Warn().Err(err).Msg("unable to describe model")
		}
	}

	var res *forecaster.Results
	err = p.stage(ctx, "predict", func(ctx context.Context) error {
		var err error
		res, err = model.Predict(horizon)
		if err != nil {
			return fmt.Errorf("%w, %w", ErrPredict, err)
		}
		return nil
	})
	return res, err
}

// stage runs fn in its own span and records its duration
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.recorder.ObserveStage(name, time.Since(start))

	span.SetAttributes(attribute.Bool("error", err != nil))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
