package estimate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/coinlens/coinlens/internal/ailink/prompt"
	"github.com/coinlens/coinlens/internal/imaging"
	"github.com/coinlens/coinlens/internal/metrics"
)

// Config holds estimation settings.
type Config struct {
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxImageBytes int           `mapstructure:"max_image_bytes" validate:"gt=0"`
	MaxImageEdge  int           `mapstructure:"max_image_edge" validate:"gte=64"`
	// MaxImagePixels caps width*height of uploaded photos before decoding.
	MaxImagePixels int `mapstructure:"max_image_pixels" validate:"gt=0"`
	// PromptRole routes model calls to an ailink provider. Empty routes by prompt slug.
	PromptRole string `mapstructure:"prompt_role"`
	// Model overrides provider and prompt model selection.
	Model string `mapstructure:"model"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Timeout:        60 * time.Second,
		MaxImageBytes:  DefaultMaxImageBytes,
		MaxImageEdge:   1024,
		MaxImagePixels: imaging.DefaultMaxPixels,
		PromptRole:     "coin-estimate",
	}
}

// Options wires a Service.
type Options struct {
	Config    Config
	Estimator Estimator
	Prompts   prompt.Registry
	Logger    *logging.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// RawCaptureLimit bounds raw payloads kept on schema failures. Zero disables.
	RawCaptureLimit int
}

// Service is the estimation entry point: validate, compose, execute.
type Service struct {
	cfg       Config
	validator *Validator
	composer  *Composer
	executor  *Executor
	logger    *logging.Logger
	now       func() time.Time
}

// NewService builds a Service from explicit dependencies.
func NewService(opts Options) (*Service, error) {
	if opts.Estimator == nil {
		return nil, errors.New("estimator is required")
	}
	if opts.Prompts == nil {
		return nil, errors.New("prompt registry is required")
	}
	if err := prompt.Require(opts.Prompts, AttributesPromptSlug, ImagePromptSlug); err != nil {
		return nil, err
	}

	cfg := opts.Config
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaults.MaxImageBytes
	}
	if cfg.MaxImageEdge <= 0 {
		cfg.MaxImageEdge = defaults.MaxImageEdge
	}
	if cfg.MaxImagePixels <= 0 {
		cfg.MaxImagePixels = defaults.MaxImagePixels
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	validator, err := NewValidator(WithClock(now), WithMaxImageBytes(cfg.MaxImageBytes))
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:       cfg,
		validator: validator,
		composer:  NewComposer(opts.Prompts),
		executor:  NewExecutor(opts.Estimator, validator, cfg.PromptRole, cfg.Model, opts.RawCaptureLimit, opts.Logger),
		logger:    opts.Logger,
		now:       now,
	}, nil
}

// Config returns the effective settings.
func (s *Service) Config() Config {
	return s.cfg
}

// Validator exposes the input validator, e.g. for CLI pre-checks.
func (s *Service) Validator() *Validator {
	return s.validator
}

// Catalog returns the coin-type catalog.
func (s *Service) Catalog() []Denomination {
	return Catalog()
}

// EstimateByAttributes estimates from type, year and optional condition.
func (s *Service) EstimateByAttributes(ctx context.Context, in AttributeInput) (*EstimationResult, error) {
	start := s.now()
	req, err := s.validator.ValidateAttributes(in)
	if err != nil {
		return nil, s.finish("attributes", start, nil, err)
	}
	result, err := s.run(ctx, req)
	return result, s.finish("attributes", start, result, err)
}

// EstimateByImage estimates from a photo plus the attribute hints.
func (s *Service) EstimateByImage(ctx context.Context, in ImageInput) (*EstimationResult, error) {
	start := s.now()
	req, err := s.validator.ValidateImage(in)
	if err != nil {
		return nil, s.finish("image", start, nil, err)
	}
	result, err := s.run(ctx, req)
	return result, s.finish("image", start, result, err)
}

func (s *Service) run(ctx context.Context, req EstimationRequest) (*EstimationResult, error) {
	p, err := s.composer.Compose(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	return s.executor.Execute(ctx, p)
}

func (s *Service) finish(kind string, start time.Time, result *EstimationResult, err error) error {
	duration := s.now().Sub(start)
	outcome := metrics.OutcomeSuccess
	variants := 0

	var (
		verr   *ValidationError
		failed *EstimationFailed
	)
	switch {
	case err == nil:
		variants = len(result.Variants)
	case errors.As(err, &verr):
		outcome = metrics.OutcomeInvalid
	case errors.As(err, &failed) && failed.Stage == StageSchema:
		outcome = metrics.OutcomeSchemaError
	default:
		outcome = metrics.OutcomeProviderError
	}
	metrics.RecordEstimate(kind, outcome, duration, variants)
	if failed != nil {
		metrics.RecordEstimateFailure(string(failed.Stage), failed.Code)
	}

	if s.logger != nil {
		fields := []zap.Field{
			zap.String("kind", kind),
			zap.String("outcome", outcome),
			zap.Duration("duration", duration),
		}
		switch {
		case err == nil:
			fields = append(fields, zap.Int("variants", variants), zap.String("confidence", result.Confidence))
			s.logger.Info("Estimate completed", fields...)
		case failed != nil:
			fields = append(fields, zap.String("stage", string(failed.Stage)), zap.String("code", failed.Code), zap.Error(err))
			s.logger.Warn("Estimate failed", fields...)
		case verr != nil:
			fields = append(fields, zap.Int("violations", len(verr.Violations)))
			s.logger.Debug("Estimate rejected", fields...)
		default:
			fields = append(fields, zap.Error(err))
			s.logger.Error("Estimate failed", fields...)
		}
	}

	if err != nil && failed == nil && verr == nil {
		return fmt.Errorf("estimate %s: %w", kind, err)
	}
	return err
}
