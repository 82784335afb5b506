package estimate

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/coinlens/coinlens/internal/ailink"
)

// Schema-stage failure codes.
const (
	CodeEmptyResponse   = "EMPTY_RESPONSE"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeSchemaViolation = "SCHEMA_VIOLATION"
)

const tracerName = "github.com/coinlens/coinlens/internal/estimate"

// Estimator is the generative-model capability. *ailink.Service implements it.
type Estimator interface {
	Complete(ctx context.Context, req ailink.CompletionRequest) (*ailink.CompletionResponse, error)
}

// Executor performs exactly one estimator call per prompt and validates the answer.
type Executor struct {
	estimator Estimator
	validator *Validator
	role      string
	model     string
	rawLimit  int
	logger    *logging.Logger
}

// NewExecutor builds an executor. role and model are passed through to the
// estimator for provider routing; either may be empty.
func NewExecutor(estimator Estimator, validator *Validator, role, model string, rawLimit int, logger *logging.Logger) *Executor {
	return &Executor{
		estimator: estimator,
		validator: validator,
		role:      role,
		model:     model,
		rawLimit:  rawLimit,
		logger:    logger,
	}
}

// Execute sends the prompt and returns a validated result. On failure it
// returns *EstimationFailed and no result.
func (e *Executor) Execute(ctx context.Context, p *Prompt) (*EstimationResult, error) {
	if e == nil || e.estimator == nil || e.validator == nil {
		return nil, &EstimationFailed{Stage: StageProvider, Code: ailink.CodeNotConfigured, Err: errors.New("estimator not configured")}
	}
	if p == nil {
		return nil, fmt.Errorf("prompt is required")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "estimate.execute",
		trace.WithAttributes(
			attribute.String("estimate.prompt", p.Slug),
			attribute.Int("estimate.images", len(p.Images)),
		),
	)
	defer span.End()

	resp, err := e.estimator.Complete(ctx, ailink.CompletionRequest{
		Role:           e.role,
		PromptSlug:     p.Slug,
		Model:          e.model,
		System:         p.System,
		User:           p.User,
		Images:         p.Images,
		ResponseSchema: p.ResponseSchema,
		Temperature:    p.Temperature,
	})
	if err != nil {
		failure := ailink.MapProviderError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, failure.Code)
		return nil, &EstimationFailed{Stage: StageProvider, Code: failure.Code, Err: err}
	}
	if resp == nil {
		resp = &ailink.CompletionResponse{}
	}

	span.SetAttributes(
		attribute.String("ailink.provider", resp.ProviderID),
		attribute.String("ailink.model", resp.Model),
	)
	if e.logger != nil {
		fields := []zap.Field{
			zap.String("prompt", p.Slug),
			zap.String("provider", resp.ProviderID),
			zap.String("model", resp.Model),
			zap.String("finish_reason", resp.FinishReason),
		}
		if resp.Usage != nil {
			fields = append(fields, zap.Int("total_tokens", resp.Usage.TotalTokens))
		}
		e.logger.Debug("Model call completed", fields...)
	}

	result, err := e.validator.ValidateResult([]byte(resp.Text))
	if err != nil {
		failed := &EstimationFailed{
			Stage: StageSchema,
			Code:  CodeSchemaViolation,
			Raw:   ailink.TruncateRaw([]byte(resp.Text), e.rawLimit),
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			failed.Violations = verr.Violations
			failed.Code = schemaFailureCode(verr.Violations)
		} else {
			failed.Err = err
		}
		span.SetStatus(codes.Error, failed.Code)
		return nil, failed
	}

	span.SetAttributes(attribute.Int("estimate.variants", len(result.Variants)))
	return result, nil
}

func schemaFailureCode(violations []SchemaViolation) string {
	if len(violations) == 1 && violations[0].Field == "$" {
		switch violations[0].Constraint {
		case "required":
			return CodeEmptyResponse
		case "json":
			return CodeInvalidJSON
		}
	}
	return CodeSchemaViolation
}
