package metrics

import (
	"time"

	"github.com/coinlens/coinlens/internal/observability"
)

// Estimation metrics
const (
	EstimateRequestsTotal = "estimate_requests_total"
	EstimateDuration      = "estimate_duration_ms"
	EstimateVariants      = "estimate_variants"
)

// Estimate outcomes
const (
	OutcomeSuccess       = "success"
	OutcomeInvalid       = "invalid"
	OutcomeProviderError = "provider_error"
	OutcomeSchemaError   = "schema_error"
)

// RecordEstimate records one estimation call. kind is "attributes" or "image".
func RecordEstimate(kind, outcome string, duration time.Duration, variants int) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		EstimateRequestsTotal,
		1,
		map[string]string{
			"kind":    kind,
			"outcome": outcome,
		},
	)

	if outcome == OutcomeInvalid {
		return
	}

	_ = observability.TelemetrySystem.Histogram(
		EstimateDuration,
		duration,
		map[string]string{
			"kind": kind,
		},
	)

	if outcome == OutcomeSuccess {
		_ = observability.TelemetrySystem.Gauge(
			EstimateVariants,
			float64(variants),
			map[string]string{
				"kind": kind,
			},
		)
	}
}
