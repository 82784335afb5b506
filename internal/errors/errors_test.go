package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinlens/coinlens/internal/estimate"
)

func TestFromEstimateErrorValidation(t *testing.T) {
	err := &estimate.ValidationError{Violations: []estimate.SchemaViolation{
		{Field: "mintYear", Constraint: "pattern", Message: "mint year must be four digits"},
	}}

	env := FromEstimateError(context.Background(), err)
	require.Equal(t, CodeValidationFailed, env.Code)
	require.Equal(t, http.StatusBadRequest, HTTPStatusFromEnvelope(env))
	require.Contains(t, ResponseDetails(env), "violations")
	require.NotEmpty(t, env.CorrelationID)
}

func TestFromEstimateErrorFailureHidesDiagnostics(t *testing.T) {
	failed := &estimate.EstimationFailed{
		Stage:      estimate.StageSchema,
		Code:       estimate.CodeSchemaViolation,
		Violations: []estimate.SchemaViolation{{Field: "variants.0.weight", Constraint: "required"}},
		Raw:        json.RawMessage(`{"variants":[{}]}`),
	}

	env := FromEstimateError(context.Background(), fmt.Errorf("estimate: %w", failed))
	require.Equal(t, CodeEstimationUnavailable, env.Code)
	require.Equal(t, EstimationUnavailableMessage, env.Message)
	require.Equal(t, http.StatusBadGateway, HTTPStatusFromEnvelope(env))
	require.Nil(t, ResponseDetails(env))
	require.Equal(t, "schema", env.Context["stage"])
	require.Equal(t, estimate.CodeSchemaViolation, env.Context["failure_code"])
}

func TestFromEstimateErrorUnknown(t *testing.T) {
	env := FromEstimateError(context.Background(), errors.New("prompt registry not configured"))
	require.Equal(t, CodeEstimationUnavailable, env.Code)
	require.Nil(t, FromEstimateError(context.Background(), nil))
}

func TestRespondWithEnvelopeBody(t *testing.T) {
	failed := &estimate.EstimationFailed{Stage: estimate.StageProvider, Code: "AILINK_PROVIDER_AUTH", Err: errors.New("api key sk-123 rejected")}

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates/attributes", nil)
	rec := httptest.NewRecorder()
	RespondWithEnvelope(rec, req, FromEstimateError(req.Context(), failed))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NotContains(t, rec.Body.String(), "sk-123")
	require.NotContains(t, rec.Body.String(), "provider")

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, CodeEstimationUnavailable, body.Error.Code)
	require.Equal(t, "estimation unavailable", body.Error.Message)
	require.NotEmpty(t, body.Error.RequestID)
}

func TestRespondWithErrorMapsEstimateErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    &estimate.ValidationError{Violations: []estimate.SchemaViolation{{Field: "coinType", Constraint: "required"}}},
			status: http.StatusBadRequest,
			code:   CodeValidationFailed,
		},
		{
			name:   "wrapped failure",
			err:    fmt.Errorf("estimate: %w", &estimate.EstimationFailed{Stage: estimate.StageProvider, Code: "AILINK_PROVIDER_AUTH", Err: errors.New("api key sk-123 rejected")}),
			status: http.StatusBadGateway,
			code:   CodeEstimationUnavailable,
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/estimates/image", nil)
			rec := httptest.NewRecorder()
			RespondWithError(rec, req, tt.err)

			require.Equal(t, tt.status, rec.Code)
			require.NotContains(t, rec.Body.String(), "sk-123")
			var body HTTPErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestEnvelopeForKeepsEnvelopes(t *testing.T) {
	original := NewNotFoundError("missing")
	require.Same(t, original, EnvelopeFor(context.Background(), fmt.Errorf("wrapped: %w", original)))
	require.Equal(t, CodeValidationFailed, EnvelopeFor(context.Background(), &estimate.ValidationError{}).Code)
}

func TestEnsureEnvelope(t *testing.T) {
	env := EnsureEnvelope(errors.New("boom"))
	require.Equal(t, CodeInternal, env.Code)
	require.Nil(t, ResponseDetails(env))

	original := NewNotFoundError("missing")
	require.Same(t, original, EnsureEnvelope(fmt.Errorf("wrapped: %w", original)))

	require.Equal(t, CodeInternal, EnsureEnvelope(nil).Code)
}

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		CodeInvalidInput:          http.StatusBadRequest,
		CodeValidationFailed:      http.StatusBadRequest,
		CodeNotFound:              http.StatusNotFound,
		CodeMethodNotAllowed:      http.StatusMethodNotAllowed,
		CodePayloadTooLarge:       http.StatusRequestEntityTooLarge,
		CodeUnsupportedMediaType:  http.StatusUnsupportedMediaType,
		CodeEstimationUnavailable: http.StatusBadGateway,
		CodeServiceUnavailable:    http.StatusServiceUnavailable,
		"SOMETHING_ELSE":          http.StatusInternalServerError,
	}
	for code, status := range cases {
		require.Equal(t, status, HTTPStatusFromCode(code), code)
	}
}
