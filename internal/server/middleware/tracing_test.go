package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinlens/coinlens/internal/observability"
)

func TestTracingAttachesSpan(t *testing.T) {
	observability.InitTracing("coinlens-test", "test")
	t.Cleanup(func() { _ = observability.ShutdownTracing(context.Background()) })

	var traceID string
	handler := RequestID(Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = observability.TraceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/coins", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, traceID, 32)
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRecoveryHidesPanicDetails(t *testing.T) {
	handler := RequestID(Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("secret state")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret state")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	require.Equal(t, rec.Header().Get(RequestIDHeader), body.Error.RequestID)
}
