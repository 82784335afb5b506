package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/coinlens/coinlens/internal/observability"
)

func TestTracingProvidesTraceIDs(t *testing.T) {
	require.Empty(t, observability.TraceID(context.Background()))

	observability.InitTracing("coinlens-test", "0.0.0")
	t.Cleanup(func() { _ = observability.ShutdownTracing(context.Background()) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	id := observability.TraceID(ctx)
	require.Len(t, id, 32)
}
