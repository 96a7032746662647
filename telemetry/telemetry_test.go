package telemetry_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/next-trace/scg-cqrs/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	tp, shutdown, err := telemetry.Setup(t.Context(), telemetry.Config{Enabled: true})
	require.NoError(t, err)
	assert.IsType(t, noop.TracerProvider{}, tp)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	tp, shutdown, err := telemetry.Setup(t.Context(), telemetry.Config{Endpoint: "http://localhost:4318"})
	require.NoError(t, err)
	assert.IsType(t, noop.TracerProvider{}, tp)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Use a non-routable address so no actual export happens.
	tp, shutdown, err := telemetry.Setup(t.Context(), telemetry.Config{
		Endpoint:    "http://192.0.2.1:4318",
		Enabled:     true,
		ServiceName: "test-service",
		SampleRatio: 0.5,
	})
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, tp)

	// Shutdown should flush cleanly because nothing was recorded.
	require.NoError(t, shutdown(context.Background()))
}

func TestHeaderPropagator(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(t.Context(), "dispatch")
	defer span.End()

	headers := map[string]string{"Content-Type": "application/json"}
	telemetry.HeaderPropagator{}.Inject(ctx, headers)

	sc := span.SpanContext()
	require.Contains(t, headers, "traceparent")
	assert.True(t, strings.HasPrefix(headers["traceparent"], "00-"+sc.TraceID().String()))
	assert.Equal(t, "application/json", headers["Content-Type"])

	// no span, nothing injected
	empty := map[string]string{}
	telemetry.HeaderPropagator{Propagator: propagation.TraceContext{}}.Inject(t.Context(), empty)
	assert.Empty(t, empty)

	// nil map is tolerated
	telemetry.HeaderPropagator{}.Inject(ctx, nil)
}
