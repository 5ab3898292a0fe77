package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := initTracer("sirrus-test", &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "fetch-leads")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "fetch-leads")
	assert.Contains(t, buf.String(), "sirrus-test")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop(context.Background()))
}
