package telemetry

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedProvider(t *testing.T) (*OTelProvider, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(&buf))
	require.NoError(t, err)
	provider, err := NewOTelProvider("sinp-test", exporter)
	require.NoError(t, err)
	return provider, &buf
}

func TestNewOTelProviderRejectsEmptyServiceName(t *testing.T) {
	exporter, err := stdouttrace.New()
	require.NoError(t, err)
	_, err = NewOTelProvider("", exporter)
	assert.Error(t, err)
}

func TestStartSpanExportsOnEnd(t *testing.T) {
	provider, buf := newBufferedProvider(t)
	defer provider.Shutdown(context.Background())

	_, span := provider.StartSpan(context.Background(), "sinp.validate")
	span.SetAttribute("message_id", "abc-123")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "sinp.validate")
	assert.Contains(t, buf.String(), "abc-123")
}

func TestStartSpanAfterShutdownReturnsNoOp(t *testing.T) {
	provider, _ := newBufferedProvider(t)
	require.NoError(t, provider.Shutdown(context.Background()))

	_, span := provider.StartSpan(context.Background(), "sinp.validate")
	span.SetAttribute("key", "value")
	span.End()
}

func TestRecordMetricIsNoOp(t *testing.T) {
	provider, _ := newBufferedProvider(t)
	defer provider.Shutdown(context.Background())
	provider.RecordMetric("anything", 1.0, map[string]string{"k": "v"})
}

func TestShutdownIsIdempotent(t *testing.T) {
	provider, _ := newBufferedProvider(t)
	require.NoError(t, provider.Shutdown(context.Background()))
	require.NoError(t, provider.Shutdown(context.Background()))
}
