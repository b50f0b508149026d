package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitDisabled(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitWithWriter(context.Background(), Config{}, &buf)
	require.Nil(t, err)
	assert.Nil(t, shutdown(context.Background()))
	assert.Empty(t, buf.String())
}

func TestInitEnabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	otel.SetTracerProvider(noop.NewTracerProvider())

	var buf bytes.Buffer
	shutdown, err := InitWithWriter(context.Background(), Config{Enabled: true}, &buf)
	require.Nil(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "fit")
	span.End()

	require.Nil(t, shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, `"Name":"fit"`)
	assert.Contains(t, out, DefaultServiceName)
}
