package otelevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, provider
}

func TestTrackAddsEventToActiveSpan(t *testing.T) {
	t.Parallel()

	recorder, provider := newRecorder()
	analytics := New(provider)

	ctx, span := provider.Tracer("test").Start(context.Background(), "HardSession.Submit")
	analytics.Track(ctx, "hard_eligibility.session.policy", map[string]any{
		"policyId":     "pol-1",
		"policyStatus": "CONFIRMED",
		"durationMs":   int64(420),
	})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "hard_eligibility.session.policy", events[0].Name)
	assert.Equal(t, []attribute.KeyValue{
		attribute.Int64("durationMs", 420),
		attribute.String("policyId", "pol-1"),
		attribute.String("policyStatus", "CONFIRMED"),
	}, events[0].Attributes)
}

func TestTrackWithoutSpanStartsOne(t *testing.T) {
	t.Parallel()

	recorder, provider := newRecorder()
	analytics := New(provider)

	analytics.Track(context.Background(), "soft_eligibility.session.created", map[string]any{
		"serviceCategoryIds": []string{"c1", "c2"},
		"mergeStrategy":      "UNION",
	})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "soft_eligibility.session.created", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.StringSlice("serviceCategoryIds", []string{"c1", "c2"}))
}

func TestAttributesConvertsKnownTypes(t *testing.T) {
	t.Parallel()

	attrs := Attributes(map[string]any{
		"b": true,
		"f": 1.5,
		"i": 3,
		"n": nil,
		"s": "x",
	})

	assert.Equal(t, []attribute.KeyValue{
		attribute.Bool("b", true),
		attribute.Float64("f", 1.5),
		attribute.Int("i", 3),
		attribute.String("n", "<nil>"),
		attribute.String("s", "x"),
	}, attrs)
}
