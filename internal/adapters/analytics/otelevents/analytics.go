package otelevents

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bnema/eligibility-cli/internal/ports"
)

const tracerName = "github.com/bnema/eligibility-cli/internal/adapters/analytics/otelevents"

// Analytics records session events on the active span. Events tracked
// outside a recording span get a short span of their own.
type Analytics struct {
	tracer trace.Tracer
}

var _ ports.Analytics = (*Analytics)(nil)

func New(provider trace.TracerProvider) *Analytics {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Analytics{tracer: provider.Tracer(tracerName)}
}

func (a *Analytics) Track(ctx context.Context, event string, fields map[string]any) {
	attrs := Attributes(fields)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(event, trace.WithAttributes(attrs...))
		return
	}

	_, span = a.tracer.Start(ctx, event, trace.WithAttributes(attrs...))
	span.End()
}

// Attributes converts event fields into span attributes, sorted by key.
func Attributes(fields map[string]any) []attribute.KeyValue {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, toAttribute(key, fields[key]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int32:
		return attribute.Int64(key, int64(v))
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
