package telemetry

import (
	"bytes"
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

var (
	_ ports.Tracer = (*OTelTracer)(nil)
	_ ports.Span   = (*OTelSpan)(nil)
)

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
// Output written to a span is forwarded line by line to the debug log.
type OTelTracer struct {
	tracer trace.Tracer
	logger ports.Logger
}

// NewOTelTracer creates a tracer from provider. logger may be nil.
func NewOTelTracer(provider trace.TracerProvider, name string, logger ports.Logger) *OTelTracer {
	return &OTelTracer{
		tracer: provider.Tracer(name),
		logger: logger,
	}
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		attrs = append(attrs, toAttribute(k, v))
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	s := &OTelSpan{span: span}
	if t.logger != nil {
		log := t.logger.With("step", name)
		s.batcher = NewBatchProcessor(0, 0, func(data []byte) {
			for line := range bytes.Lines(data) {
				log.Debug(string(bytes.TrimRight(line, "\r\n")))
			}
		})
	}
	return ctx, s
}

// EmitPlan adds the planned steps as an event to the current span.
func (t *OTelTracer) EmitPlan(ctx context.Context, stepNames []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("steps", stepNames),
		))
	}
	if t.logger != nil {
		t.logger.Debug(fmt.Sprintf("planned %d steps", len(stepNames)))
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span    trace.Span
	batcher *BatchProcessor
}

// End completes the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		_ = s.batcher.Close()
	}
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(toAttribute(key, value))
}

// Write forwards p to the log batcher, or records it as a span event.
func (s *OTelSpan) Write(p []byte) (int, error) {
	if s.batcher != nil {
		return s.batcher.Write(p)
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
