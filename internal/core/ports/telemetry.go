package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals which steps are about to be scheduled.
	EmitPlan(ctx context.Context, stepNames []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Attributes are set on the span when it starts.
	Attributes map[string]any
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute when the span starts.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Telemetry records build steps as vertices of a progress tape.
type Telemetry interface {
	// Record starts a vertex for the named step.
	Record(ctx context.Context, name string, opts ...VertexOption) (context.Context, Vertex)
	// Close flushes the recording session.
	Close() error
}

// Vertex is one recorded step.
type Vertex interface {
	Stdout() io.Writer
	Stderr() io.Writer
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex finished, failed when err is non-nil.
	Complete(err error)
	// Cached marks the vertex as satisfied from cache.
	Cached()
}

// VertexConfig holds configuration for a recorded vertex.
type VertexConfig struct {
	// Internal hides the vertex from summary output.
	Internal bool
}

// VertexOption is a functional option for configuring a vertex.
type VertexOption func(*VertexConfig)

// Internal marks a vertex as internal.
func Internal() VertexOption {
	return func(c *VertexConfig) { c.Internal = true }
}

type vertexKey struct{}

// ContextWithVertex returns a context carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex stored in ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
