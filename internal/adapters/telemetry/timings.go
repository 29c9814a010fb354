package telemetry

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// StepTiming is the duration of one finished span.
type StepTiming struct {
	Name     string
	Duration time.Duration
	Failed   bool
	Cached   bool
}

// Timings implements sdktrace.SpanProcessor and keeps the duration of every
// ended span.
type Timings struct {
	mu      sync.Mutex
	timings []StepTiming
}

var _ sdktrace.SpanProcessor = (*Timings)(nil)

// NewTimings returns an empty collector.
func NewTimings() *Timings {
	return &Timings{}
}

// NewTracerProvider returns an SDK provider that reports to timings.
func NewTracerProvider(timings *Timings) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(timings))
}

// OnStart does nothing.
func (t *Timings) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd records the span.
func (t *Timings) OnEnd(s sdktrace.ReadOnlySpan) {
	timing := StepTiming{
		Name:     s.Name(),
		Duration: s.EndTime().Sub(s.StartTime()),
		Failed:   s.Status().Code == codes.Error,
	}
	for _, kv := range s.Attributes() {
		if kv.Key == "kiln.cached" {
			timing.Cached = kv.Value.AsBool()
		}
	}

	t.mu.Lock()
	t.timings = append(t.timings, timing)
	t.mu.Unlock()
}

// Slowest returns at most n timings, longest first.
func (t *Timings) Slowest(n int) []StepTiming {
	t.mu.Lock()
	out := slices.Clone(t.timings)
	t.mu.Unlock()

	slices.SortStableFunc(out, func(a, b StepTiming) int {
		return cmp.Compare(b.Duration, a.Duration)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Reset drops every recorded timing.
func (t *Timings) Reset() {
	t.mu.Lock()
	t.timings = nil
	t.mu.Unlock()
}

// ForceFlush does nothing.
func (t *Timings) ForceFlush(context.Context) error { return nil }

// Shutdown does nothing.
func (t *Timings) Shutdown(context.Context) error { return nil }
