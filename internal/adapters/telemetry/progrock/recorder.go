// Package progrock records build steps on a progrock tape.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

// Recorder implements ports.Telemetry using a progrock recorder.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder writing to an in-memory tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts a vertex for the named step. The vertex digest is derived
// from the name, so a step recorded twice updates the same vertex.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	cfg := &ports.VertexConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var vopts []progrock.VertexOpt
	if cfg.Internal {
		vopts = append(vopts, progrock.Internal())
	}

	v := r.rec.Vertex(digest.FromString(name), name, vopts...)
	vertex := &Vertex{vertex: v}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close completes the recording and closes the writer.
func (r *Recorder) Close() error {
	r.rec.Complete()
	return r.rec.Close()
}
