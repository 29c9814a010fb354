package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// TimingsNodeID is the unique identifier of the span timing collector.
	TimingsNodeID graft.ID = "adapter.telemetry.timings"
	// TracerNodeID is the unique identifier for the tracer adapter Graft node.
	TracerNodeID graft.ID = "adapter.telemetry.tracer"
)

func init() {
	graft.Register(graft.Node[*Timings]{
		ID:        TimingsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Timings, error) {
			return NewTimings(), nil
		},
	})

	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, TimingsNodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			timings, err := graft.Dep[*Timings](ctx)
			if err != nil {
				return nil, err
			}
			return NewOTelTracer(NewTracerProvider(timings), "kiln", log), nil
		},
	})
}
