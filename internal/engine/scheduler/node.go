package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/fs"                 //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/telemetry"          //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.TrackerNodeID,
			telemetry.TracerNodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			tracker, err := graft.Dep[ports.FileTracker](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			recorder, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(tracker, tracer, recorder, log), nil
		},
	})
}
