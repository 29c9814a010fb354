package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/commands"           //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry"          //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			commands.NodeID,
			scheduler.NodeID,
			fs.TrackerNodeID,
			watcher.NodeID,
			progrock.NodeID,
			telemetry.TimingsNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	factory, err := graft.Dep[*commands.Factory](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	tracker, err := graft.Dep[ports.FileTracker](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	timings, err := graft.Dep[*telemetry.Timings](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, factory, sched, tracker, w, recorder, timings, log), nil
}
