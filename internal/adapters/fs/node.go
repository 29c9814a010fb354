package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	WalkerNodeID  graft.ID = "adapter.fs.walker"
	TrackerNodeID graft.ID = "adapter.fs.tracker"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*Walker, error) {
			return NewWalker(domain.DefaultBuildDir), nil
		},
	})

	graft.Register(graft.Node[ports.FileTracker]{
		ID:        TrackerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.FileTracker, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewTracker(walker), nil
		},
	})
}
