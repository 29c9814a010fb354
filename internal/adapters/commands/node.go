package commands

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/shell"
)

// NodeID is the unique identifier for the command factory Graft node.
const NodeID graft.ID = "adapter.commands"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			executor, err := graft.Dep[*shell.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(executor), nil
		},
	})
}
