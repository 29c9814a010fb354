package shell

import (
	"context"

	"github.com/grindlemire/graft"
)

const NodeID graft.ID = "adapter.shell"

func init() {
	graft.Register(graft.Node[*Executor]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*Executor, error) {
			return NewExecutor(), nil
		},
	})
}
