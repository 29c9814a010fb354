package commands

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/ports"
)

// Import copies one file into the content store.
type Import struct {
	step
}

func (c *Import) Kind() string { return KindImport }

func (c *Import) WriteParameters(w io.Writer) error {
	return c.writeParameters(w)
}

func (c *Import) Execute(ctx context.Context, ectx ports.ExecuteContext) error {
	return writeOutput(ectx, c.output, func(w io.Writer) error {
		return copyInputs(ctx, ectx, c.inputs, w)
	})
}
