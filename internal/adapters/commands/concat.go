package commands

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/ports"
)

// Concat joins its inputs, in order, into one content object.
type Concat struct {
	step
}

func (c *Concat) Kind() string { return KindConcat }

func (c *Concat) WriteParameters(w io.Writer) error {
	return c.writeParameters(w)
}

func (c *Concat) Execute(ctx context.Context, ectx ports.ExecuteContext) error {
	return writeOutput(ectx, c.output, func(w io.Writer) error {
		return copyInputs(ctx, ectx, c.inputs, w)
	})
}
