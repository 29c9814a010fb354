package commands

import (
	"context"
	"io"
	"path"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Fanout imports every input as its own child step, under the output prefix.
type Fanout struct {
	step
}

func (c *Fanout) Kind() string { return KindFanout }

// InputFiles is empty: children read the files. The inputs still decide the
// fanout's fingerprint through InputDependencies.
func (c *Fanout) InputFiles() []domain.ObjectURL { return nil }

func (c *Fanout) InputDependencies() []domain.ObjectURL {
	return append(append([]domain.ObjectURL(nil), c.inputs...), c.tracks...)
}

func (c *Fanout) WriteParameters(w io.Writer) error {
	return c.writeParameters(w)
}

func (c *Fanout) Execute(ctx context.Context, ectx ports.ExecuteContext) error {
	for _, in := range c.inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		base := path.Base(in.Path.String())
		ectx.Spawn(&Import{step: step{
			name:   c.name + "/" + base,
			inputs: []domain.ObjectURL{in},
			output: domain.NewContentURL(c.output.Path.String() + "/" + base),
		}})
	}
	return nil
}
