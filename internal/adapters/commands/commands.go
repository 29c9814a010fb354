// Package commands provides the asset transformation commands build steps run.
package commands

import (
	"context"
	"encoding/binary"
	"io"
	"maps"
	"slices"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Command kinds.
const (
	KindImport = "import"
	KindConcat = "concat"
	KindExec   = "exec"
	KindFanout = "fanout"
)

// Factory turns step descriptions into commands.
type Factory struct {
	executor *shell.Executor
}

// NewFactory creates a Factory. exec steps run through executor.
func NewFactory(executor *shell.Executor) *Factory {
	return &Factory{executor: executor}
}

// New creates the command for spec. root is the working directory of exec steps.
func (f *Factory) New(spec domain.StepSpec, root string) (ports.Command, error) {
	base := step{
		name:   spec.Name.String(),
		inputs: slices.Clone(spec.Inputs),
		output: spec.Output,
		tracks: slices.Clone(spec.Tracks),
	}

	switch spec.Kind {
	case KindImport:
		if len(spec.Inputs) != 1 || spec.Inputs[0].Type != domain.URLTypeFile {
			return nil, invalid(spec, "import takes exactly one file input")
		}
		if err := requireContentOutput(spec); err != nil {
			return nil, err
		}
		return &Import{step: base}, nil
	case KindConcat:
		if len(spec.Inputs) == 0 {
			return nil, invalid(spec, "concat needs at least one input")
		}
		if err := requireContentOutput(spec); err != nil {
			return nil, err
		}
		return &Concat{step: base}, nil
	case KindExec:
		if len(spec.Args) == 0 {
			return nil, invalid(spec, "exec needs args")
		}
		if err := requireContentOutput(spec); err != nil {
			return nil, err
		}
		return &Exec{
			step:     base,
			args:     slices.Clone(spec.Args),
			env:      maps.Clone(spec.Env),
			dir:      root,
			executor: f.executor,
		}, nil
	case KindFanout:
		if err := requireContentOutput(spec); err != nil {
			return nil, err
		}
		return &Fanout{step: base}, nil
	default:
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownCommandKind, "create command"), "step", spec.Name.String()), "kind", spec.Kind)
	}
}

func requireContentOutput(spec domain.StepSpec) error {
	if spec.Output.Type != domain.URLTypeContent {
		return zerr.With(zerr.Wrap(domain.ErrOutputNotContent, "create command"), "step", spec.Name.String())
	}
	if _, ok := spec.Output.BlobID(); ok {
		return invalid(spec, "outputs cannot be addressed by id")
	}
	return nil
}

func invalid(spec domain.StepSpec, reason string) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidCommand, reason), "step", spec.Name.String()), "kind", spec.Kind)
}

// step holds what every command kind shares.
type step struct {
	name   string
	inputs []domain.ObjectURL
	output domain.ObjectURL
	tracks []domain.ObjectURL
}

func (s *step) Title() string { return s.name }

func (s *step) InputFiles() []domain.ObjectURL { return s.inputs }

func (s *step) InputDependencies() []domain.ObjectURL { return s.tracks }

// Output returns the URL the command writes.
func (s *step) Output() domain.ObjectURL { return s.output }

func (s *step) writeParameters(w io.Writer, extra ...[]string) error {
	fields := []string{s.output.String()}
	for _, in := range s.inputs {
		fields = append(fields, in.String())
	}
	if err := writeFields(w, fields); err != nil {
		return err
	}
	for _, e := range extra {
		if err := writeFields(w, e); err != nil {
			return err
		}
	}
	return nil
}

// writeFields writes a count followed by length-prefixed strings.
func writeFields(w io.Writer, fields []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(fields))); err != nil { //nolint:gosec // small counts
		return err
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(f))); err != nil { //nolint:gosec // small strings
			return err
		}
		if _, err := io.WriteString(w, f); err != nil {
			return err
		}
	}
	return nil
}

// copyInputs streams every input into w in declaration order.
func copyInputs(ctx context.Context, ectx ports.ExecuteContext, inputs []domain.ObjectURL, w io.Writer) error {
	for _, in := range inputs {
		r, err := ectx.OpenInput(in)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, &contextReader{ctx: ctx, r: r})
		_ = r.Close()
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to copy input"), "input", in.String())
		}
	}
	return nil
}

// writeOutput creates url, lets fill write it, and commits it only when fill succeeds.
func writeOutput(ectx ports.ExecuteContext, url domain.ObjectURL, fill func(io.Writer) error) error {
	w, err := ectx.CreateOutput(url)
	if err != nil {
		return err
	}
	if err := fill(w); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			_ = a.Abort()
		}
		return err
	}
	return w.Close()
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
