package commands

import (
	"context"
	"errors"
	"io"
	"maps"
	"slices"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/ports"
)

// Exec runs a program with the concatenated inputs on stdin and stores its
// stdout. Stderr goes to the step output.
type Exec struct {
	step
	args     []string
	env      map[string]string
	dir      string
	executor *shell.Executor
}

func (c *Exec) Kind() string { return KindExec }

// WriteParameters covers argv and environment overrides. The working
// directory is left out so that moved checkouts still hit the cache.
func (c *Exec) WriteParameters(w io.Writer) error {
	keys := slices.Sorted(maps.Keys(c.env))
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+c.env[k])
	}
	return c.writeParameters(w, c.args, env)
}

func (c *Exec) Execute(ctx context.Context, ectx ports.ExecuteContext) error {
	return writeOutput(ectx, c.output, func(w io.Writer) error {
		pr, pw := io.Pipe()
		fed := make(chan struct{})
		var feedErr error
		go func() {
			defer close(fed)
			feedErr = copyInputs(ctx, ectx, c.inputs, pw)
			pw.CloseWithError(feedErr)
		}()

		err := c.executor.Run(ctx, shell.Invocation{
			Argv:   c.args,
			Dir:    c.dir,
			Env:    c.env,
			Stdin:  pr,
			Stdout: w,
			Stderr: ectx.Output(),
			Logger: ectx.Logger(),
		})
		// Unblock the feeder if the program stopped reading early.
		_ = pr.Close()
		<-fed
		if err != nil {
			return err
		}
		if feedErr != nil && !errors.Is(feedErr, io.ErrClosedPipe) {
			return feedErr
		}
		return nil
	})
}
