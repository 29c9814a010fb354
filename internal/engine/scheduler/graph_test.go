package scheduler_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

func TestGraph_LinkBuildSteps(t *testing.T) {
	g, ids := graphOf(
		&fakeCommand{title: "a"},
		&fakeCommand{title: "b"},
		&fakeCommand{title: "c"},
	)
	require.NoError(t, g.LinkBuildSteps(ids[0], ids[1]))
	require.NoError(t, g.LinkBuildSteps(ids[0], ids[2]))

	assert.Equal(t, []scheduler.StepID{ids[1], ids[2]}, g.Children(ids[0]))
	assert.Equal(t, []scheduler.StepID{ids[0]}, g.Parents(ids[1]))
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, domain.StatusNotProcessed, g.Status(ids[0]))

	cmd, err := g.Command(ids[2])
	require.NoError(t, err)
	assert.Equal(t, "c", cmd.Title())
}

func TestGraph_LinkBuildSteps_Errors(t *testing.T) {
	g, ids := graphOf(&fakeCommand{title: "a"})

	err := g.LinkBuildSteps(ids[0], ids[0])
	require.ErrorIs(t, err, domain.ErrSelfDependency)

	err = g.LinkBuildSteps(ids[0], scheduler.StepID(7))
	require.ErrorIs(t, err, domain.ErrStepNotFound)

	_, err = g.Command(scheduler.StepID(-1))
	require.ErrorIs(t, err, domain.ErrStepNotFound)
}

func TestGraph_Validate_ReportsCycle(t *testing.T) {
	g, ids := graphOf(
		&fakeCommand{title: "a"},
		&fakeCommand{title: "b"},
		&fakeCommand{title: "c"},
	)
	require.NoError(t, g.LinkBuildSteps(ids[0], ids[1]))
	require.NoError(t, g.LinkBuildSteps(ids[1], ids[2]))
	require.NoError(t, g.Validate())

	require.NoError(t, g.LinkBuildSteps(ids[2], ids[0]))
	err := g.Validate()
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "a -> b -> c -> a", zErr.Metadata()["cycle"])
}

func TestGraph_Steps_SkipsStepsSpawnedInEarlierRuns(t *testing.T) {
	e := newEnv(t)
	parent := &fakeCommand{kind: "split", title: "parent", fn: func(_ context.Context, ectx ports.ExecuteContext) error {
		ectx.Spawn(&fakeCommand{kind: "part", title: "child", params: "child"})
		return nil
	}}
	g, ids := graphOf(parent)

	e.run(context.Background(), g, 1)
	require.Len(t, slices.Collect(g.Steps()), 2)

	// The second run reuses the cached parent, so nothing is spawned again.
	e.run(context.Background(), g, 1)
	assert.Equal(t, []scheduler.StepID{ids[0]}, slices.Collect(g.Steps()))
	assert.Equal(t, domain.StatusNotTriggeredWasSuccessful, g.Status(ids[0]))
	assert.Empty(t, g.Children(ids[0]))
}
