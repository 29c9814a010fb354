package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func TestScheduler_Run_IsIdempotent(t *testing.T) {
	e := newEnv(t)
	src := e.writeFile("a.txt", "hello")
	out := domain.NewContentURL("out/a")

	cmd := transform("a", out, "!", src)
	g, ids := graphOf(cmd)
	report := e.run(context.Background(), g, 4)
	require.Equal(t, domain.BuildSuccessful, report.Code)
	assert.Equal(t, domain.StatusSuccessful, g.Status(ids[0]))
	first := g.Result(ids[0]).OutputObjects[out]
	assert.Equal(t, "hello!", e.read(out))

	e.reopen()
	again := transform("a", out, "!", src)
	g2, ids2 := graphOf(again)
	report = e.run(context.Background(), g2, 4)

	assert.Equal(t, domain.BuildSuccessful, report.Code)
	assert.Equal(t, 1, report.UpToDate)
	assert.Equal(t, domain.StatusNotTriggeredWasSuccessful, g2.Status(ids2[0]))
	assert.Zero(t, again.calls.Load())
	assert.Equal(t, first, g2.Result(ids2[0]).OutputObjects[out])
	assert.False(t, g2.Fingerprint(ids2[0]).IsZero(), "cache hits keep their fingerprint")
	assert.Equal(t, g.Fingerprint(ids[0]), g2.Fingerprint(ids2[0]))
}

func TestScheduler_Run_DetectsFileChanges(t *testing.T) {
	e := newEnv(t)
	src := e.writeFile("a.txt", "hello")
	out := domain.NewContentURL("out/a")

	g, ids := graphOf(transform("a", out, "", src))
	e.run(context.Background(), g, 4)
	old := g.Result(ids[0]).OutputObjects[out]

	e.writeFile("a.txt", "hello, world")
	cmd := transform("a", out, "", src)
	g2, ids2 := graphOf(cmd)
	e.run(context.Background(), g2, 4)

	assert.Equal(t, domain.StatusSuccessful, g2.Status(ids2[0]))
	assert.EqualValues(t, 1, cmd.calls.Load())
	updated := g2.Result(ids2[0]).OutputObjects[out]
	assert.NotEqual(t, old, updated)
	assert.Equal(t, updated, e.lookup(out))
	assert.True(t, e.store.Exists(old), "blob of the first run must survive")
}

func TestScheduler_Run_MissingOutputObjectIsCacheMiss(t *testing.T) {
	e := newEnv(t)
	src := e.writeFile("a.txt", "hello")
	out := domain.NewContentURL("out/a")

	g, ids := graphOf(transform("a", out, "", src))
	e.run(context.Background(), g, 1)
	require.NoError(t, e.store.Delete(g.Result(ids[0]).OutputObjects[out]))

	cmd := transform("a", out, "", src)
	g2, ids2 := graphOf(cmd)
	e.run(context.Background(), g2, 1)

	assert.Equal(t, domain.StatusSuccessful, g2.Status(ids2[0]))
	assert.EqualValues(t, 1, cmd.calls.Load())
	assert.Equal(t, "hello", e.read(out))
}

func TestScheduler_Run_CollapsesIdenticalCommands(t *testing.T) {
	e := newEnv(t)
	out := domain.NewContentURL("dup")

	cmds := make([]*fakeCommand, 100)
	all := make([]ports.Command, len(cmds))
	for i := range cmds {
		cmds[i] = &fakeCommand{
			kind:   "write",
			title:  fmt.Sprintf("dup-%d", i),
			params: "same",
			fn: func(_ context.Context, ectx ports.ExecuteContext) error {
				return writeOutput(ectx, out, "payload")
			},
		}
		all[i] = cmds[i]
	}
	g, ids := graphOf(all...)
	report := e.run(context.Background(), g, 8)

	assert.Equal(t, domain.BuildSuccessful, report.Code)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 99, report.UpToDate)

	var calls int32
	for _, c := range cmds {
		calls += c.calls.Load()
	}
	assert.EqualValues(t, 1, calls)

	want := domain.ComputeObjectID([]byte("payload"))
	for _, id := range ids {
		assert.Equal(t, want, g.Result(id).OutputObjects[out])
	}
	assert.Equal(t, want, e.lookup(out))
}

func TestScheduler_Run_ChainsContentDependencies(t *testing.T) {
	for _, threads := range []int{1, 8} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			e := newEnv(t)
			src := e.writeFile("a.txt", "a")
			first := domain.NewContentURL("stage/1")
			second := domain.NewContentURL("stage/2")
			final := domain.NewContentURL("stage/3")

			g, ids := graphOf(
				transform("third", final, "3", second),
				transform("second", second, "2", first),
				transform("first", first, "1", src),
			)
			require.NoError(t, g.LinkBuildSteps(ids[0], ids[1]))
			require.NoError(t, g.LinkBuildSteps(ids[1], ids[2]))

			report := e.run(context.Background(), g, threads)
			require.Equal(t, domain.BuildSuccessful, report.Code)
			assert.Equal(t, "a123", e.read(final))

			recorded := g.Result(ids[0]).InputDependencyVersions[second]
			assert.Equal(t, e.lookup(second), recorded)
		})
	}
}

func TestScheduler_Run_ReexecutesDependentsOfChangedContent(t *testing.T) {
	e := newEnv(t)
	src := e.writeFile("a.txt", "a")
	mid := domain.NewContentURL("mid")
	out := domain.NewContentURL("out")

	build := func() (*scheduler.Graph, []scheduler.StepID, *fakeCommand) {
		consumer := transform("consumer", out, "!", mid)
		g, ids := graphOf(consumer, transform("producer", mid, "", src))
		require.NoError(t, g.LinkBuildSteps(ids[0], ids[1]))
		return g, ids, consumer
	}

	g, _, _ := build()
	e.run(context.Background(), g, 2)

	e.writeFile("a.txt", "b")
	g, ids, consumer := build()
	e.run(context.Background(), g, 2)

	assert.Equal(t, domain.StatusSuccessful, g.Status(ids[0]))
	assert.EqualValues(t, 1, consumer.calls.Load())
	assert.Equal(t, "b!", e.read(out))
}

func TestScheduler_Run_PropagatesFailure(t *testing.T) {
	e := newEnv(t)
	failing := &fakeCommand{kind: "fail", title: "a", fn: func(context.Context, ports.ExecuteContext) error {
		return errors.New("compiler crashed")
	}}
	b := &fakeCommand{kind: "noop", title: "b", params: "b"}
	c := &fakeCommand{kind: "noop", title: "c", params: "c"}
	independent := &fakeCommand{kind: "noop", title: "d", params: "d"}

	g, ids := graphOf(failing, b, c, independent)
	require.NoError(t, g.LinkBuildSteps(ids[1], ids[0]))
	require.NoError(t, g.LinkBuildSteps(ids[2], ids[1]))

	report := e.run(context.Background(), g, 4)

	assert.Equal(t, domain.BuildError, report.Code)
	assert.Equal(t, domain.StatusFailed, g.Status(ids[0]))
	assert.Equal(t, domain.StatusNotTriggeredPrerequisiteFailed, g.Status(ids[1]))
	assert.Equal(t, domain.StatusNotTriggeredPrerequisiteFailed, g.Status(ids[2]))
	assert.Equal(t, domain.StatusSuccessful, g.Status(ids[3]))
	assert.Zero(t, b.calls.Load())
	assert.Zero(t, c.calls.Load())
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Skipped)
	assert.ErrorContains(t, g.Err(ids[0]), "compiler crashed")

	// Failures are not cached.
	again := &fakeCommand{kind: "fail", title: "a", fn: failing.fn}
	g2, ids2 := graphOf(again)
	e.run(context.Background(), g2, 1)
	assert.Equal(t, domain.StatusFailed, g2.Status(ids2[0]))
	assert.EqualValues(t, 1, again.calls.Load())
}

func TestScheduler_Run_CancellationChain(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := newEnv(t)
		started := make(chan struct{})

		root := &fakeCommand{kind: "noop", title: "root", params: "root"}
		mid := &fakeCommand{kind: "block", title: "mid", fn: func(ctx context.Context, ectx ports.ExecuteContext) error {
			w, err := ectx.CreateOutput(domain.NewContentURL("partial"))
			if err != nil {
				return err
			}
			_, _ = io.WriteString(w, "half")
			close(started)
			<-ctx.Done()
			return w.Close()
		}}
		leaf := &fakeCommand{kind: "noop", title: "leaf", params: "leaf"}

		g, ids := graphOf(root, mid, leaf)
		require.NoError(t, g.LinkBuildSteps(ids[1], ids[0]))
		require.NoError(t, g.LinkBuildSteps(ids[2], ids[1]))

		done := make(chan *scheduler.Report)
		go func() {
			done <- e.run(context.Background(), g, 4)
		}()

		<-started
		e.sched.Cancel()
		report := <-done

		assert.Equal(t, domain.BuildCancelled, report.Code)
		assert.Equal(t, domain.StatusSuccessful, g.Status(ids[0]))
		assert.Equal(t, domain.StatusCancelled, g.Status(ids[1]))
		assert.Equal(t, domain.StatusNotTriggeredPrerequisiteFailed, g.Status(ids[2]))
		assert.Nil(t, g.Result(ids[1]))
		assert.Zero(t, leaf.calls.Load())
		assert.Equal(t, 1, report.Cancelled)
	})
}

func TestScheduler_Run_CancelledContextSkipsEverything(t *testing.T) {
	e := newEnv(t)
	cmd := &fakeCommand{kind: "noop", title: "a"}
	g, ids := graphOf(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := e.run(ctx, g, 1)

	assert.Equal(t, domain.BuildCancelled, report.Code)
	assert.Equal(t, domain.StatusCancelled, g.Status(ids[0]))
	assert.Zero(t, cmd.calls.Load())
}

func TestScheduler_Run_ReportsConflicts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := newEnv(t)
		shared := domain.NewContentURL("shared")
		readerStarted := make(chan struct{})
		written := make(chan struct{})

		writer := &fakeCommand{kind: "writer", title: "writer", fn: func(_ context.Context, ectx ports.ExecuteContext) error {
			<-readerStarted
			err := writeOutput(ectx, shared, "data")
			close(written)
			return err
		}}
		reader := &fakeCommand{kind: "reader", title: "reader", inputs: []domain.ObjectURL{shared},
			fn: func(context.Context, ports.ExecuteContext) error {
				close(readerStarted)
				<-written
				return nil
			}}

		g, ids := graphOf(writer, reader)
		report := e.run(context.Background(), g, 2)

		assert.Equal(t, domain.BuildSuccessful, report.Code)
		assert.Equal(t, domain.StatusSuccessful, g.Status(ids[0]))
		assert.Equal(t, domain.StatusSuccessful, g.Status(ids[1]))

		var conflicts []string
		for _, w := range e.log.warnings() {
			if strings.HasPrefix(w, "build conflict") {
				conflicts = append(conflicts, w)
			}
		}
		require.Len(t, conflicts, 1)
		assert.Contains(t, conflicts[0], `"writer"`)
		assert.Contains(t, conflicts[0], `"reader"`)
		assert.Contains(t, conflicts[0], shared.String())
	})
}

func TestScheduler_Run_NoConflictAcrossDependencyEdge(t *testing.T) {
	e := newEnv(t)
	shared := domain.NewContentURL("shared")

	producer := &fakeCommand{kind: "writer", title: "producer", fn: func(_ context.Context, ectx ports.ExecuteContext) error {
		return writeOutput(ectx, shared, "data")
	}}
	consumer := transform("consumer", domain.NewContentURL("out"), "", shared)

	g, ids := graphOf(consumer, producer)
	require.NoError(t, g.LinkBuildSteps(ids[0], ids[1]))
	e.run(context.Background(), g, 2)

	for _, w := range e.log.warnings() {
		assert.NotContains(t, w, "build conflict")
	}
}

func TestScheduler_Run_SpawnedSteps(t *testing.T) {
	e := newEnv(t)
	parts := []string{"x", "y", "z"}

	newParent := func() *fakeCommand {
		return &fakeCommand{kind: "split", title: "parent", params: "xyz", fn: func(_ context.Context, ectx ports.ExecuteContext) error {
			for _, p := range parts {
				url := domain.NewContentURL("parts/" + p)
				ectx.Spawn(&fakeCommand{kind: "part", title: "parent/" + p, params: p,
					fn: func(_ context.Context, ectx ports.ExecuteContext) error {
						return writeOutput(ectx, url, p)
					}})
			}
			return nil
		}}
	}

	parent := newParent()
	dependent := &fakeCommand{kind: "noop", title: "after", params: "after"}
	g, ids := graphOf(parent, dependent)
	require.NoError(t, g.LinkBuildSteps(ids[1], ids[0]))

	report := e.run(context.Background(), g, 4)
	require.Equal(t, domain.BuildSuccessful, report.Code)
	assert.Equal(t, 5, report.Steps)
	assert.Equal(t, domain.StatusSuccessful, g.Status(ids[0]))
	assert.Equal(t, domain.StatusSuccessful, g.Status(ids[1]))

	var spawned []scheduler.StepID
	for id := range g.Steps() {
		if by, ok := g.SpawnedBy(id); ok {
			assert.Equal(t, ids[0], by)
			spawned = append(spawned, id)
		}
	}
	assert.Len(t, spawned, len(parts))

	result := g.Result(ids[0])
	for _, p := range parts {
		url := domain.NewContentURL("parts/" + p)
		assert.Equal(t, domain.ComputeObjectID([]byte(p)), result.OutputObjects[url])
		assert.Equal(t, p, e.read(url))
	}

	again := newParent()
	g2, ids2 := graphOf(again)
	report = e.run(context.Background(), g2, 4)
	assert.Equal(t, domain.StatusNotTriggeredWasSuccessful, g2.Status(ids2[0]))
	assert.Equal(t, 1, report.Steps)
	assert.Zero(t, again.calls.Load())
}

func TestScheduler_Run_SpawnedFailureFailsSpawner(t *testing.T) {
	e := newEnv(t)
	parent := &fakeCommand{kind: "split", title: "parent", fn: func(_ context.Context, ectx ports.ExecuteContext) error {
		ectx.Spawn(&fakeCommand{kind: "part", title: "ok", params: "ok"})
		ectx.Spawn(&fakeCommand{kind: "part", title: "bad", params: "bad",
			fn: func(context.Context, ports.ExecuteContext) error { return errors.New("bad part") }})
		return nil
	}}
	dependent := &fakeCommand{kind: "noop", title: "after"}

	g, ids := graphOf(parent, dependent)
	require.NoError(t, g.LinkBuildSteps(ids[1], ids[0]))
	report := e.run(context.Background(), g, 2)

	assert.Equal(t, domain.BuildError, report.Code)
	assert.Equal(t, domain.StatusFailed, g.Status(ids[0]))
	assert.Equal(t, domain.StatusNotTriggeredPrerequisiteFailed, g.Status(ids[1]))
	assert.ErrorContains(t, g.Err(ids[0]), "spawned step failed")
	assert.Zero(t, dependent.calls.Load())
}

func TestScheduler_Run_RejectsConcurrentRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := newEnv(t)
		started := make(chan struct{})
		release := make(chan struct{})

		g, _ := graphOf(&fakeCommand{kind: "block", title: "a", fn: func(context.Context, ports.ExecuteContext) error {
			close(started)
			<-release
			return nil
		}})

		done := make(chan struct{})
		go func() {
			defer close(done)
			e.run(context.Background(), g, 1)
		}()
		<-started

		_, err := e.sched.Run(context.Background(), scheduler.NewGraph(), e.db, scheduler.Options{})
		require.ErrorIs(t, err, domain.ErrBuilderRunning)

		close(release)
		<-done
	})
}

func TestScheduler_Run_CycleIsRejected(t *testing.T) {
	e := newEnv(t)
	a := &fakeCommand{kind: "noop", title: "a"}
	b := &fakeCommand{kind: "noop", title: "b"}
	g, ids := graphOf(a, b)
	require.NoError(t, g.LinkBuildSteps(ids[0], ids[1]))
	require.NoError(t, g.LinkBuildSteps(ids[1], ids[0]))

	_, err := e.sched.Run(context.Background(), g, e.db, scheduler.Options{Root: e.root})
	require.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Zero(t, a.calls.Load())
}

func TestScheduler_Run_AbortsOnIndexFailure(t *testing.T) {
	e := newEnv(t)
	ctrl := gomock.NewController(t)
	results := mocks.NewMockResultIndex(ctrl)
	boom := errors.New("disk on fire")
	results.EXPECT().TryGet(gomock.Any()).Return(nil, false, boom)

	db := e.db
	db.Results = results
	cmd := &fakeCommand{kind: "noop", title: "a"}
	g, _ := graphOf(cmd)

	_, err := e.sched.Run(context.Background(), g, db, scheduler.Options{ThreadCount: 1, Root: e.root})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, cmd.calls.Load())
}

func TestScheduler_Run_ContentInputWithoutProducerWarns(t *testing.T) {
	e := newEnv(t)
	orphan := domain.NewContentURL("nobody/makes/this")
	cmd := &fakeCommand{kind: "noop", title: "a", deps: []domain.ObjectURL{orphan}}
	g, ids := graphOf(cmd)

	e.run(context.Background(), g, 1)

	assert.Equal(t, domain.StatusSuccessful, g.Status(ids[0]))
	assert.Contains(t, strings.Join(e.log.warnings(), "\n"), "has no producer")
}

func TestScheduler_Run_BlobInputs(t *testing.T) {
	e := newEnv(t)
	w, err := e.store.CreateWriteStream()
	require.NoError(t, err)
	_, err = io.WriteString(w, "raw")
	require.NoError(t, err)
	id, err := w.Commit()
	require.NoError(t, err)

	out := domain.NewContentURL("copied")
	g, ids := graphOf(transform("copy", out, "", domain.NewBlobURL(id)))
	e.run(context.Background(), g, 1)

	assert.Equal(t, domain.StatusSuccessful, g.Status(ids[0]))
	assert.Equal(t, "raw", e.read(out))
}

func TestScheduler_Run_RejectsFileOutputs(t *testing.T) {
	e := newEnv(t)
	cmd := &fakeCommand{kind: "bad", title: "a", fn: func(_ context.Context, ectx ports.ExecuteContext) error {
		_, err := ectx.CreateOutput(domain.NewFileURL("out.txt"))
		return err
	}}
	g, ids := graphOf(cmd)
	e.run(context.Background(), g, 1)

	assert.Equal(t, domain.StatusFailed, g.Status(ids[0]))
	assert.ErrorIs(t, g.Err(ids[0]), domain.ErrOutputNotContent)
}

func TestScheduler_Clean(t *testing.T) {
	tests := []struct {
		name        string
		mode        domain.BuildMode
		wantDeleted bool
	}{
		{name: "clean", mode: domain.ModeClean},
		{name: "clean and delete", mode: domain.ModeCleanAndDelete, wantDeleted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			src := e.writeFile("a.txt", "hello")
			out := domain.NewContentURL("out")

			g, ids := graphOf(transform("a", out, "", src))
			e.run(context.Background(), g, 1)
			blob := g.Result(ids[0]).OutputObjects[out]

			_, err := e.sched.Run(context.Background(), scheduler.NewGraph(), e.db, scheduler.Options{Mode: tt.mode})
			require.NoError(t, err)

			entries, err := e.db.Results.Entries()
			require.NoError(t, err)
			assert.Empty(t, entries)
			assert.Equal(t, !tt.wantDeleted, e.store.Exists(blob))

			_, indexed, err := e.db.Content.TryGet(out.Path.String())
			require.NoError(t, err)
			assert.Equal(t, !tt.wantDeleted, indexed)

			cmd := transform("a", out, "", src)
			g2, ids2 := graphOf(cmd)
			e.run(context.Background(), g2, 1)
			assert.Equal(t, domain.StatusSuccessful, g2.Status(ids2[0]))
			assert.EqualValues(t, 1, cmd.calls.Load())
		})
	}
}

func TestScheduler_WriteIndexFile(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.db.Content.Add("stale", domain.ComputeObjectID([]byte("old"))))
	require.NoError(t, e.db.Content.Save())

	out := domain.NewContentURL("fresh")
	g, _ := graphOf(&fakeCommand{kind: "write", title: "a", fn: func(_ context.Context, ectx ports.ExecuteContext) error {
		return writeOutput(ectx, out, "new")
	}})
	_, err := e.sched.Run(context.Background(), g, e.db, scheduler.Options{Root: e.root, SkipIndexFile: true})
	require.NoError(t, err)

	require.NoError(t, e.sched.WriteIndexFile(g, e.db, false))
	e.reopen()

	entries, err := e.db.Content.Entries()
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.ObjectID{"fresh": domain.ComputeObjectID([]byte("new"))}, entries)
}
