package app_test

import (
	"context"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/commands"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type harness struct {
	t       *testing.T
	root    string
	project *domain.Project
	loader  *mocks.MockConfigLoader
	watcher *mocks.MockWatcher
	tracker *fs.Tracker
	app     *app.App

	mu    sync.Mutex
	infos []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	h := &harness{
		t:    t,
		root: root,
		project: &domain.Project{
			Root:      root,
			BuildDir:  filepath.Join(root, domain.DefaultBuildDir),
			IndexName: domain.DefaultIndexName,
			Threads:   2,
		},
		loader:  mocks.NewMockConfigLoader(ctrl),
		watcher: mocks.NewMockWatcher(ctrl),
		tracker: fs.NewTracker(fs.NewWalker(domain.DefaultBuildDir)),
	}
	h.loader.EXPECT().Load(gomock.Any()).Return(h.project, nil).AnyTimes()

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().With(gomock.Any(), gomock.Any()).Return(logger).AnyTimes()
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.infos = append(h.infos, msg)
	}).AnyTimes()

	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(io.Discard).AnyTimes()
	vertex.EXPECT().Cached().AnyTimes()
	vertex.EXPECT().Complete(gomock.Any()).AnyTimes()
	recorder := mocks.NewMockTelemetry(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.VertexOption) (context.Context, ports.Vertex) {
			return ctx, vertex
		}).AnyTimes()

	timings := telemetry.NewTimings()
	tracer := telemetry.NewOTelTracer(telemetry.NewTracerProvider(timings), "test", nil)
	sched := scheduler.NewScheduler(h.tracker, tracer, recorder, logger)

	h.app = app.New(h.loader, commands.NewFactory(shell.NewExecutor()), sched, h.tracker,
		h.watcher, recorder, timings, logger)
	return h
}

func (h *harness) writeFile(name, content string) {
	h.t.Helper()
	require.NoError(h.t, os.WriteFile(filepath.Join(h.root, name), []byte(content), domain.FilePerm))
}

func (h *harness) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.infos {
		if m == msg {
			n++
		}
	}
	return n
}

func step(name, kind string, output string, inputs []string, dependsOn ...string) domain.StepSpec {
	spec := domain.StepSpec{
		Name:   domain.NewInternedString(name),
		Kind:   kind,
		Output: domain.NewContentURL(output),
	}
	for _, in := range inputs {
		url, err := domain.ParseObjectURL(in)
		if err != nil {
			panic(err)
		}
		spec.Inputs = append(spec.Inputs, url)
	}
	for _, d := range dependsOn {
		spec.DependsOn = append(spec.DependsOn, domain.NewInternedString(d))
	}
	return spec
}

func TestApp_Build(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "alpha ")
	h.writeFile("b.txt", "beta")
	h.project.Steps = []domain.StepSpec{
		step("a", commands.KindImport, "a", []string{"a.txt"}),
		step("ab", commands.KindConcat, "ab", []string{"content:a", "b.txt"}, "a"),
	}

	report, err := h.app.Build(context.Background(), app.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccessful, report.Code)
	assert.Equal(t, 2, report.Succeeded)

	report, err = h.app.Build(context.Background(), app.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.UpToDate)
	assert.Zero(t, report.Succeeded)

	records, err := h.app.History(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Succeeded)
	assert.Equal(t, 2, records[1].UpToDate)
	assert.Equal(t, domain.ModeBuild, records[1].Mode)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, records[0].BuilderID, records[1].BuilderID)
}

func TestApp_Build_Force(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "alpha")
	h.project.Steps = []domain.StepSpec{step("a", commands.KindImport, "a", []string{"a.txt"})}

	_, err := h.app.Build(context.Background(), app.BuildOptions{})
	require.NoError(t, err)

	report, err := h.app.Build(context.Background(), app.BuildOptions{Force: true, Threads: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
}

func TestApp_Build_FailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.project.Steps = []domain.StepSpec{
		step("missing", commands.KindImport, "m", []string{"nope.txt"}),
		step("after", commands.KindConcat, "after", []string{"content:m"}, "missing"),
	}

	report, err := h.app.Build(context.Background(), app.BuildOptions{})
	require.ErrorIs(t, err, domain.ErrBuildFailed)
	require.NotNil(t, report)
	assert.Equal(t, domain.BuildError, report.Code)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, h.count("Build finished in 2 steps. Command results: 0 succeeded, 0 up-to-date, 1 failed, 1 not triggered due to previous failure."))
}

func TestApp_Build_GraphErrors(t *testing.T) {
	tests := []struct {
		name  string
		steps []domain.StepSpec
		want  error
	}{
		{
			name:  "missing dependency",
			steps: []domain.StepSpec{step("a", commands.KindConcat, "a", []string{"x"}, "ghost")},
			want:  domain.ErrMissingDependency,
		},
		{
			name: "cycle",
			steps: []domain.StepSpec{
				step("a", commands.KindConcat, "a", []string{"x"}, "b"),
				step("b", commands.KindConcat, "b", []string{"x"}, "a"),
			},
			want: domain.ErrCycleDetected,
		},
		{
			name: "duplicate",
			steps: []domain.StepSpec{
				step("a", commands.KindConcat, "a", []string{"x"}),
				step("a", commands.KindConcat, "b", []string{"x"}),
			},
			want: domain.ErrDuplicateStep,
		},
		{
			name:  "unknown kind",
			steps: []domain.StepSpec{step("a", "compile", "a", []string{"x"})},
			want:  domain.ErrUnknownCommandKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.project.Steps = tt.steps
			_, err := h.app.Build(context.Background(), app.BuildOptions{})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApp_Build_ResetsDatabaseOfOtherVersion(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "alpha")
	h.project.Steps = []domain.StepSpec{step("a", commands.KindImport, "a", []string{"a.txt"})}

	stale := filepath.Join(domain.ObjectsPath(h.project.BuildDir), "ab", "stale")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), domain.DirPerm))
	require.NoError(t, os.WriteFile(stale, []byte("old"), domain.FilePerm))
	require.NoError(t, os.WriteFile(domain.VersionFilePath(h.project.BuildDir), []byte("0\n"), domain.FilePerm))

	_, err := h.app.Build(context.Background(), app.BuildOptions{})
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	version, err := os.ReadFile(domain.VersionFilePath(h.project.BuildDir))
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(string(version)))

	// A matching version keeps the database.
	report, err := h.app.Build(context.Background(), app.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.UpToDate)
}

func TestApp_Clean(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "alpha")
	h.project.Steps = []domain.StepSpec{step("a", commands.KindImport, "a", []string{"a.txt"})}

	_, err := h.app.Build(context.Background(), app.BuildOptions{})
	require.NoError(t, err)
	blob := filepath.Join(domain.ObjectsPath(h.project.BuildDir), domain.ComputeObjectID([]byte("alpha")).String()[:2])
	require.DirExists(t, blob)

	require.NoError(t, h.app.Clean(context.Background(), app.CleanOptions{Delete: true}))

	entries, err := os.ReadDir(blob)
	require.NoError(t, err)
	assert.Empty(t, entries)

	report, err := h.app.Build(context.Background(), app.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	records, err := h.app.History(context.Background(), "")
	require.NoError(t, err)
	modes := make([]domain.BuildMode, len(records))
	for i, r := range records {
		modes[i] = r.Mode
	}
	assert.Equal(t, []domain.BuildMode{domain.ModeBuild, domain.ModeCleanAndDelete, domain.ModeBuild}, modes)
}

func TestApp_Watch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		h.writeFile("a.txt", "one")
		h.project.Steps = []domain.StepSpec{step("a", commands.KindImport, "a", []string{"a.txt"})}

		events := make(chan ports.WatchEvent)
		var stopOnce sync.Once
		h.watcher.EXPECT().Start(gomock.Any(), h.root, h.project.BuildDir).Return(nil)
		h.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
			for ev := range events {
				if !yield(ev) {
					return
				}
			}
		}))
		h.watcher.EXPECT().Stop().DoAndReturn(func() error {
			stopOnce.Do(func() { close(events) })
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- h.app.Watch(ctx, app.WatchOptions{Debounce: time.Second}) }()

		synctest.Wait()
		assert.Equal(t, 1, h.count("Build is successful."))

		h.writeFile("a.txt", "two, changed")
		events <- ports.WatchEvent{Path: filepath.Join(h.root, "a.txt"), Operation: ports.OpWrite}
		events <- ports.WatchEvent{Path: filepath.Join(h.root, "a.txt"), Operation: ports.OpWrite}
		time.Sleep(2 * time.Second)
		synctest.Wait()

		assert.Equal(t, 2, h.count("Build is successful."))
		assert.Equal(t, 1, h.count("1 files changed, rebuilding"))

		cancel()
		require.NoError(t, <-done)

		records, err := h.app.History(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 1, records[1].Succeeded)
	})
}
