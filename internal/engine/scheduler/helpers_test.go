package scheduler_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/indexmap"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// fakeCommand runs fn and counts its executions.
type fakeCommand struct {
	kind   string
	title  string
	params string
	inputs []domain.ObjectURL
	deps   []domain.ObjectURL
	fn     func(ctx context.Context, ectx ports.ExecuteContext) error
	calls  atomic.Int32
}

func (c *fakeCommand) Kind() string { return c.kind }

func (c *fakeCommand) Title() string { return c.title }

func (c *fakeCommand) WriteParameters(w io.Writer) error {
	_, err := io.WriteString(w, c.params)
	return err
}

func (c *fakeCommand) InputFiles() []domain.ObjectURL { return c.inputs }

func (c *fakeCommand) InputDependencies() []domain.ObjectURL { return c.deps }

func (c *fakeCommand) Execute(ctx context.Context, ectx ports.ExecuteContext) error {
	c.calls.Add(1)
	if c.fn == nil {
		return nil
	}
	return c.fn(ctx, ectx)
}

// transform reads every input, applies suffix and writes the result to out.
func transform(title string, out domain.ObjectURL, suffix string, inputs ...domain.ObjectURL) *fakeCommand {
	return &fakeCommand{
		kind:   "transform",
		title:  title,
		params: out.String() + "|" + suffix,
		inputs: inputs,
		fn: func(_ context.Context, ectx ports.ExecuteContext) error {
			var sb strings.Builder
			for _, in := range inputs {
				r, err := ectx.OpenInput(in)
				if err != nil {
					return err
				}
				_, err = io.Copy(&sb, r)
				_ = r.Close()
				if err != nil {
					return err
				}
			}
			sb.WriteString(suffix)
			return writeOutput(ectx, out, sb.String())
		},
	}
}

func writeOutput(ectx ports.ExecuteContext, url domain.ObjectURL, content string) error {
	w, err := ectx.CreateOutput(url)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, content); err != nil {
		return err
	}
	return w.Close()
}

type logSink struct {
	mu    sync.Mutex
	warns []string
}

func (l *logSink) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

// env is a build database in a temporary directory.
type env struct {
	t     *testing.T
	root  string
	db    scheduler.Storage
	store *cas.Store
	sched *scheduler.Scheduler
	log   *logSink
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctrl := gomock.NewController(t)

	sink := &logSink{}
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().With(gomock.Any(), gomock.Any()).Return(logger).AnyTimes()
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		sink.warns = append(sink.warns, msg)
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

	root := t.TempDir()
	buildDir := filepath.Join(root, domain.DefaultBuildDir)
	store, err := cas.NewStore(domain.ObjectsPath(buildDir))
	require.NoError(t, err)

	e := &env{
		t:     t,
		root:  root,
		store: store,
		sched: scheduler.NewScheduler(fs.NewTracker(fs.NewWalker()), telemetry.NewNoOpTracer(), recorder, logger),
		log:   sink,
	}
	e.open()
	t.Cleanup(e.close)
	return e
}

func (e *env) open() {
	e.t.Helper()
	buildDir := filepath.Join(e.root, domain.DefaultBuildDir)
	opts := indexmap.Options{UseTransactions: true}

	content, err := indexmap.OpenContentIndex(domain.IndexPath(buildDir, domain.DefaultIndexName), opts)
	require.NoError(e.t, err)
	results, err := indexmap.OpenResultIndex(domain.IndexPath(buildDir, domain.ResultsIndexName), opts)
	require.NoError(e.t, err)

	e.db = scheduler.Storage{Objects: e.store, Content: content, Results: results}
}

func (e *env) close() {
	if e.db.Content != nil {
		_ = e.db.Content.Close()
	}
	if e.db.Results != nil {
		_ = e.db.Results.Close()
	}
	e.db.Content, e.db.Results = nil, nil
}

// reopen closes and reopens the indexes so that only saved state survives.
func (e *env) reopen() {
	e.close()
	e.open()
}

func (e *env) writeFile(name, content string) domain.ObjectURL {
	e.t.Helper()
	require.NoError(e.t, os.WriteFile(filepath.Join(e.root, name), []byte(content), domain.FilePerm))
	return domain.NewFileURL(name)
}

func (e *env) run(ctx context.Context, g *scheduler.Graph, threads int) *scheduler.Report {
	e.t.Helper()
	report, err := e.sched.Run(ctx, g, e.db, scheduler.Options{ThreadCount: threads, Root: e.root})
	require.NoError(e.t, err)
	return report
}

// read returns the content the index currently maps url to.
func (e *env) read(url domain.ObjectURL) string {
	e.t.Helper()
	id := e.lookup(url)
	rc, err := e.store.OpenForRead(context.Background(), id)
	require.NoError(e.t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(e.t, err)
	return string(data)
}

func (e *env) lookup(url domain.ObjectURL) domain.ObjectID {
	e.t.Helper()
	id, ok, err := e.db.Content.TryGet(url.Path.String())
	require.NoError(e.t, err)
	require.True(e.t, ok, "no index entry for %s", url)
	return id
}

func graphOf(cmds ...ports.Command) (*scheduler.Graph, []scheduler.StepID) {
	g := scheduler.NewGraph()
	ids := make([]scheduler.StepID, len(cmds))
	for i, cmd := range cmds {
		ids[i] = g.Add(cmd)
	}
	return g, ids
}
