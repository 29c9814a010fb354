package commands_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/commands"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// memoryContext serves inputs from memory and keeps committed outputs.
type memoryContext struct {
	mu      sync.Mutex
	inputs  map[domain.ObjectURL][]byte
	outputs map[domain.ObjectURL][]byte
	aborted []domain.ObjectURL
	stderr  bytes.Buffer
	spawned []ports.Command
	logger  ports.Logger
}

func newMemoryContext(t *testing.T, inputs map[domain.ObjectURL][]byte) *memoryContext {
	t.Helper()
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return &memoryContext{
		inputs:  inputs,
		outputs: make(map[domain.ObjectURL][]byte),
		logger:  logger,
	}
}

func (m *memoryContext) Logger() ports.Logger { return m.logger }

func (m *memoryContext) Output() io.Writer { return &m.stderr }

func (m *memoryContext) OpenInput(url domain.ObjectURL) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.inputs[url]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryContext) CreateOutput(url domain.ObjectURL) (io.WriteCloser, error) {
	return &memoryOutput{ctx: m, url: url}, nil
}

func (m *memoryContext) Spawn(cmd ports.Command) {
	m.spawned = append(m.spawned, cmd)
}

type memoryOutput struct {
	bytes.Buffer
	ctx *memoryContext
	url domain.ObjectURL
}

func (o *memoryOutput) Close() error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.ctx.outputs[o.url] = o.Bytes()
	return nil
}

func (o *memoryOutput) Abort() error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.ctx.aborted = append(o.ctx.aborted, o.url)
	return nil
}

func newCommand(t *testing.T, spec domain.StepSpec) ports.Command {
	t.Helper()
	cmd, err := commands.NewFactory(shell.NewExecutor()).New(spec, t.TempDir())
	require.NoError(t, err)
	return cmd
}

func TestImport_CopiesFile(t *testing.T) {
	src := domain.NewFileURL("art/logo.png")
	out := domain.NewContentURL("textures/logo")
	cmd := newCommand(t, domain.StepSpec{
		Name:   domain.NewInternedString("logo"),
		Kind:   commands.KindImport,
		Inputs: []domain.ObjectURL{src},
		Output: out,
	})

	ectx := newMemoryContext(t, map[domain.ObjectURL][]byte{src: []byte("png")})
	require.NoError(t, cmd.Execute(context.Background(), ectx))

	assert.Equal(t, []byte("png"), ectx.outputs[out])
	assert.Equal(t, "logo", cmd.Title())
	assert.Equal(t, []domain.ObjectURL{src}, cmd.InputFiles())
}

func TestConcat_JoinsInOrder(t *testing.T) {
	a := domain.NewFileURL("a.glsl")
	b := domain.NewContentURL("shaders/common")
	out := domain.NewContentURL("shaders/full")
	cmd := newCommand(t, domain.StepSpec{
		Name:   domain.NewInternedString("shader"),
		Kind:   commands.KindConcat,
		Inputs: []domain.ObjectURL{b, a},
		Output: out,
	})

	ectx := newMemoryContext(t, map[domain.ObjectURL][]byte{a: []byte("main"), b: []byte("common;")})
	require.NoError(t, cmd.Execute(context.Background(), ectx))
	assert.Equal(t, "common;main", string(ectx.outputs[out]))
}

func TestConcat_MissingInputAbortsOutput(t *testing.T) {
	out := domain.NewContentURL("out")
	cmd := newCommand(t, domain.StepSpec{
		Name:   domain.NewInternedString("broken"),
		Kind:   commands.KindConcat,
		Inputs: []domain.ObjectURL{domain.NewContentURL("nowhere")},
		Output: out,
	})

	ectx := newMemoryContext(t, nil)
	err := cmd.Execute(context.Background(), ectx)
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
	assert.NotContains(t, ectx.outputs, out)
	assert.Equal(t, []domain.ObjectURL{out}, ectx.aborted)
}

func TestConcat_ObservesCancellation(t *testing.T) {
	in := domain.NewFileURL("big.bin")
	cmd := newCommand(t, domain.StepSpec{
		Name:   domain.NewInternedString("big"),
		Kind:   commands.KindConcat,
		Inputs: []domain.ObjectURL{in},
		Output: domain.NewContentURL("big"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cmd.Execute(ctx, newMemoryContext(t, map[domain.ObjectURL][]byte{in: []byte("data")}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExec_PipesInputsThroughProgram(t *testing.T) {
	in := domain.NewFileURL("name.txt")
	out := domain.NewContentURL("upper")
	cmd := newCommand(t, domain.StepSpec{
		Name:   domain.NewInternedString("upper"),
		Kind:   commands.KindExec,
		Inputs: []domain.ObjectURL{in},
		Output: out,
		Args:   []string{"sh", "-c", "echo converting >&2; tr a-z A-Z"},
	})

	ectx := newMemoryContext(t, map[domain.ObjectURL][]byte{in: []byte("kiln")})
	require.NoError(t, cmd.Execute(context.Background(), ectx))
	assert.Equal(t, "KILN", string(ectx.outputs[out]))
	assert.Equal(t, "converting\n", ectx.stderr.String())
}

func TestExec_FailureAbortsOutput(t *testing.T) {
	out := domain.NewContentURL("never")
	cmd := newCommand(t, domain.StepSpec{
		Name:   domain.NewInternedString("fail"),
		Kind:   commands.KindExec,
		Output: out,
		Args:   []string{"sh", "-c", "exit 1"},
	})

	ectx := newMemoryContext(t, nil)
	require.Error(t, cmd.Execute(context.Background(), ectx))
	assert.NotContains(t, ectx.outputs, out)
}

func TestFanout_SpawnsOneImportPerInput(t *testing.T) {
	a := domain.NewFileURL("icons/a.png")
	b := domain.NewFileURL("icons/b.png")
	cmd := newCommand(t, domain.StepSpec{
		Name:   domain.NewInternedString("icons"),
		Kind:   commands.KindFanout,
		Inputs: []domain.ObjectURL{a, b},
		Output: domain.NewContentURL("ui/icons"),
	})
	assert.Empty(t, cmd.InputFiles())
	assert.Equal(t, []domain.ObjectURL{a, b}, cmd.InputDependencies())

	ctrl := gomock.NewController(t)
	ectx := mocks.NewMockExecuteContext(ctrl)
	var spawned []ports.Command
	ectx.EXPECT().Spawn(gomock.Any()).Do(func(c ports.Command) { spawned = append(spawned, c) }).Times(2)

	require.NoError(t, cmd.Execute(context.Background(), ectx))
	require.Len(t, spawned, 2)
	assert.Equal(t, "icons/a.png", spawned[0].Title())
	assert.Equal(t, commands.KindImport, spawned[1].Kind())

	child, ok := spawned[1].(*commands.Import)
	require.True(t, ok)
	assert.Equal(t, domain.NewContentURL("ui/icons/b.png"), child.Output())
}

func parameters(t *testing.T, cmd ports.Command) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, cmd.WriteParameters(&buf))
	return buf.Bytes()
}

func TestWriteParameters_DistinguishesCommands(t *testing.T) {
	spec := domain.StepSpec{
		Name:   domain.NewInternedString("x"),
		Kind:   commands.KindExec,
		Inputs: []domain.ObjectURL{domain.NewFileURL("in")},
		Output: domain.NewContentURL("out"),
		Args:   []string{"tool", "--fast"},
		Env:    map[string]string{"B": "2", "A": "1"},
	}
	base := parameters(t, newCommand(t, spec))
	assert.Equal(t, base, parameters(t, newCommand(t, spec)), "parameters are deterministic")

	renamed := spec
	renamed.Name = domain.NewInternedString("y")
	assert.Equal(t, base, parameters(t, newCommand(t, renamed)), "the step name is not a parameter")

	otherArgs := spec
	otherArgs.Args = []string{"tool", "--", "fast"}
	assert.NotEqual(t, base, parameters(t, newCommand(t, otherArgs)))

	otherEnv := spec
	otherEnv.Env = map[string]string{"A": "1", "B": "3"}
	assert.NotEqual(t, base, parameters(t, newCommand(t, otherEnv)))

	otherOutput := spec
	otherOutput.Output = domain.NewContentURL("elsewhere")
	assert.NotEqual(t, base, parameters(t, newCommand(t, otherOutput)))
}

func TestFactory_Validation(t *testing.T) {
	factory := commands.NewFactory(shell.NewExecutor())
	name := domain.NewInternedString("s")

	tests := []struct {
		name string
		spec domain.StepSpec
		want error
	}{
		{
			name: "unknown kind",
			spec: domain.StepSpec{Name: name, Kind: "compress", Output: domain.NewContentURL("o")},
			want: domain.ErrUnknownCommandKind,
		},
		{
			name: "file output",
			spec: domain.StepSpec{Name: name, Kind: commands.KindConcat, Inputs: []domain.ObjectURL{domain.NewFileURL("a")}, Output: domain.NewFileURL("o")},
			want: domain.ErrOutputNotContent,
		},
		{
			name: "import needs one file",
			spec: domain.StepSpec{Name: name, Kind: commands.KindImport, Inputs: []domain.ObjectURL{domain.NewContentURL("a")}, Output: domain.NewContentURL("o")},
			want: domain.ErrInvalidCommand,
		},
		{
			name: "exec needs args",
			spec: domain.StepSpec{Name: name, Kind: commands.KindExec, Output: domain.NewContentURL("o")},
			want: domain.ErrInvalidCommand,
		},
		{
			name: "blob output",
			spec: domain.StepSpec{Name: name, Kind: commands.KindFanout, Output: domain.NewBlobURL(domain.ComputeObjectID(nil))},
			want: domain.ErrInvalidCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.New(tt.spec, t.TempDir())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
