package shell_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestExecutor_Run_PipesStdinToStdout(t *testing.T) {
	var out bytes.Buffer
	err := shell.NewExecutor().Run(context.Background(), shell.Invocation{
		Argv:   []string{"sh", "-c", "tr a-z A-Z"},
		Dir:    t.TempDir(),
		Stdin:  strings.NewReader("shader"),
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "SHADER", out.String())
}

func TestExecutor_Run_MultiLineStderr(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug("line1").Times(1)
	mockLogger.EXPECT().Debug("line2").Times(1)

	var stderr bytes.Buffer
	err := shell.NewExecutor().Run(context.Background(), shell.Invocation{
		Argv:   []string{"sh", "-c", "echo line1 >&2; echo line2 >&2"},
		Dir:    t.TempDir(),
		Stderr: &stderr,
		Logger: mockLogger,
	})
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\n", stderr.String())
}

func TestExecutor_Run_FragmentedStderr(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug("part1part2").Times(1)
	mockLogger.EXPECT().Debug("tail").Times(1)

	err := shell.NewExecutor().Run(context.Background(), shell.Invocation{
		Argv:   []string{"sh", "-c", "printf part1 >&2; sleep 0.1; echo part2 >&2; printf tail >&2"},
		Dir:    t.TempDir(),
		Logger: mockLogger,
	})
	require.NoError(t, err)
}

func TestExecutor_Run_EnvironmentOverrides(t *testing.T) {
	t.Setenv("KILN_TEST_BASE", "base")

	var out bytes.Buffer
	err := shell.NewExecutor().Run(context.Background(), shell.Invocation{
		Argv:   []string{"sh", "-c", "echo $KILN_TEST_BASE-$KILN_TEST_VALUE"},
		Dir:    t.TempDir(),
		Env:    map[string]string{"KILN_TEST_VALUE": "override"},
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "base-override\n", out.String())
}

func TestExecutor_Run_ExitCode(t *testing.T) {
	err := shell.NewExecutor().Run(context.Background(), shell.Invocation{
		Argv: []string{"sh", "-c", "exit 3"},
		Dir:  t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestExecutor_Run_EmptyCommand(t *testing.T) {
	err := shell.NewExecutor().Run(context.Background(), shell.Invocation{})
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)
}

func TestExecutor_Run_Cancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := shell.NewExecutor().Run(ctx, shell.Invocation{
		Argv: []string{"sleep", "10"},
		Dir:  t.TempDir(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
