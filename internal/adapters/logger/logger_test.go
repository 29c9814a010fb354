package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func newBufferedLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	lg, buf := newBufferedLogger(t)

	lg.Debug("hidden")
	lg.Info("some message")
	lg.Warn("some warning")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "some message")
	assert.Contains(t, out, "! some warning")

	buf.Reset()
	lg.SetLevel(domain.LogLevelDebug)
	lg.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_With(t *testing.T) {
	lg, buf := newBufferedLogger(t)

	child := lg.With("step", "atlas")
	child.With("kind", "concat").Info("running")
	lg.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "running step=atlas kind=concat", lines[0])
	assert.Equal(t, "plain", lines[1])
}

func TestLogger_ChildFollowsOutput(t *testing.T) {
	lg, _ := newBufferedLogger(t)
	child := lg.With("step", "a")

	buf := &bytes.Buffer{}
	lg.SetOutput(buf)
	child.Info("moved")

	assert.Contains(t, buf.String(), "moved step=a")
}

func TestLogger_ErrorPretty(t *testing.T) {
	lg, buf := newBufferedLogger(t)

	err := zerr.With(zerr.Wrap(errors.New("disk full"), "write index"), "path", "/tmp/x")
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, "✗ Error: write index (path=/tmp/x)")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "→ disk full")
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.SetJSON(true)

	lg.With("step", "atlas").Error(zerr.With(zerr.New("boom"), "code", 3))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, slog.LevelError.String(), record["level"])
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "atlas", record["step"])
	assert.Contains(t, record["error"], "boom")
	assert.InDelta(t, 3, record["code"], 0)
}
