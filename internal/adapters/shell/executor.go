// Package shell runs external programs for exec build steps.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Invocation describes one program run.
type Invocation struct {
	// Argv is the program and its arguments.
	Argv []string
	// Dir is the working directory.
	Dir string
	// Env overrides variables of the current process environment.
	Env map[string]string
	// Stdin, Stdout and Stderr may be nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Logger receives stderr line by line at debug level. May be nil.
	Logger ports.Logger
}

// Executor runs programs using os/exec.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Run starts inv and waits for it. The process is killed when ctx is cancelled.
func (e *Executor) Run(ctx context.Context, inv Invocation) error {
	if len(inv.Argv) == 0 {
		return zerr.Wrap(domain.ErrInvalidCommand, "empty command line")
	}

	name := inv.Argv[0]
	env := resolveEnvironment(os.Environ(), inv.Env)

	// Resolve the executable using the new environment's PATH.
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, inv.Argv[1:]...) //nolint:gosec // user provided command
	// exec.CommandContext sets Args[0] to the executable path; keep the name as invoked.
	cmd.Args[0] = name
	cmd.Dir = inv.Dir
	cmd.Env = env
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout

	var stderr []io.Writer
	if inv.Stderr != nil {
		stderr = append(stderr, inv.Stderr)
	}
	var lw *lineWriter
	if inv.Logger != nil {
		lw = &lineWriter{logger: inv.Logger}
		stderr = append(stderr, lw)
	}
	if len(stderr) > 0 {
		cmd.Stderr = io.MultiWriter(stderr...)
	}

	err := cmd.Run()
	if lw != nil {
		lw.Flush()
	}
	if err != nil {
		if ctx.Err() != nil {
			return zerr.With(zerr.Wrap(ctx.Err(), "command interrupted"), "command", name)
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, "command failed"), "command", name), "exit_code", exitCode)
	}
	return nil
}

// lineWriter buffers partial writes and logs complete lines.
type lineWriter struct {
	logger ports.Logger
	mu     sync.Mutex
	buf    bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.logger.Debug(strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

// Flush logs a trailing line without newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.logger.Debug(w.buf.String())
		w.buf.Reset()
	}
}

// resolveEnvironment overlays overrides on the system environment.
// The result is sorted so that runs are reproducible.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
