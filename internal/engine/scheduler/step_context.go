package scheduler

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ExecuteContext = (*stepContext)(nil)

// stepContext is the ExecuteContext handed to a running command. It records
// every input version and output object the command touches.
type stepContext struct {
	ctx     context.Context
	id      StepID
	run     *runState
	logger  ports.Logger
	output  io.Writer
	monitor *ioMonitor

	mu       sync.Mutex
	result   *domain.CommandResult
	spawned  []ports.Command
	infraErr error
}

func (sc *stepContext) Logger() ports.Logger { return sc.logger }

func (sc *stepContext) Output() io.Writer { return sc.output }

func (sc *stepContext) Spawn(cmd ports.Command) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.spawned = append(sc.spawned, cmd)
}

func (sc *stepContext) OpenInput(url domain.ObjectURL) (io.ReadCloser, error) {
	sc.monitor.read(sc.id, url)

	if url.Type == domain.URLTypeFile {
		path := sc.run.resolvePath(url)
		version, err := sc.run.s.tracker.Version(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "version input"), "url", url.String())
		}
		f, err := os.Open(path) //nolint:gosec // build inputs are user provided paths
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "open input"), "url", url.String())
		}
		sc.recordInput(url, version)
		return f, nil
	}

	id, err := sc.run.contentVersion(url)
	if err != nil {
		sc.fail(err)
		return nil, err
	}
	if id.IsEmpty() {
		return nil, zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "resolve content input"), "url", url.String())
	}
	rc, err := sc.run.db.Objects.OpenForRead(sc.ctx, id)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "open content input"), "url", url.String())
	}
	sc.recordInput(url, id)
	return rc, nil
}

func (sc *stepContext) CreateOutput(url domain.ObjectURL) (io.WriteCloser, error) {
	if url.Type != domain.URLTypeContent {
		return nil, zerr.With(zerr.Wrap(domain.ErrOutputNotContent, "create output"), "url", url.String())
	}
	if _, isBlob := url.BlobID(); isBlob {
		return nil, zerr.With(zerr.Wrap(domain.ErrOutputNotContent, "outputs cannot address a blob id"), "url", url.String())
	}
	sc.monitor.write(sc.id, url)

	w, err := sc.run.db.Objects.CreateWriteStream()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "create output stream"), "url", url.String())
	}
	return &outputWriter{w: w, sc: sc, url: url}, nil
}

func (sc *stepContext) recordInput(url domain.ObjectURL, version domain.ObjectID) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.result.InputDependencyVersions[url] = version
}

// recordOutput stores the committed blob and makes it visible to steps that
// start later in the same run.
func (sc *stepContext) recordOutput(url domain.ObjectURL, id domain.ObjectID) error {
	sc.mu.Lock()
	sc.result.OutputObjects[url] = id
	sc.mu.Unlock()

	if err := sc.run.db.Content.Add(url.Path.String(), id); err != nil {
		sc.fail(err)
		return err
	}
	return nil
}

// fail records an infrastructure error that aborts the run.
func (sc *stepContext) fail(err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.infraErr = errors.Join(sc.infraErr, err)
}

type outputWriter struct {
	w    ports.ObjectWriter
	sc   *stepContext
	url  domain.ObjectURL
	done bool
}

func (o *outputWriter) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Close commits the blob and records it as the output of the step.
func (o *outputWriter) Close() error {
	if o.done {
		return nil
	}
	o.done = true

	id, err := o.w.Commit()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "commit output"), "url", o.url.String())
	}
	return o.sc.recordOutput(o.url, id)
}

// Abort discards the written bytes.
func (o *outputWriter) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	return o.w.Abort()
}

func resolvePath(root string, url domain.ObjectURL) string {
	p := filepath.FromSlash(url.Path.String())
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}
