// Package scheduler runs build graphs incrementally: it fingerprints every
// step, reuses cached results, deduplicates identical commands and executes
// the rest on a bounded worker pool.
package scheduler

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Storage is the build database a run reads from and writes to.
type Storage struct {
	Objects ports.ObjectStore
	Content ports.ContentIndex
	Results ports.ResultIndex
}

// Options configure a single run.
type Options struct {
	Mode domain.BuildMode
	// ThreadCount bounds the number of concurrently executing steps.
	// Zero or less means one per CPU.
	ThreadCount int
	// SkipIndexFile skips the final WriteIndexFile(merge=true).
	SkipIndexFile bool
	// Root is the directory relative File URLs resolve against.
	Root string
}

// Report summarises a run.
type Report struct {
	BuilderID uuid.UUID
	Mode      domain.BuildMode
	Code      domain.BuildResultCode
	Started   time.Time
	Finished  time.Time

	Steps     int
	Succeeded int
	UpToDate  int
	Failed    int
	Cancelled int
	Skipped   int
}

// Record converts the report into a history entry with a fresh id.
func (r *Report) Record() domain.BuildRecord {
	return domain.BuildRecord{
		ID:        uuid.New(),
		BuilderID: r.BuilderID,
		Mode:      r.Mode,
		Started:   r.Started,
		Finished:  r.Finished,
		Code:      r.Code,
		Steps:     r.Steps,
		Succeeded: r.Succeeded,
		UpToDate:  r.UpToDate,
		Failed:    r.Failed,
		Cancelled: r.Cancelled,
		Skipped:   r.Skipped,
	}
}

// Scheduler executes build graphs. A Scheduler runs one graph at a time.
type Scheduler struct {
	tracker   ports.FileTracker
	tracer    ports.Tracer
	telemetry ports.Telemetry
	logger    ports.Logger
	builderID uuid.UUID

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	tracker ports.FileTracker,
	tracer ports.Tracer,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		tracker:   tracker,
		tracer:    tracer,
		telemetry: telemetry,
		logger:    logger,
		builderID: uuid.New(),
	}
}

// BuilderID identifies this scheduler in build history records.
func (s *Scheduler) BuilderID() uuid.UUID {
	return s.builderID
}

// Cancel requests cancellation of the current run. Executing steps observe
// it through their context; steps that have not started are not started.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

// Run executes g against db. Step failures are reported through the step
// statuses and the report code; the returned error is reserved for
// infrastructure failures, which abort the run.
// The graph must not be modified by the caller while Run is in progress.
func (s *Scheduler) Run(ctx context.Context, g *Graph, db Storage, opts Options) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, zerr.Wrap(domain.ErrBuilderRunning, "run")
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	s.setCancel(cancel)
	defer func() {
		s.setCancel(nil)
		cancel()
	}()

	report := &Report{
		BuilderID: s.builderID,
		Mode:      opts.Mode,
		Started:   time.Now(),
	}

	if opts.Mode != domain.ModeBuild {
		if err := s.clean(ctx, db, opts.Mode == domain.ModeCleanAndDelete); err != nil {
			return nil, err
		}
		report.Finished = time.Now()
		s.logger.Info("Clean finished.")
		return report, nil
	}

	order, err := g.prepareRun()
	if err != nil {
		return nil, err
	}

	threads := opts.ThreadCount
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	titles := make([]string, len(order))
	for i, id := range order {
		titles[i] = g.step(id).cmd.Title()
	}
	s.tracer.EmitPlan(ctx, titles)

	st := newRunState(ctx, cancel, s, g, db, opts, threads, order)
	if err := st.loop(); err != nil {
		return nil, err
	}

	if err := db.Content.Save(); err != nil {
		return nil, zerr.Wrap(err, "save content index")
	}
	if err := db.Results.Save(); err != nil {
		return nil, zerr.Wrap(err, "save result index")
	}
	if !opts.SkipIndexFile {
		if err := s.WriteIndexFile(g, db, true); err != nil {
			return nil, err
		}
	}

	report.Finished = time.Now()
	report.Steps = st.counter.Total()
	report.Succeeded = st.counter.Get(domain.StatusSuccessful)
	report.UpToDate = st.counter.Get(domain.StatusNotTriggeredWasSuccessful)
	report.Failed = st.counter.Get(domain.StatusFailed)
	report.Cancelled = st.counter.Get(domain.StatusCancelled)
	report.Skipped = st.counter.Get(domain.StatusNotTriggeredPrerequisiteFailed)

	switch {
	case ctx.Err() != nil || report.Cancelled > 0:
		report.Code = domain.BuildCancelled
	case report.Failed > 0 || report.Skipped > 0:
		report.Code = domain.BuildError
	default:
		report.Code = domain.BuildSuccessful
	}

	s.logSummary(report)
	return report, nil
}

func (s *Scheduler) logSummary(r *Report) {
	s.logger.Info(fmt.Sprintf(
		"Build finished in %d steps. Command results: %d succeeded, %d up-to-date, %d failed, %d not triggered due to previous failure.",
		r.Steps, r.Succeeded, r.UpToDate, r.Failed, r.Skipped))

	switch r.Code {
	case domain.BuildSuccessful:
		s.logger.Info("Build is successful.")
	case domain.BuildCancelled:
		s.logger.Warn(fmt.Sprintf("Build cancelled. %d steps were cancelled.", r.Cancelled))
	default:
		s.logger.Warn("Build failed.")
	}
}

// WriteIndexFile records the Content outputs of every step that succeeded
// in the last run and saves the content index. Unless merge is set, the
// index is reset first so that it only holds the outputs of this graph.
func (s *Scheduler) WriteIndexFile(g *Graph, db Storage, merge bool) error {
	if !merge {
		if err := db.Content.Reset(); err != nil {
			return zerr.Wrap(err, "reset content index")
		}
	}

	for id := range g.Steps() {
		if !g.Status(id).Succeeded() {
			continue
		}
		result := g.Result(id)
		if result == nil {
			continue
		}
		for _, url := range result.SortedOutputs() {
			if !indexable(url) {
				continue
			}
			if err := db.Content.Add(url.Path.String(), result.OutputObjects[url]); err != nil {
				return zerr.With(zerr.Wrap(err, "write index file"), "url", url.String())
			}
		}
	}

	if err := db.Content.Save(); err != nil {
		return zerr.Wrap(err, "save content index")
	}
	return nil
}

// clean drops every cached command result. With deleteOutputs set, the
// objects those results recorded are deleted and the content index is reset.
func (s *Scheduler) clean(ctx context.Context, db Storage, deleteOutputs bool) error {
	if deleteOutputs {
		entries, err := db.Results.Entries()
		if err != nil {
			return zerr.Wrap(err, "read result index")
		}

		ids := make(map[domain.ObjectID]struct{})
		for _, result := range entries {
			for _, id := range result.OutputObjects {
				ids[id] = struct{}{}
			}
		}

		eg, _ := errgroup.WithContext(ctx)
		eg.SetLimit(runtime.NumCPU())
		for _, id := range slices.SortedFunc(maps.Keys(ids), domain.ObjectID.Compare) {
			eg.Go(func() error {
				if err := db.Objects.Delete(id); err != nil {
					return zerr.With(zerr.Wrap(err, "delete output object"), "object", id.String())
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		s.logger.Info(fmt.Sprintf("Deleted %d output objects.", len(ids)))

		if err := db.Content.Reset(); err != nil {
			return zerr.Wrap(err, "reset content index")
		}
	}

	if err := db.Results.Reset(); err != nil {
		return zerr.Wrap(err, "reset result index")
	}
	return nil
}

// indexable reports whether url names a logical path of the content index.
func indexable(url domain.ObjectURL) bool {
	if url.Type != domain.URLTypeContent {
		return false
	}
	_, isBlob := url.BlobID()
	return !isBlob
}
