// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/kiln/internal/adapters/commands"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

const slowestSteps = 5

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	factory      *commands.Factory
	scheduler    *scheduler.Scheduler
	tracker      ports.FileTracker
	watcher      ports.Watcher
	recorder     ports.Telemetry
	timings      *telemetry.Timings
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	factory *commands.Factory,
	sched *scheduler.Scheduler,
	tracker ports.FileTracker,
	watcher ports.Watcher,
	recorder ports.Telemetry,
	timings *telemetry.Timings,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		factory:      factory,
		scheduler:    sched,
		tracker:      tracker,
		watcher:      watcher,
		recorder:     recorder,
		timings:      timings,
		logger:       log,
	}
}

// BuildOptions configure a build.
type BuildOptions struct {
	// ConfigPath is the config file or a directory to search for kiln.yaml.
	ConfigPath string
	// Threads overrides the configured worker count when positive.
	Threads int
	// NoIndex skips writing the content index at the end of the build.
	NoIndex bool
	// Force resets the content and result indexes before building.
	Force bool
}

// CleanOptions configure a clean.
type CleanOptions struct {
	ConfigPath string
	// Delete also removes every recorded output object from the store.
	Delete bool
}

// Build loads the project and builds every step incrementally. A build that
// ran but did not succeed returns domain.ErrBuildFailed or
// domain.ErrBuildCancelled together with its report.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*scheduler.Report, error) {
	project, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return a.build(ctx, project, opts)
}

func (a *App) build(ctx context.Context, project *domain.Project, opts BuildOptions) (*scheduler.Report, error) {
	g, err := a.buildGraph(project)
	if err != nil {
		return nil, err
	}

	db, err := a.openDatabase(ctx, project)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			a.logger.Error(zerr.Wrap(cerr, "close build database"))
		}
	}()

	if opts.Force {
		if err := errors.Join(db.content.Reset(), db.results.Reset()); err != nil {
			return nil, zerr.Wrap(err, "reset indexes")
		}
	}

	threads := project.Threads
	if opts.Threads > 0 {
		threads = opts.Threads
	}

	report, err := a.scheduler.Run(ctx, g, db.storage(), scheduler.Options{
		Mode:          domain.ModeBuild,
		ThreadCount:   threads,
		SkipIndexFile: opts.NoIndex,
		Root:          project.Root,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "build execution failed")
	}

	a.record(db, report)
	a.logTimings()

	switch report.Code {
	case domain.BuildError:
		return report, zerr.With(zerr.Wrap(domain.ErrBuildFailed, "build"), "failed", report.Failed+report.Skipped)
	case domain.BuildCancelled:
		return report, zerr.With(zerr.Wrap(domain.ErrBuildCancelled, "build"), "cancelled", report.Cancelled)
	default:
		return report, nil
	}
}

// Clean drops the cached command results of the project.
func (a *App) Clean(ctx context.Context, opts CleanOptions) error {
	project, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	db, err := a.openDatabase(ctx, project)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	mode := domain.ModeClean
	if opts.Delete {
		mode = domain.ModeCleanAndDelete
	}
	report, err := a.scheduler.Run(ctx, scheduler.NewGraph(), db.storage(), scheduler.Options{Mode: mode})
	if err != nil {
		return zerr.Wrap(err, "clean failed")
	}
	a.record(db, report)
	return nil
}

// History returns every recorded build of the project, oldest first.
func (a *App) History(ctx context.Context, configPath string) ([]domain.BuildRecord, error) {
	project, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	db, err := a.openDatabase(ctx, project)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	records, err := db.history.Records()
	if err != nil {
		return nil, zerr.Wrap(err, "read build history")
	}
	return records, nil
}

// Close flushes the progress recording.
func (a *App) Close() error {
	return a.recorder.Close()
}

// record appends the run to the build history. History is informational, so
// failures are logged only.
func (a *App) record(db *database, report *scheduler.Report) {
	if err := db.history.Append(report.Record()); err != nil {
		a.logger.Error(zerr.Wrap(err, "record build history"))
	}
}

func (a *App) logTimings() {
	for _, t := range a.timings.Slowest(slowestSteps) {
		if t.Cached {
			continue
		}
		a.logger.Debug(fmt.Sprintf("step %s took %s", t.Name, t.Duration.Round(time.Millisecond)))
	}
	a.timings.Reset()
}

// ConfigureLogging applies the CLI logging flags when the logger supports them.
func (a *App) ConfigureLogging(verbose, json bool) {
	cfg, ok := a.logger.(interface {
		SetJSON(enable bool)
		SetLevel(level domain.LogLevel)
	})
	if !ok {
		return
	}
	cfg.SetJSON(json)
	if verbose {
		cfg.SetLevel(domain.LogLevelDebug)
	}
}
