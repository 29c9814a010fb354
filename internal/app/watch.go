package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/kiln/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultDebounce is how long file changes are collected before a rebuild.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configure watch mode.
type WatchOptions struct {
	BuildOptions
	Debounce time.Duration
}

// Watch builds the project and rebuilds it whenever a file below the project
// root changes, until ctx is cancelled. Failed builds and configuration
// errors are reported and watching continues.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	project, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	if err := a.watcher.Start(ctx, project.Root, project.BuildDir); err != nil {
		return zerr.Wrap(err, "start watcher")
	}
	defer func() { _ = a.watcher.Stop() }()

	window := opts.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	trigger := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(window, func(paths []string) {
		a.tracker.Invalidate(paths...)
		a.logger.Info(fmt.Sprintf("%d files changed, rebuilding", len(paths)))
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
	}()

	// Every build rereads the config so that edits to it take effect.
	buildOnce := func() error {
		_, err := a.Build(ctx, opts.BuildOptions)
		switch {
		case err == nil,
			errors.Is(err, domain.ErrBuildFailed),
			errors.Is(err, domain.ErrBuildCancelled):
			return nil
		case errors.Is(err, domain.ErrConfigReadFailed),
			errors.Is(err, domain.ErrConfigParseFailed),
			errors.Is(err, domain.ErrInvalidCommand),
			errors.Is(err, domain.ErrUnknownCommandKind),
			errors.Is(err, domain.ErrMissingDependency),
			errors.Is(err, domain.ErrCycleDetected),
			errors.Is(err, domain.ErrNoSteps):
			a.logger.Error(err)
			return nil
		default:
			return err
		}
	}

	a.logger.Info(fmt.Sprintf("watching %s", project.Root))
	if err := buildOnce(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			if err := buildOnce(); err != nil {
				return err
			}
		}
	}
}
