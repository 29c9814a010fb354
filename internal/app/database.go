package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.trai.ch/kiln/internal/adapters/cas"      //nolint:depguard // The app layer owns the database lifecycle
	"go.trai.ch/kiln/internal/adapters/indexmap" //nolint:depguard // The app layer owns the database lifecycle
	"go.trai.ch/kiln/internal/adapters/s3mirror" //nolint:depguard // The app layer owns the database lifecycle
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// database is the build database of one project, open for one run.
type database struct {
	objects *cas.Store
	content *indexmap.ContentIndex
	results *indexmap.ResultIndex
	history *indexmap.HistoryLog
}

func (db *database) storage() scheduler.Storage {
	return scheduler.Storage{Objects: db.objects, Content: db.content, Results: db.results}
}

// Close closes every index. It is safe to call on a partially opened database.
func (db *database) Close() error {
	var errs error
	if db.content != nil {
		errs = errors.Join(errs, db.content.Close())
	}
	if db.results != nil {
		errs = errors.Join(errs, db.results.Close())
	}
	if db.history != nil {
		errs = errors.Join(errs, db.history.Close())
	}
	return errs
}

// openDatabase opens the object store and the indexes under the project's
// build directory, wiping them first if they were written by another format.
func (a *App) openDatabase(ctx context.Context, project *domain.Project) (*database, error) {
	if err := a.checkVersion(project.BuildDir); err != nil {
		return nil, err
	}

	objects, err := a.openObjects(ctx, project)
	if err != nil {
		return nil, err
	}

	db := &database{objects: objects}
	opts := indexmap.Options{UseTransactions: true, Logger: a.logger}

	if db.content, err = indexmap.OpenContentIndex(domain.IndexPath(project.BuildDir, project.IndexName), opts); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if db.results, err = indexmap.OpenResultIndex(domain.IndexPath(project.BuildDir, domain.ResultsIndexName), opts); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	historyOpts := indexmap.Options{Logger: a.logger}
	if db.history, err = indexmap.OpenHistoryLog(domain.IndexPath(project.BuildDir, domain.HistoryIndexName), historyOpts); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return db, nil
}

func (a *App) openObjects(ctx context.Context, project *domain.Project) (*cas.Store, error) {
	root := domain.ObjectsPath(project.BuildDir)
	if project.Mirror == nil {
		return cas.NewStore(root, cas.WithLogger(a.logger))
	}

	mirror := s3mirror.New(s3mirror.Connect(*project.Mirror), project.Mirror.Bucket, project.Mirror.Prefix)
	store, err := cas.NewStore(root, cas.WithMirror(mirror), cas.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	store.Subscribe(mirror.Replicate(ctx, a.logger))
	a.logger.Debug(fmt.Sprintf("mirroring objects to s3://%s/%s", project.Mirror.Bucket, project.Mirror.Prefix))
	return store, nil
}

// checkVersion compares the database version file with the expected format
// version. On mismatch every object and index is deleted and the file rewritten.
func (a *App) checkVersion(buildDir string) error {
	path := domain.VersionFilePath(buildDir)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the configured build directory
	if err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil && v == domain.ExpectedDatabaseVersion {
			return nil
		}
	}

	if err == nil {
		a.logger.Warn(fmt.Sprintf("database format changed; resetting %s", domain.DatabasePath(buildDir)))
	}
	for _, dir := range []string{domain.ObjectsPath(buildDir), domain.IndexPath(buildDir, "")} {
		if err := os.RemoveAll(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "reset build database"), "path", dir)
		}
	}

	if err := os.MkdirAll(domain.DatabasePath(buildDir), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "create build database"), "path", buildDir)
	}
	content := strconv.Itoa(domain.ExpectedDatabaseVersion) + "\n"
	if err := os.WriteFile(path, []byte(content), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "write database version"), "path", path)
	}
	return nil
}
