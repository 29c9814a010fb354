package domain

import "path/filepath"

const (
	// DefaultBuildDir is the default root of the build database.
	DefaultBuildDir = ".kiln"

	// DatabaseDirName holds everything the engine persists between runs.
	DatabaseDirName = "db"

	// ObjectsDirName is the name of the content addressable store directory.
	ObjectsDirName = "objects"

	// IndexDirName holds the index store files.
	IndexDirName = "index"

	// VersionFileName records the on-disk format version of the database.
	VersionFileName = "version"

	// DefaultIndexName is the default name of the content index file.
	DefaultIndexName = "content"

	// ResultsIndexName is the name of the command result index file.
	ResultsIndexName = "results"

	// HistoryIndexName is the name of the build history log.
	HistoryIndexName = "history"

	// ConfigFileName is the name of the build description file.
	ConfigFileName = "kiln.yaml"

	// ExpectedDatabaseVersion is bumped whenever the on-disk format changes.
	// A mismatch wipes every loose object and index.
	ExpectedDatabaseVersion = 1

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DatabasePath returns <buildDir>/db.
func DatabasePath(buildDir string) string {
	return filepath.Join(buildDir, DatabaseDirName)
}

// ObjectsPath returns <buildDir>/db/objects.
func ObjectsPath(buildDir string) string {
	return filepath.Join(buildDir, DatabaseDirName, ObjectsDirName)
}

// IndexPath returns the path of the named index file under <buildDir>/db/index.
func IndexPath(buildDir, name string) string {
	return filepath.Join(buildDir, DatabaseDirName, IndexDirName, name)
}

// VersionFilePath returns <buildDir>/db/version.
func VersionFilePath(buildDir string) string {
	return filepath.Join(buildDir, DatabaseDirName, VersionFileName)
}
