package ports

import "go.trai.ch/kiln/internal/core/domain"

//go:generate mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks

// ContentIndex maps logical Content URL paths to blob ids.
type ContentIndex interface {
	// TryGet returns the id recorded for path. Unsaved entries added by this
	// process are visible immediately.
	TryGet(path string) (domain.ObjectID, bool, error)
	// Add records path -> id.
	Add(path string, id domain.ObjectID) error
	// Entries returns a snapshot of every path, unsaved entries included.
	Entries() (map[string]domain.ObjectID, error)
	// Save flushes unsaved entries.
	Save() error
	// Refresh reads entries appended by other processes.
	Refresh() error
	// Reset truncates the index.
	Reset() error
	Close() error
}

// ResultIndex maps command fingerprints to their last successful result.
type ResultIndex interface {
	TryGet(fp domain.Fingerprint) (*domain.CommandResult, bool, error)
	Add(fp domain.Fingerprint, result *domain.CommandResult) error
	// Entries returns a snapshot of every cached result.
	Entries() (map[domain.Fingerprint]*domain.CommandResult, error)
	Save() error
	Reset() error
	Close() error
}

// HistoryLog is the append-only list of finished builds.
type HistoryLog interface {
	Append(record domain.BuildRecord) error
	Records() ([]domain.BuildRecord, error)
	Close() error
}
