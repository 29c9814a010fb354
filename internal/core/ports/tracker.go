package ports

import "go.trai.ch/kiln/internal/core/domain"

// FileTracker computes content versions of File URLs.
//
//go:generate mockgen -source=tracker.go -destination=mocks/mock_tracker.go -package=mocks
type FileTracker interface {
	// Version returns the content hash of the file at path.
	// A missing file has version domain.EmptyObjectID and no error.
	Version(path string) (domain.ObjectID, error)
	// Invalidate drops cached versions for the given paths.
	Invalidate(paths ...string)
}
