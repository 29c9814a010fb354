package fs

import "go.trai.ch/kiln/internal/core/domain"

// HashFile exposes the default content hasher.
var HashFile = hashFile

// SetHasher replaces the content hasher.
func (t *Tracker) SetHasher(fn func(path string) (domain.ObjectID, error)) {
	t.hash = fn
}
