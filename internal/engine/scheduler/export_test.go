package scheduler

import "go.trai.ch/kiln/internal/core/domain"

// Fingerprint returns the fingerprint computed for id in the last run.
// This is exported for testing purposes only.
func (g *Graph) Fingerprint(id StepID) domain.Fingerprint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.steps[id].fingerprint
}
