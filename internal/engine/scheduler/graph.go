package scheduler

import (
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// StepID identifies a build step within its graph. IDs are never reused.
type StepID int

const noStep StepID = -1

type buildStep struct {
	cmd ports.Command
	// parents are the steps that depend on this one.
	parents map[StepID]struct{}
	// children are the prerequisites of this step.
	children map[StepID]struct{}
	// spawnedBy is the step whose command spawned this one, or noStep.
	spawnedBy StepID
	detached  bool

	status      domain.ResultStatus
	result      *domain.CommandResult
	fingerprint domain.Fingerprint
	err         error
}

// Graph is an arena of build steps connected by prerequisite edges.
// It is safe for concurrent use; the scheduler appends spawned steps while
// callers may read statuses.
type Graph struct {
	mu    sync.RWMutex
	steps []*buildStep
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends a step for cmd and returns its id.
func (g *Graph) Add(cmd ports.Command) StepID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addLocked(cmd, noStep)
}

func (g *Graph) addLocked(cmd ports.Command, spawnedBy StepID) StepID {
	id := StepID(len(g.steps))
	g.steps = append(g.steps, &buildStep{
		cmd:       cmd,
		parents:   make(map[StepID]struct{}),
		children:  make(map[StepID]struct{}),
		spawnedBy: spawnedBy,
	})
	return id
}

// LinkBuildSteps records that parent cannot start before child has finished.
func (g *Graph) LinkBuildSteps(parent, child StepID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.linkLocked(parent, child)
}

func (g *Graph) linkLocked(parent, child StepID) error {
	if err := g.checkLocked(parent); err != nil {
		return err
	}
	if err := g.checkLocked(child); err != nil {
		return err
	}
	if parent == child {
		return zerr.With(zerr.Wrap(domain.ErrSelfDependency, "link build steps"), "step", g.steps[parent].cmd.Title())
	}
	g.steps[parent].children[child] = struct{}{}
	g.steps[child].parents[parent] = struct{}{}
	return nil
}

func (g *Graph) checkLocked(id StepID) error {
	if id < 0 || int(id) >= len(g.steps) {
		return zerr.With(zerr.Wrap(domain.ErrStepNotFound, "lookup step"), "step_id", int(id))
	}
	return nil
}

// Len returns the number of steps, spawned ones included.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.steps)
}

// Command returns the command of a step.
func (g *Graph) Command(id StepID) (ports.Command, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkLocked(id); err != nil {
		return nil, err
	}
	return g.steps[id].cmd, nil
}

// Status returns the status a step reached in the last run.
func (g *Graph) Status(id StepID) domain.ResultStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.checkLocked(id) != nil {
		return domain.StatusNotProcessed
	}
	return g.steps[id].status
}

// Result returns a copy of the result a step produced in the last run.
func (g *Graph) Result(id StepID) *domain.CommandResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.checkLocked(id) != nil {
		return nil
	}
	return g.steps[id].result.Clone()
}

// Err returns the error a failed step reported in the last run.
func (g *Graph) Err(id StepID) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.checkLocked(id) != nil {
		return nil
	}
	return g.steps[id].err
}

// Children returns the prerequisites of a step in id order.
func (g *Graph) Children(id StepID) []StepID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.checkLocked(id) != nil {
		return nil
	}
	return slices.Sorted(maps.Keys(g.steps[id].children))
}

// Parents returns the dependents of a step in id order.
func (g *Graph) Parents(id StepID) []StepID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.checkLocked(id) != nil {
		return nil
	}
	return slices.Sorted(maps.Keys(g.steps[id].parents))
}

// SpawnedBy returns the step that spawned id during the last run.
func (g *Graph) SpawnedBy(id StepID) (StepID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.checkLocked(id) != nil || g.steps[id].spawnedBy == noStep {
		return noStep, false
	}
	return g.steps[id].spawnedBy, true
}

// Steps yields the ids of every step that takes part in a run.
func (g *Graph) Steps() iter.Seq[StepID] {
	return func(yield func(StepID) bool) {
		g.mu.RLock()
		n := len(g.steps)
		g.mu.RUnlock()
		for i := range n {
			g.mu.RLock()
			detached := g.steps[i].detached
			g.mu.RUnlock()
			if detached {
				continue
			}
			if !yield(StepID(i)) {
				return
			}
		}
	}
}

// Validate checks the prerequisite edges for cycles.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := g.topoOrderLocked()
	return err
}

// topoOrderLocked returns prerequisites before dependents.
func (g *Graph) topoOrderLocked() ([]StepID, error) {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]int, len(g.steps))
	order := make([]StepID, 0, len(g.steps))
	var path []StepID

	var visit func(u StepID) error
	visit = func(u StepID) error {
		state[u] = visiting
		path = append(path, u)
		for _, c := range slices.Sorted(maps.Keys(g.steps[u].children)) {
			switch state[c] {
			case visiting:
				return g.cycleErrorLocked(path, c)
			case unvisited:
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		state[u] = visited
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	for i, s := range g.steps {
		if s.detached || state[i] != unvisited {
			continue
		}
		if err := visit(StepID(i)); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (g *Graph) cycleErrorLocked(path []StepID, dep StepID) error {
	start := slices.Index(path, dep)
	names := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		names = append(names, g.steps[id].cmd.Title())
	}
	names = append(names, g.steps[dep].cmd.Title())
	return zerr.With(zerr.Wrap(domain.ErrCycleDetected, "validate graph"), "cycle", strings.Join(names, " -> "))
}

// prepareRun resets every step to NotProcessed and detaches the steps
// spawned during a previous run, so that they are spawned afresh.
func (g *Graph) prepareRun() ([]StepID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, s := range g.steps {
		if s.spawnedBy != noStep && !s.detached {
			s.detached = true
			delete(g.steps[s.spawnedBy].children, StepID(id))
		}
		s.status = domain.StatusNotProcessed
		s.result = nil
		s.err = nil
		s.fingerprint = domain.Fingerprint{}
	}
	return g.topoOrderLocked()
}

// spawn appends cmds as prerequisites of parent.
func (g *Graph) spawn(parent StepID, cmds []ports.Command) []StepID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]StepID, 0, len(cmds))
	for _, cmd := range cmds {
		id := g.addLocked(cmd, parent)
		g.steps[parent].children[id] = struct{}{}
		g.steps[id].parents[parent] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (g *Graph) setOutcome(id StepID, status domain.ResultStatus, result *domain.CommandResult, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.steps[id]
	s.status = status
	s.result = result
	s.err = err
}

func (g *Graph) setFingerprint(id StepID, fp domain.Fingerprint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.steps[id].fingerprint = fp
}

func (g *Graph) step(id StepID) *buildStep {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.steps[id]
}
