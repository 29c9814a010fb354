package scheduler

import (
	"fmt"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

type access uint8

const (
	accessRead access = 1 << iota
	accessWrite
)

type conflictKey struct {
	a, b StepID
	url  domain.ObjectURL
}

// ioMonitor tracks which executing step reads or writes which URL and warns
// when two of them touch the same URL and at least one writes it. Steps that
// execute at the same time never have a path of prerequisite edges between
// them, so every such overlap is a race in the build description.
type ioMonitor struct {
	logger ports.Logger

	mu       sync.Mutex
	inFlight map[domain.ObjectURL]map[StepID]access
	titles   map[StepID]string
	reported map[conflictKey]struct{}
}

func newIOMonitor(logger ports.Logger) *ioMonitor {
	return &ioMonitor{
		logger:   logger,
		inFlight: make(map[domain.ObjectURL]map[StepID]access),
		titles:   make(map[StepID]string),
		reported: make(map[conflictKey]struct{}),
	}
}

func (m *ioMonitor) begin(id StepID, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles[id] = title
}

func (m *ioMonitor) read(id StepID, url domain.ObjectURL) {
	m.record(id, url, accessRead)
}

func (m *ioMonitor) write(id StepID, url domain.ObjectURL) {
	m.record(id, url, accessWrite)
}

func (m *ioMonitor) record(id StepID, url domain.ObjectURL, kind access) {
	m.mu.Lock()
	users := m.inFlight[url]
	if users == nil {
		users = make(map[StepID]access)
		m.inFlight[url] = users
	}
	users[id] |= kind

	var warnings []string
	for other, otherKind := range users {
		if other == id || (kind|otherKind)&accessWrite == 0 {
			continue
		}
		key := conflictKey{a: min(id, other), b: max(id, other), url: url}
		if _, seen := m.reported[key]; seen {
			continue
		}
		m.reported[key] = struct{}{}
		warnings = append(warnings, fmt.Sprintf(
			"build conflict: step %q %s %s while step %q %s it; add a dependency between them",
			m.titles[id], verb(kind), url, m.titles[other], verb(otherKind)))
	}
	m.mu.Unlock()

	for _, w := range warnings {
		m.logger.Warn(w)
	}
}

// end forgets every access of id.
func (m *ioMonitor) end(id StepID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for url, users := range m.inFlight {
		delete(users, id)
		if len(users) == 0 {
			delete(m.inFlight, url)
		}
	}
	delete(m.titles, id)
}

func verb(a access) string {
	if a&accessWrite != 0 {
		return "writes"
	}
	return "reads"
}
