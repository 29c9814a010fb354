package domain

import "sync"

// ResultStatus is the state of a build step within one run.
type ResultStatus uint8

const (
	// StatusNotProcessed is the initial state of every step.
	StatusNotProcessed ResultStatus = iota
	// StatusSuccessful means the command executed and succeeded.
	StatusSuccessful
	// StatusFailed means the command executed and reported an error.
	StatusFailed
	// StatusCancelled means the run was cancelled before the step could finish.
	StatusCancelled
	// StatusNotTriggeredWasSuccessful means a matching prior result was reused.
	StatusNotTriggeredWasSuccessful
	// StatusNotTriggeredPrerequisiteFailed means a prerequisite did not succeed.
	StatusNotTriggeredPrerequisiteFailed
)

var statusNames = [...]string{
	StatusNotProcessed:                   "NotProcessed",
	StatusSuccessful:                     "Successful",
	StatusFailed:                         "Failed",
	StatusCancelled:                      "Cancelled",
	StatusNotTriggeredWasSuccessful:      "NotTriggeredWasSuccessful",
	StatusNotTriggeredPrerequisiteFailed: "NotTriggeredPrerequisiteFailed",
}

// String returns the name of the status.
func (s ResultStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Unknown"
}

// IsTerminal reports whether the status is final for the current run.
func (s ResultStatus) IsTerminal() bool {
	return s != StatusNotProcessed && int(s) < len(statusNames)
}

// Succeeded reports whether dependents may consume the step's outputs.
func (s ResultStatus) Succeeded() bool {
	return s == StatusSuccessful || s == StatusNotTriggeredWasSuccessful
}

// BuildResultCode summarises a whole run.
type BuildResultCode uint8

const (
	// BuildSuccessful means every step succeeded or was up to date.
	BuildSuccessful BuildResultCode = iota
	// BuildError means at least one step failed.
	BuildError
	// BuildCancelled means the run was cancelled.
	BuildCancelled
)

// String returns the name of the code.
func (c BuildResultCode) String() string {
	switch c {
	case BuildSuccessful:
		return "Successful"
	case BuildError:
		return "BuildError"
	case BuildCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// BuildMode selects what a run does with the cache.
type BuildMode uint8

const (
	// ModeBuild executes the graph incrementally.
	ModeBuild BuildMode = iota
	// ModeClean drops every cached command result.
	ModeClean
	// ModeCleanAndDelete drops cached results and deletes their output objects.
	ModeCleanAndDelete
)

// String returns the name of the mode.
func (m BuildMode) String() string {
	switch m {
	case ModeBuild:
		return "build"
	case ModeClean:
		return "clean"
	case ModeCleanAndDelete:
		return "clean-and-delete"
	default:
		return "unknown"
	}
}

// StepCounter aggregates step results by status. It is safe for concurrent use.
type StepCounter struct {
	mu     sync.Mutex
	counts [len(statusNames)]int
	total  int
}

// Add records one step that reached status s.
func (c *StepCounter) Add(s ResultStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(s) < len(c.counts) {
		c.counts[s]++
	}
	c.total++
}

// Get returns how many steps reached status s.
func (c *StepCounter) Get(s ResultStatus) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(s) >= len(c.counts) {
		return 0
	}
	return c.counts[s]
}

// Total returns the number of recorded steps.
func (c *StepCounter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}
