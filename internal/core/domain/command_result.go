package domain

import (
	"maps"
	"slices"
)

// CommandResult is the persisted outcome of a successful command.
type CommandResult struct {
	// OutputObjects maps every produced Content URL to the blob written for it.
	OutputObjects map[ObjectURL]ObjectID
	// InputDependencyVersions records the version of every input the command observed.
	InputDependencyVersions map[ObjectURL]ObjectID
}

// NewCommandResult returns an empty result.
func NewCommandResult() *CommandResult {
	return &CommandResult{
		OutputObjects:           make(map[ObjectURL]ObjectID),
		InputDependencyVersions: make(map[ObjectURL]ObjectID),
	}
}

// Clone returns a deep copy of r.
func (r *CommandResult) Clone() *CommandResult {
	if r == nil {
		return nil
	}
	return &CommandResult{
		OutputObjects:           maps.Clone(r.OutputObjects),
		InputDependencyVersions: maps.Clone(r.InputDependencyVersions),
	}
}

// Merge copies outputs and input versions from other into r.
func (r *CommandResult) Merge(other *CommandResult) {
	if other == nil {
		return
	}
	maps.Copy(r.OutputObjects, other.OutputObjects)
	maps.Copy(r.InputDependencyVersions, other.InputDependencyVersions)
}

// SortedOutputs returns the output URLs in a stable order.
func (r *CommandResult) SortedOutputs() []ObjectURL {
	return sortedURLs(r.OutputObjects)
}

// SortedInputs returns the input URLs in a stable order.
func (r *CommandResult) SortedInputs() []ObjectURL {
	return sortedURLs(r.InputDependencyVersions)
}

func sortedURLs(m map[ObjectURL]ObjectID) []ObjectURL {
	urls := slices.Collect(maps.Keys(m))
	slices.SortFunc(urls, ObjectURL.Compare)
	return urls
}
