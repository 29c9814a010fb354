package domain

import "go.trai.ch/zerr"

var (
	// ErrObjectNotFound is returned when no blob with the requested id exists.
	ErrObjectNotFound = zerr.New("object not found")

	// ErrInvalidObjectID is returned when an object id cannot be decoded.
	ErrInvalidObjectID = zerr.New("invalid object id")

	// ErrInvalidURL is returned when an object url cannot be parsed.
	ErrInvalidURL = zerr.New("invalid object url")

	// ErrStreamFinished is returned when writing to a committed or aborted write stream.
	ErrStreamFinished = zerr.New("write stream already finished")

	// ErrNoActiveStream is returned when an index store is used after it was closed.
	ErrNoActiveStream = zerr.New("index store has no active stream")

	// ErrLockTimeout is returned when the index file lock cannot be acquired in time.
	ErrLockTimeout = zerr.New("timed out waiting for index file lock")

	// ErrIndexOpenFailed is returned when an index file cannot be opened.
	ErrIndexOpenFailed = zerr.New("failed to open index file")

	// ErrIndexWriteFailed is returned when records cannot be appended to an index file.
	ErrIndexWriteFailed = zerr.New("failed to write index records")

	// ErrIndexReadFailed is returned when an index file cannot be read.
	ErrIndexReadFailed = zerr.New("failed to read index records")

	// ErrStepNotFound is returned when a step does not belong to the graph.
	ErrStepNotFound = zerr.New("build step not found")

	// ErrDuplicateStep is returned when two steps share a name.
	ErrDuplicateStep = zerr.New("duplicate build step")

	// ErrMissingDependency is returned when a step depends on a step that does not exist.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when the prerequisite edges form a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrSelfDependency is returned when a step is linked to itself.
	ErrSelfDependency = zerr.New("build step cannot depend on itself")

	// ErrBuilderRunning is returned when Run is called while a run is in progress.
	ErrBuilderRunning = zerr.New("builder is already running")

	// ErrSchedulerStalled is returned when steps remain but none can make progress.
	ErrSchedulerStalled = zerr.New("scheduler stalled with unfinished steps")

	// ErrUnknownCommandKind is returned when a step names an unregistered command kind.
	ErrUnknownCommandKind = zerr.New("unknown command kind")

	// ErrInvalidCommand is returned when a step's parameters do not fit its kind.
	ErrInvalidCommand = zerr.New("invalid command definition")

	// ErrOutputNotContent is returned when a command tries to write a File URL.
	ErrOutputNotContent = zerr.New("command outputs must be content urls")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrNoSteps is returned when the config declares no steps.
	ErrNoSteps = zerr.New("no build steps declared")

	// ErrBuildFailed is returned by the CLI when at least one step failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrBuildCancelled is returned by the CLI when the build was cancelled.
	ErrBuildCancelled = zerr.New("build cancelled")

	// ErrMirrorUnavailable is returned when the remote object mirror cannot be reached.
	ErrMirrorUnavailable = zerr.New("object mirror unavailable")
)
