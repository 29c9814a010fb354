// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=command.go -destination=mocks/mock_command.go -package=mocks

// Command is one unit of asset transformation work.
//
// Implementations must be deterministic in Kind and WriteParameters: together
// with the versions of InputFiles and InputDependencies they form the cache
// fingerprint of the command.
type Command interface {
	// Kind names the command type.
	Kind() string
	// Title is a human readable label used in logs and telemetry.
	Title() string
	// WriteParameters serializes every parameter that influences the output.
	WriteParameters(w io.Writer) error
	// InputFiles lists the URLs the command reads.
	InputFiles() []domain.ObjectURL
	// InputDependencies lists extra URLs whose version must be tracked even if
	// the command does not read them through the ExecuteContext.
	InputDependencies() []domain.ObjectURL
	// Execute performs the work. It must observe ctx cancellation at convenient points.
	Execute(ctx context.Context, ectx ExecuteContext) error
}

// ExecuteContext is the view of the build a command gets while executing.
type ExecuteContext interface {
	// Logger returns a logger scoped to the running step.
	Logger() Logger
	// Output receives free-form diagnostic output of the command.
	Output() io.Writer
	// OpenInput opens a File or Content URL for reading and records its version.
	OpenInput(url domain.ObjectURL) (io.ReadCloser, error)
	// CreateOutput opens a write stream for a Content URL. Closing the writer
	// commits the blob and records it as an output of the command.
	CreateOutput(url domain.ObjectURL) (io.WriteCloser, error)
	// Spawn queues a child command. Spawned commands run after Execute returns
	// and must finish before the spawning step is complete.
	Spawn(cmd Command)
}
