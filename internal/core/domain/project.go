package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is a loaded build description.
type Project struct {
	// Root is the directory containing the config file. Relative paths resolve against it.
	Root string
	// BuildDir is the database root.
	BuildDir string
	// IndexName is the file name of the content index.
	IndexName string
	// Threads bounds the worker pool; zero means one worker per CPU.
	Threads int
	// Mirror is the optional remote object mirror.
	Mirror *MirrorConfig
	// Steps are sorted by name.
	Steps []StepSpec
}

// StepSpec describes one build step before it is turned into a command.
type StepSpec struct {
	Name   InternedString
	Kind   string
	Inputs []ObjectURL
	Output ObjectURL
	// Tracks are URLs whose version is part of the fingerprint although the
	// command does not read them.
	Tracks    []ObjectURL
	DependsOn []InternedString
	Args      []string
	Env       map[string]string
}

// MirrorConfig configures the S3 mirror of the object store.
type MirrorConfig struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// BuildRecord is one entry of the build history log.
type BuildRecord struct {
	ID        uuid.UUID
	BuilderID uuid.UUID
	Mode      BuildMode
	Started   time.Time
	Finished  time.Time
	Code      BuildResultCode
	Steps     int
	Succeeded int
	UpToDate  int
	Failed    int
	Cancelled int
	Skipped   int
}

// Duration returns how long the build took.
func (r BuildRecord) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
