package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the build description.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the build description at path. A directory is searched for kiln.yaml.
	Load(path string) (*domain.Project, error)
}
