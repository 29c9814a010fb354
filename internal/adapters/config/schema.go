package config

// Kilnfile represents the structure of the kiln.yaml build description.
type Kilnfile struct {
	Version   string             `yaml:"version"`
	BuildPath string             `yaml:"buildPath"`
	IndexName string             `yaml:"indexName"`
	Threads   int                `yaml:"threads"`
	Mirror    *MirrorDTO         `yaml:"mirror"`
	Steps     map[string]StepDTO `yaml:"steps"`
}

// MirrorDTO configures the optional S3 object mirror.
type MirrorDTO struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// StepDTO represents a build step definition in the configuration.
type StepDTO struct {
	Kind      string            `yaml:"kind"`
	Inputs    []string          `yaml:"inputs"`
	Output    string            `yaml:"output"`
	Tracks    []string          `yaml:"tracks"`
	DependsOn []string          `yaml:"dependsOn"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
}
