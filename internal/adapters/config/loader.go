// Package config provides the build description loader for kiln.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const supportedVersion = "1"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the build description at path. When path is a directory, it and
// its parents are searched for kiln.yaml.
func (l *Loader) Load(path string) (*domain.Project, error) {
	file, err := findConfig(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "read config"), "path", file)
	}

	var kf Kilnfile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "parse config"), "path", file)
	}

	project, err := l.toProject(filepath.Dir(file), &kf)
	if err != nil {
		return nil, zerr.With(err, "path", file)
	}
	return project, nil
}

func findConfig(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "resolve config path"), "path", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "stat config"), "path", abs)
	}
	if !info.IsDir() {
		return abs, nil
	}

	for dir := abs; ; {
		candidate := filepath.Join(dir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "stat config"), "path", candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, "no "+domain.ConfigFileName+" found"), "search_root", abs)
		}
		dir = parent
	}
}

func (l *Loader) toProject(root string, kf *Kilnfile) (*domain.Project, error) {
	if kf.Version != "" && kf.Version != supportedVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "unsupported config version"), "version", kf.Version)
	}
	if kf.Threads < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "threads must not be negative"), "threads", kf.Threads)
	}
	if len(kf.Steps) == 0 {
		return nil, zerr.Wrap(domain.ErrNoSteps, "load config")
	}

	project := &domain.Project{
		Root:      root,
		BuildDir:  resolve(root, kf.BuildPath, domain.DefaultBuildDir),
		IndexName: kf.IndexName,
		Threads:   kf.Threads,
	}
	if project.IndexName == "" {
		project.IndexName = domain.DefaultIndexName
	}
	if strings.ContainsAny(project.IndexName, `/\`) {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "indexName must be a file name"), "index_name", project.IndexName)
	}

	if kf.Mirror != nil {
		if kf.Mirror.Bucket == "" {
			return nil, zerr.Wrap(domain.ErrConfigParseFailed, "mirror needs a bucket")
		}
		if kf.Mirror.AccessKey != "" && kf.Mirror.SecretKey == "" {
			l.logger.Warn("mirror accessKey is set without secretKey")
		}
		project.Mirror = &domain.MirrorConfig{
			Bucket:    kf.Mirror.Bucket,
			Prefix:    kf.Mirror.Prefix,
			Region:    kf.Mirror.Region,
			Endpoint:  kf.Mirror.Endpoint,
			AccessKey: kf.Mirror.AccessKey,
			SecretKey: os.ExpandEnv(kf.Mirror.SecretKey),
		}
	}

	names := make([]string, 0, len(kf.Steps))
	for name := range kf.Steps {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		spec, err := toStep(name, kf.Steps[name], kf.Steps)
		if err != nil {
			return nil, err
		}
		project.Steps = append(project.Steps, spec)
	}
	return project, nil
}

func toStep(name string, dto StepDTO, all map[string]StepDTO) (domain.StepSpec, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return domain.StepSpec{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "invalid step name"), "step", name)
	}
	if dto.Kind == "" {
		return domain.StepSpec{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "step has no kind"), "step", name)
	}
	if dto.Output == "" {
		return domain.StepSpec{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "step has no output"), "step", name)
	}

	for _, dep := range dto.DependsOn {
		if dep == name {
			return domain.StepSpec{}, zerr.With(zerr.Wrap(domain.ErrSelfDependency, "load config"), "step", name)
		}
		if _, ok := all[dep]; !ok {
			return domain.StepSpec{}, zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingDependency, "load config"), "step", name), "missing_dependency", dep)
		}
	}

	inputs, err := parseURLs(name, dto.Inputs)
	if err != nil {
		return domain.StepSpec{}, err
	}
	tracks, err := parseURLs(name, dto.Tracks)
	if err != nil {
		return domain.StepSpec{}, err
	}
	output, err := parseOutput(dto.Output)
	if err != nil {
		return domain.StepSpec{}, zerr.With(err, "step", name)
	}

	return domain.StepSpec{
		Name:      domain.NewInternedString(name),
		Kind:      dto.Kind,
		Inputs:    inputs,
		Output:    output,
		Tracks:    tracks,
		DependsOn: canonicalizeStrings(dto.DependsOn),
		Args:      dto.Args,
		Env:       dto.Env,
	}, nil
}

// parseURLs keeps declaration order: it is meaningful for concat and exec.
func parseURLs(step string, raw []string) ([]domain.ObjectURL, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	urls := make([]domain.ObjectURL, 0, len(raw))
	for _, s := range raw {
		u, err := domain.ParseObjectURL(s)
		if err != nil {
			return nil, zerr.With(err, "step", step)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// parseOutput reads a bare output string as a content path.
func parseOutput(s string) (domain.ObjectURL, error) {
	if strings.HasPrefix(s, "file:") || strings.HasPrefix(s, "content:") || strings.HasPrefix(s, domain.BlobScheme) {
		return domain.ParseObjectURL(s)
	}
	return domain.NewContentURL(s), nil
}

func resolve(root, p, fallback string) string {
	if p == "" {
		p = fallback
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}

	sorted := slices.Clone(strs)
	slices.Sort(sorted)

	unique := slices.Compact(sorted)
	res := make([]domain.InternedString, len(unique))
	for i, s := range unique {
		res[i] = domain.NewInternedString(s)
	}
	return res
}
