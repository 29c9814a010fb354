package app

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// buildGraph creates one step per declared step and links dependsOn edges.
func (a *App) buildGraph(project *domain.Project) (*scheduler.Graph, error) {
	g := scheduler.NewGraph()
	ids := make(map[domain.InternedString]scheduler.StepID, len(project.Steps))

	for _, spec := range project.Steps {
		if _, ok := ids[spec.Name]; ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateStep, "build graph"), "step", spec.Name.String())
		}
		cmd, err := a.factory.New(spec, project.Root)
		if err != nil {
			return nil, err
		}
		ids[spec.Name] = g.Add(cmd)
	}

	for _, spec := range project.Steps {
		for _, dep := range spec.DependsOn {
			child, ok := ids[dep]
			if !ok {
				return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingDependency, "build graph"),
					"step", spec.Name.String()), "missing_dependency", dep.String())
			}
			if err := g.LinkBuildSteps(ids[spec.Name], child); err != nil {
				return nil, err
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
