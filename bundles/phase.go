package bundles

import (
	"sort"

	"github.com/pkg/errors"
)

// Phases resolves b's step dependency graph into a sequence of phases: every
// step appears in the earliest phase whose predecessors are all in strictly
// earlier phases. Steps within a phase run in parallel; phases run
// sequentially. Returns an error if the graph has a cycle or references an
// unknown step name.
func Phases(b Bundle) ([][]Step, error) {
	byName := make(map[string]Step, len(b.Steps))
	for _, s := range b.Steps {
		byName[s.ToolName] = s
	}
	for _, s := range b.Steps {
		for _, dep := range s.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, errors.Errorf("bundle %q: step %q depends on unknown step %q", b.Name, s.ToolName, dep)
			}
		}
	}

	phaseOf := make(map[string]int, len(b.Steps))
	resolving := make(map[string]bool, len(b.Steps))

	var resolve func(name string) (int, error)
	resolve = func(name string) (int, error) {
		if p, ok := phaseOf[name]; ok {
			return p, nil
		}
		if resolving[name] {
			return 0, errors.Errorf("bundle %q: dependency cycle detected at step %q", b.Name, name)
		}
		resolving[name] = true
		defer delete(resolving, name)

		step := byName[name]
		maxDepPhase := -1
		for _, dep := range step.DependsOn {
			depPhase, err := resolve(dep)
			if err != nil {
				return 0, err
			}
			if depPhase > maxDepPhase {
				maxDepPhase = depPhase
			}
		}
		phase := maxDepPhase + 1
		phaseOf[name] = phase
		return phase, nil
	}

	maxPhase := -1
	for _, s := range b.Steps {
		p, err := resolve(s.ToolName)
		if err != nil {
			return nil, err
		}
		if p > maxPhase {
			maxPhase = p
		}
	}

	phases := make([][]Step, maxPhase+1)
	for _, s := range b.Steps {
		p := phaseOf[s.ToolName]
		phases[p] = append(phases[p], s)
	}
	for _, phase := range phases {
		sort.Slice(phase, func(i, j int) bool { return phase[i].ToolName < phase[j].ToolName })
	}
	return phases, nil
}
