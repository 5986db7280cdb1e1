package bundles_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/bundles"
)

func TestPhasesOrdersByDependency(t *testing.T) {
	b := bundles.Bundle{
		Name: "t",
		Steps: []bundles.Step{
			{ToolName: "a"},
			{ToolName: "b"},
			{ToolName: "c", DependsOn: []string{"a", "b"}},
			{ToolName: "d", DependsOn: []string{"c"}},
		},
	}
	phases, err := bundles.Phases(b)
	require.NoError(t, err)
	require.Len(t, phases, 3)
	require.ElementsMatch(t, []string{"a", "b"}, names(phases[0]))
	require.ElementsMatch(t, []string{"c"}, names(phases[1]))
	require.ElementsMatch(t, []string{"d"}, names(phases[2]))
}

func TestPhasesDetectsCycle(t *testing.T) {
	b := bundles.Bundle{
		Name: "cyclic",
		Steps: []bundles.Step{
			{ToolName: "a", DependsOn: []string{"b"}},
			{ToolName: "b", DependsOn: []string{"a"}},
		},
	}
	_, err := bundles.Phases(b)
	require.Error(t, err)
}

func TestPhasesRejectsUnknownDependency(t *testing.T) {
	b := bundles.Bundle{
		Name: "broken",
		Steps: []bundles.Step{
			{ToolName: "a", DependsOn: []string{"ghost"}},
		},
	}
	_, err := bundles.Phases(b)
	require.Error(t, err)
}

func names(steps []bundles.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ToolName
	}
	return out
}
