package bundles_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/bundles"
)

func TestDefaultLibraryHasFourBuiltins(t *testing.T) {
	lib, err := bundles.Default()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"financial_review", "full_due_diligence", "geological_deep_dive", "quick_screen",
	}, lib.List())
}

func TestQuickScreenIsOnePhaseOfFour(t *testing.T) {
	lib, err := bundles.Default()
	require.NoError(t, err)
	b, ok := lib.Get("quick_screen")
	require.True(t, ok)
	phases, err := bundles.Phases(b)
	require.NoError(t, err)
	require.Len(t, phases, 1)
	require.Len(t, phases[0], 4)
	require.Equal(t, bundles.GatherAll, b.GatherStrategy)
}

func TestFullDueDiligenceResolvesThroughDecisionPhase(t *testing.T) {
	lib, err := bundles.Default()
	require.NoError(t, err)
	b, ok := lib.Get("full_due_diligence")
	require.True(t, ok)
	phases, err := bundles.Phases(b)
	require.NoError(t, err)
	require.Equal(t, bundles.GatherMajority, b.GatherStrategy)
	// reporter depends on test, decision depends on reporter: three phases
	// deep regardless of how many independent steps share phase 0.
	require.Len(t, phases, 3)
	require.Equal(t, []string{"decision.analyze"}, names(phases[2]))
}
