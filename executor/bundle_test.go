package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/bundles"
	"github.com/ryemyster/shaleyeah-toolkernel/executor"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

func TestExecuteBundleQuickScreenHappyPath(t *testing.T) {
	lib, err := bundles.Default()
	require.NoError(t, err)
	b, ok := lib.Get("quick_screen")
	require.True(t, ok)

	e := executor.New(executor.Config{MaxParallel: 4, ToolTimeoutMs: 2000, MaxRetries: 0, RetryBackoffMs: 1})
	e.SetInvoker(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		return toolapi.ToolResponse{Success: true, Confidence: 90}, nil
	})

	result, err := e.ExecuteBundle(context.Background(), b, map[string]any{"basin": "Permian"}, nil)
	require.NoError(t, err)
	require.Len(t, result.Results, 4)
	require.Equal(t, 100, result.Completeness)
	require.True(t, result.OverallSuccess)
	require.Len(t, result.Phases, 1)
}

func TestExecuteBundleRequiredPredecessorFailurePropagates(t *testing.T) {
	b := bundles.Bundle{
		Name:           "chain",
		GatherStrategy: bundles.GatherAll,
		Steps: []bundles.Step{
			{ToolName: "geowiz.analyze"},
			{ToolName: "research.analyze", DependsOn: []string{"geowiz.analyze"}},
		},
	}
	e := executor.New(executor.Config{MaxParallel: 4, ToolTimeoutMs: 2000, MaxRetries: 0, RetryBackoffMs: 1})
	e.SetInvoker(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		if server == "geowiz" {
			return toolapi.ToolResponse{Success: false, Error: &permanentErr}, nil
		}
		return toolapi.ToolResponse{Success: true}, nil
	})

	result, err := e.ExecuteBundle(context.Background(), b, nil, nil)
	require.NoError(t, err)
	require.False(t, result.Results["research.analyze"].Success)
	require.EqualValues(t, "user_action", result.Results["research.analyze"].Error.Type)
	require.Contains(t, result.Results["research.analyze"].Error.Message, "dependency failed: geowiz.analyze")
	require.False(t, result.OverallSuccess)
}

func TestExecuteBundleSubstitutesGatedResponseForCommandStep(t *testing.T) {
	b := bundles.Bundle{
		Name:           "gated",
		GatherStrategy: bundles.GatherAll,
		Steps: []bundles.Step{
			{ToolName: "decision.analyze"},
		},
	}
	e := executor.New(executor.Config{MaxParallel: 4, ToolTimeoutMs: 2000, MaxRetries: 0, RetryBackoffMs: 1})
	var invoked bool
	e.SetInvoker(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		invoked = true
		return toolapi.ToolResponse{Success: true}, nil
	})

	result, err := e.ExecuteBundle(context.Background(), b, nil, func(string) bool { return true })
	require.NoError(t, err)
	require.False(t, invoked)
	data := result.Results["decision.analyze"].Data.(map[string]any)
	require.Equal(t, true, data["requires_confirmation"])
}
