package kernel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/audit"
	"github.com/ryemyster/shaleyeah-toolkernel/auth"
	"github.com/ryemyster/shaleyeah-toolkernel/executor"
	"github.com/ryemyster/shaleyeah-toolkernel/kernel"
	"github.com/ryemyster/shaleyeah-toolkernel/sessionmgr"
	"github.com/ryemyster/shaleyeah-toolkernel/sessionmgr/inmem"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

func newTestKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	sessions := sessionmgr.New(inmem.New())
	k, err := kernel.New(kernel.Options{
		Sessions:   sessions,
		ExecConfig: executor.Config{MaxParallel: 4, ToolTimeoutMs: 2000, MaxRetries: 0, RetryBackoffMs: 1},
	})
	require.NoError(t, err)
	return k
}

func TestAuthDenialScenario(t *testing.T) {
	k := newTestKernel(t)
	dir := t.TempDir()
	k.Audit = audit.New(audit.NewFileSink(dir))

	var invoked bool
	k.SetExecutorFn(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		invoked = true
		return toolapi.ToolResponse{Success: true}, nil
	})

	sess := k.CreateSession(auth.Identity{UserID: "u1", Role: auth.RoleAnalyst}, sessionmgr.Preferences{})
	resp := k.CallTool(context.Background(), toolapi.ToolRequest{ToolName: "decision.analyze"}, sess.ID())

	require.False(t, resp.Success)
	require.EqualValues(t, "auth_required", resp.Error.Type)
	require.False(t, invoked)

	entries, err := k.Audit.Entries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, audit.ActionDenied, entries[0].Action)
}

func TestCallToolAllowedRunsAuditAndExecute(t *testing.T) {
	k := newTestKernel(t)
	dir := t.TempDir()
	k.Audit = audit.New(audit.NewFileSink(dir))

	k.SetExecutorFn(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		return toolapi.ToolResponse{Success: true, Data: map[string]any{
			"geological": map[string]any{
				"reservoirQuality":  "excellent",
				"recommendedAction": "proceed",
				"confidence":        88.0,
			},
		}}, nil
	})

	sess := k.CreateSession(auth.Identity{UserID: "u1", Role: auth.RoleAnalyst}, sessionmgr.Preferences{})
	resp := k.CallTool(context.Background(), toolapi.ToolRequest{ToolName: "geowiz.analyze"}, sess.ID())
	require.True(t, resp.Success)
	require.Equal(t, 88.0, resp.Confidence)

	entries, err := k.Audit.Entries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 2) // request + response

	_, ok := sess.GetResult("geowiz.analyze")
	require.True(t, ok)
}

func TestWhoAmIReturnsIdentityAndContext(t *testing.T) {
	k := newTestKernel(t)
	sess := k.CreateSession(auth.Identity{UserID: "u1", Role: auth.RoleEngineer}, sessionmgr.Preferences{DefaultBasin: "Permian"})
	identity, ctx, ok := k.WhoAmI(sess.ID())
	require.True(t, ok)
	require.Equal(t, auth.RoleEngineer, identity.Role)
	require.Equal(t, "Permian", ctx.DefaultBasin)
}

func TestMissingSessionUsesDemoIdentity(t *testing.T) {
	k := newTestKernel(t)
	k.SetExecutorFn(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		return toolapi.ToolResponse{Success: true, Data: map[string]any{"confidence": 70.0}}, nil
	})
	resp := k.CallTool(context.Background(), toolapi.ToolRequest{ToolName: "research.analyze"}, "does-not-exist")
	require.True(t, resp.Success)
}

func TestQuickScreenBundleViaKernel(t *testing.T) {
	k := newTestKernel(t)
	k.SetExecutorFn(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		return toolapi.ToolResponse{Success: true, Data: map[string]any{"confidence": 90.0}}, nil
	})
	sess := k.CreateSession(auth.Identity{UserID: "u1", Role: auth.RoleAnalyst}, sessionmgr.Preferences{})
	result, err := k.QuickScreen(context.Background(), map[string]any{"basin": "Permian"}, sess.ID())
	require.NoError(t, err)
	require.Equal(t, 4, len(result.Results))
	require.Equal(t, 100, result.Completeness)
	require.True(t, result.OverallSuccess)
}

func TestConfirmationGateViaKernel(t *testing.T) {
	k := newTestKernel(t)
	var invoked bool
	k.SetExecutorFn(func(ctx context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
		invoked = true
		return toolapi.ToolResponse{Success: true}, nil
	})
	resp := k.Executor.ExecuteWithConfirmation(context.Background(), toolapi.ToolRequest{ToolName: "decision.analyze", Args: map[string]any{"basin": "Permian"}}, true)
	require.True(t, resp.Success)
	require.False(t, invoked)
	data := resp.Data.(map[string]any)
	actionID := data["pending_action"].(map[string]any)["actionId"].(string)

	confirmed := k.ConfirmAction(context.Background(), actionID)
	require.True(t, confirmed.Success)
	require.True(t, invoked)
	require.False(t, k.CancelAction(actionID))
}

func TestListBundles(t *testing.T) {
	k := newTestKernel(t)
	require.ElementsMatch(t, []string{
		"financial_review", "full_due_diligence", "geological_deep_dive", "quick_screen",
	}, k.ListBundles())
}

func TestGenerateIdempotencyKeyViaKernel(t *testing.T) {
	k := newTestKernel(t)
	key := k.GenerateIdempotencyKey("geowiz.analyze", map[string]any{"basin": "Permian"}, "s1")
	require.Len(t, key, 16)
}
