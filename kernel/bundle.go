package kernel

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ryemyster/shaleyeah-toolkernel/executor"
)

// ExecuteBundle runs the named bundle with args distributed to every step,
// storing each step's final response in the session's result cache (when
// sessionID resolves to a live session) under the step's tool name.
func (k *Kernel) ExecuteBundle(ctx context.Context, bundleName string, args map[string]any, sessionID string) (executor.BundleResult, error) {
	b, ok := k.Bundles.Get(bundleName)
	if !ok {
		return executor.BundleResult{}, errors.Errorf("kernel: unknown bundle %q", bundleName)
	}
	result, err := k.Executor.ExecuteBundle(ctx, b, args, k.requiresConfirmation)
	if err != nil {
		return executor.BundleResult{}, err
	}
	if sess, found := k.Sessions.Get(sessionID); found {
		for name, resp := range result.Results {
			sess.StoreResult(name, resp)
		}
	}
	return result, nil
}

// QuickScreen runs the quick_screen bundle: 4 parallel summary-level query
// calls across geowiz, econobot, curve-smith, and risk-analysis.
func (k *Kernel) QuickScreen(ctx context.Context, args map[string]any, sessionID string) (executor.BundleResult, error) {
	return k.ExecuteBundle(ctx, "quick_screen", args, sessionID)
}

// FullDueDiligence runs the full_due_diligence bundle across all fourteen
// domain workers, culminating in a reporter/decision gate.
func (k *Kernel) FullDueDiligence(ctx context.Context, args map[string]any, sessionID string) (executor.BundleResult, error) {
	return k.ExecuteBundle(ctx, "full_due_diligence", args, sessionID)
}

// GeologicalDeepDive runs the geological_deep_dive bundle.
func (k *Kernel) GeologicalDeepDive(ctx context.Context, args map[string]any, sessionID string) (executor.BundleResult, error) {
	return k.ExecuteBundle(ctx, "geological_deep_dive", args, sessionID)
}

// FinancialReview runs the financial_review bundle.
func (k *Kernel) FinancialReview(ctx context.Context, args map[string]any, sessionID string) (executor.BundleResult, error) {
	return k.ExecuteBundle(ctx, "financial_review", args, sessionID)
}

func (k *Kernel) requiresConfirmation(toolName string) bool {
	tool, ok := k.Registry.Tool(toolName)
	return ok && tool.RequiresConfirmation
}
