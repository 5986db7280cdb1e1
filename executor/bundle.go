package executor

import (
	"context"
	"time"

	"github.com/ryemyster/shaleyeah-toolkernel/bundles"
	"github.com/ryemyster/shaleyeah-toolkernel/resilience"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// BundleResult extends GatheredResult with the bundle's identity, its phase
// breakdown, and the gather-strategy-derived overall success verdict.
type BundleResult struct {
	GatheredResult
	BundleName     string         `json:"bundleName"`
	Phases         [][]bundles.Step `json:"phases"`
	OverallSuccess bool           `json:"overallSuccess"`
}

// RequiresConfirmationFunc reports whether toolName is a side-effecting
// command tool that must go through the confirmation gate.
type RequiresConfirmationFunc func(toolName string) bool

// ExecuteBundle runs b phase-by-phase: each phase is scatter-gathered, and a
// step whose required predecessor failed is marked failed without ever being
// invoked. args is shallowly distributed to every step; a step's own
// DetailLevel overrides the request default when set. A step whose tool
// requires confirmation is never invoked directly: its synthetic gated
// response is substituted into the BundleResult in place of the real call.
func (e *Executor) ExecuteBundle(ctx context.Context, b bundles.Bundle, args map[string]any, requiresConfirmation RequiresConfirmationFunc) (BundleResult, error) {
	ctx, span := e.tracer.Start(ctx, "executor.execute_bundle")
	defer span.End()

	start := time.Now()
	phases, err := bundles.Phases(b)
	if err != nil {
		return BundleResult{}, err
	}
	if requiresConfirmation == nil {
		requiresConfirmation = func(string) bool { return false }
	}

	results := make(map[string]toolapi.ToolResponse)
	failedRequired := make(map[string]bool)

	for _, phase := range phases {
		var runnable []toolapi.ToolRequest
		for _, step := range phase {
			if dep, blocked := blockingFailedDependency(step, failedRequired); blocked {
				results[step.ToolName] = dependencyFailedResponse(step.ToolName, dep)
				if !step.Optional {
					failedRequired[step.ToolName] = true
				}
				continue
			}
			req := toolapi.ToolRequest{
				ToolName:    step.ToolName,
				Args:        args,
				DetailLevel: step.DetailLevel,
			}
			if requiresConfirmation(step.ToolName) {
				results[step.ToolName] = e.ExecuteWithConfirmation(ctx, req, true)
				continue
			}
			runnable = append(runnable, req)
		}
		if len(runnable) == 0 {
			continue
		}
		gathered := e.ExecuteParallel(ctx, runnable)
		for name, resp := range gathered.Results {
			results[name] = resp
			if !resp.Success {
				if step, ok := stepByName(phase, name); ok && !step.Optional {
					failedRequired[name] = true
				}
			}
		}
	}

	gathered := gatherFrom(results, time.Since(start).Milliseconds())
	return BundleResult{
		GatheredResult: gathered,
		BundleName:     b.Name,
		Phases:         phases,
		OverallSuccess: overallSuccess(b, phases, results),
	}, nil
}

func stepByName(steps []bundles.Step, name string) (bundles.Step, bool) {
	for _, s := range steps {
		if s.ToolName == name {
			return s, true
		}
	}
	return bundles.Step{}, false
}

// blockingFailedDependency reports whether step has a dependency present in
// failedRequired, and if so, which one (the first found).
func blockingFailedDependency(step bundles.Step, failedRequired map[string]bool) (string, bool) {
	for _, dep := range step.DependsOn {
		if failedRequired[dep] {
			return dep, true
		}
	}
	return "", false
}

func dependencyFailedResponse(toolName, dep string) toolapi.ToolResponse {
	detail := resilience.ErrorDetail{
		Type:    resilience.ErrUserAction,
		Message: "dependency failed: " + dep,
		Reason:  "dependency failed: " + dep,
	}
	return toolapi.ToolResponse{
		Success:     false,
		DetailLevel: "",
		Metadata:    toolapi.Metadata{Server: serverOf(toolName), Timestamp: time.Now()},
		Error:       &detail,
	}
}

// overallSuccess applies b's gather strategy to its required (non-optional)
// steps.
func overallSuccess(b bundles.Bundle, phases [][]bundles.Step, results map[string]toolapi.ToolResponse) bool {
	var required []bundles.Step
	for _, phase := range phases {
		for _, s := range phase {
			if !s.Optional {
				required = append(required, s)
			}
		}
	}
	if len(required) == 0 {
		return true
	}
	succeeded := 0
	for _, s := range required {
		if resp, ok := results[s.ToolName]; ok && resp.Success {
			succeeded++
		}
	}
	switch b.GatherStrategy {
	case bundles.GatherMajority:
		return succeeded*2 > len(required)
	default: // GatherAll
		return succeeded == len(required)
	}
}
