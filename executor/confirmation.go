package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/resilience"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// PendingAction is a single-use confirmation-gate slot for a side-effecting
// command tool call, from interception until confirm or cancel.
type PendingAction struct {
	ActionID    string              `json:"actionId"`
	ToolName    string              `json:"toolName"`
	Args        map[string]any      `json:"args"`
	DetailLevel registry.DetailLevel `json:"detailLevel,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// pendingStore is the Executor's exclusive, mutex-guarded pending-actions
// table. Single-use: Take removes the entry it returns.
type pendingStore struct {
	mu      sync.Mutex
	pending map[string]PendingAction
}

func newPendingStore() *pendingStore {
	return &pendingStore{pending: make(map[string]PendingAction)}
}

func (p *pendingStore) put(action PendingAction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[action.ActionID] = action
}

// take removes and returns the pending action for id, reporting whether it
// existed. Confirming and cancelling both call this, so an action can only
// ever be resolved once.
func (p *pendingStore) take(id string) (PendingAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	action, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	return action, ok
}

// ExecuteWithConfirmation runs req through the confirmation gate: a
// requires-confirmation tool is intercepted and a PendingAction is created
// instead of being invoked; every other tool behaves exactly like Execute.
func (e *Executor) ExecuteWithConfirmation(ctx context.Context, req toolapi.ToolRequest, requiresConfirmation bool) toolapi.ToolResponse {
	if !requiresConfirmation {
		return e.Execute(ctx, req)
	}
	action := PendingAction{
		ActionID:    uuid.NewString(),
		ToolName:    req.ToolName,
		Args:        req.Args,
		DetailLevel: req.DetailLevel,
		CreatedAt:   time.Now(),
	}
	e.pending.put(action)
	return toolapi.ToolResponse{
		Success:      true,
		Summary:      "confirmation required before executing " + req.ToolName,
		Confidence:   0,
		DetailLevel:  req.DetailLevel,
		Completeness: 100,
		Data: map[string]any{
			"requires_confirmation": true,
			"pending_action": map[string]any{
				"actionId": action.ActionID,
				"toolName": action.ToolName,
				"args":     action.Args,
			},
		},
		Metadata: toolapi.Metadata{Timestamp: time.Now()},
	}
}

// ConfirmAction resolves a pending action by invoking its original request
// via the non-gated path. Confirming an unknown or already-resolved id
// returns a failure response.
func (e *Executor) ConfirmAction(ctx context.Context, actionID string) toolapi.ToolResponse {
	action, ok := e.pending.take(actionID)
	if !ok {
		return toolapi.ToolResponse{
			Success:     false,
			DetailLevel: registry.DetailStandard,
			Metadata:    toolapi.Metadata{Timestamp: time.Now()},
			Error: &resilience.ErrorDetail{
				Type:    resilience.ErrUserAction,
				Message: "unknown or already-resolved pending action",
				Reason:  "no pending action with id " + actionID,
			},
		}
	}
	return e.Execute(ctx, toolapi.ToolRequest{
		ToolName:    action.ToolName,
		Args:        action.Args,
		DetailLevel: action.DetailLevel,
	})
}

// CancelAction removes a pending action without invoking it. Returns false
// for an unknown or already-resolved id.
func (e *Executor) CancelAction(actionID string) bool {
	_, ok := e.pending.take(actionID)
	return ok
}
