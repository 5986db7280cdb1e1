// Package kernel composes the registry, shaper, resilience, auth, audit,
// session manager, executor, and bundle library into the single facade
// external callers drive: Kernel.
package kernel

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ryemyster/shaleyeah-toolkernel/auth"
	"github.com/ryemyster/shaleyeah-toolkernel/audit"
	"github.com/ryemyster/shaleyeah-toolkernel/bundles"
	"github.com/ryemyster/shaleyeah-toolkernel/executor"
	"github.com/ryemyster/shaleyeah-toolkernel/internal/telemetry"
	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/resilience"
	"github.com/ryemyster/shaleyeah-toolkernel/sessionmgr"
	"github.com/ryemyster/shaleyeah-toolkernel/shaper"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// defaultRateLimit is the per-tool retry-pacing rate applied when Options
// does not supply a RateLimiter: 10 retries/sec sustained, bursts to 20.
const (
	defaultRateLimitRPS   = 10
	defaultRateLimitBurst = 20
)

// Kernel is the single object external callers drive. It does not know the
// transport that reaches it, and its Executor does not know how tool calls
// reach the domain workers — that seam is the injected InvokeFunc.
type Kernel struct {
	Registry  *registry.Registry
	Bundles   *bundles.Library
	Auth      *auth.Authorizer
	Audit     *audit.Auditor
	Sessions  *sessionmgr.Manager
	Executor  *executor.Executor
}

// Options configures New.
type Options struct {
	Registry    *registry.Registry
	Bundles     *bundles.Library
	Auth        *auth.Authorizer
	Audit       *audit.Auditor
	Sessions    *sessionmgr.Manager
	ExecConfig  executor.Config
	Logger      telemetry.Logger
	Tracer      telemetry.Tracer
	Metrics     telemetry.Metrics
	RateLimiter *resilience.RateLimiter
}

// New wires a Kernel from its components. Sessions is required: New returns
// an error when it is nil. Any other unset field in opts is given the
// kernel's default: registry.Default(), bundles.Default(), an enabled
// auth.Authorizer, a disabled audit.Auditor, executor.DefaultConfig() (for a
// zero-value ExecConfig), clue-backed logging/tracing/metrics (matching
// the teacher's ambient observability stack), and a RateLimiter pacing
// retries at defaultRateLimitRPS per tool.
func New(opts Options) (*Kernel, error) {
	reg := opts.Registry
	if reg == nil {
		var err error
		reg, err = registry.Default()
		if err != nil {
			return nil, errors.Wrap(err, "kernel: build default registry")
		}
	}
	lib := opts.Bundles
	if lib == nil {
		var err error
		lib, err = bundles.Default()
		if err != nil {
			return nil, errors.Wrap(err, "kernel: build default bundle library")
		}
	}
	authorizer := opts.Auth
	if authorizer == nil {
		authorizer = auth.New()
	}
	auditor := opts.Audit
	if auditor == nil {
		auditor = audit.NewDisabled()
	}
	sessions := opts.Sessions
	if sessions == nil {
		return nil, errors.New("kernel: Sessions manager is required")
	}
	cfg := opts.ExecConfig
	if cfg == (executor.Config{}) {
		cfg = executor.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewClueLogger()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.NewClueTracer()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewClueMetrics()
	}
	rateLimiter := opts.RateLimiter
	if rateLimiter == nil {
		rateLimiter = resilience.NewRateLimiter(defaultRateLimitRPS, defaultRateLimitBurst)
	}

	exec := executor.New(cfg,
		executor.WithLogger(logger),
		executor.WithTracer(tracer),
		executor.WithMetrics(metrics),
		executor.WithRateLimiter(rateLimiter),
	)

	k := &Kernel{
		Registry: reg,
		Bundles:  lib,
		Auth:     authorizer,
		Audit:    auditor,
		Sessions: sessions,
		Executor: exec,
	}
	exec.SetShaper(k.shapeResponse)
	return k, nil
}

// SetExecutorFn wires the transport-agnostic invoker the Executor calls for
// every tool invocation.
func (k *Kernel) SetExecutorFn(fn executor.InvokeFunc) {
	k.Executor.SetInvoker(fn)
}

// CreateSession starts a new session, defaulting to the demo analyst
// identity when identity is the zero value.
func (k *Kernel) CreateSession(identity auth.Identity, prefs sessionmgr.Preferences) *sessionmgr.Session {
	return k.Sessions.Create(identity, prefs)
}

// GetSession retrieves a session by id.
func (k *Kernel) GetSession(id string) (*sessionmgr.Session, bool) {
	return k.Sessions.Get(id)
}

// DestroySession removes a session, reporting whether it existed.
func (k *Kernel) DestroySession(id string) bool {
	return k.Sessions.Destroy(id)
}

// WhoAmI returns the identity and injected context for a session.
func (k *Kernel) WhoAmI(sessionID string) (auth.Identity, sessionmgr.Context, bool) {
	s, ok := k.Sessions.Get(sessionID)
	if !ok {
		return auth.Identity{}, sessionmgr.Context{}, false
	}
	return s.Identity(), s.InjectedContext(time.Now()), true
}

// Execute runs req directly through the Executor, bypassing auth and audit.
// Used internally by callTool and by callers that have already authorized
// the call through some other path. Shaping happens inside the Executor
// itself (wired via SetShaper at construction), so every path through
// Execute — single calls, ExecuteParallel, and ExecuteBundle — is shaped
// identically.
func (k *Kernel) Execute(ctx context.Context, req toolapi.ToolRequest) toolapi.ToolResponse {
	return k.Executor.Execute(ctx, req)
}

// AuthCheck evaluates whether sessionID's identity may call toolName,
// without invoking it.
func (k *Kernel) AuthCheck(toolName, sessionID string) auth.Decision {
	identity := k.identityFor(sessionID)
	return k.Auth.Check(toolName, identity)
}

// CallTool is the single canonical entry point for externally triggered
// invocations: it runs auth, then audit, then execute, in that order. A
// missing or empty sessionID uses the default demo identity.
func (k *Kernel) CallTool(ctx context.Context, req toolapi.ToolRequest, sessionID string) toolapi.ToolResponse {
	identity := k.identityFor(sessionID)
	role := string(identity.Role)

	decision := k.Auth.Check(req.ToolName, identity)
	if !decision.Allowed {
		k.Audit.Record(ctx, audit.Entry{
			Tool:       req.ToolName,
			Action:     audit.ActionDenied,
			Parameters: req.Args,
			UserID:     identity.UserID,
			SessionID:  sessionID,
			Role:       role,
			Timestamp:  time.Now(),
		})
		return toolapi.ToolResponse{
			Success:     false,
			DetailLevel: req.DetailLevel,
			Metadata:    toolapi.Metadata{Timestamp: time.Now()},
			Error: &resilience.ErrorDetail{
				Type:    resilience.ErrAuthRequired,
				Message: decision.Reason,
				Reason:  decision.Reason,
			},
		}
	}

	k.Audit.Record(ctx, audit.Entry{
		Tool:       req.ToolName,
		Action:     audit.ActionRequest,
		Parameters: req.Args,
		UserID:     identity.UserID,
		SessionID:  sessionID,
		Role:       role,
		Timestamp:  time.Now(),
	})

	start := time.Now()
	var resp toolapi.ToolResponse
	if err := k.Registry.ValidateArgs(req.ToolName, req.Args); err != nil {
		detail := resilience.BuildRecoveryGuide(req.ToolName, resilience.ErrorDetail{Message: err.Error()})
		server, _, _ := registry.ResolveServerName(req.ToolName)
		resp = toolapi.ToolResponse{
			Success:     false,
			DetailLevel: req.DetailLevel,
			Metadata:    toolapi.Metadata{Server: server, Timestamp: time.Now()},
			Error:       &detail,
		}
	} else {
		resp = k.Execute(ctx, req)
	}
	duration := time.Since(start).Milliseconds()

	action := audit.ActionResponse
	if !resp.Success {
		action = audit.ActionError
	}
	errType := ""
	if resp.Error != nil {
		errType = string(resp.Error.Type)
	}
	success := resp.Success
	k.Audit.Record(ctx, audit.Entry{
		Tool:       req.ToolName,
		Action:     action,
		Parameters: req.Args,
		UserID:     identity.UserID,
		SessionID:  sessionID,
		Role:       role,
		Timestamp:  time.Now(),
		Success:    &success,
		DurationMs: &duration,
		ErrorType:  errType,
	})

	if sess, ok := k.Sessions.Get(sessionID); ok {
		sess.StoreResult(req.ToolName, resp)
	}
	return resp
}

// ConfirmAction resolves a pending confirmation-gated action.
func (k *Kernel) ConfirmAction(ctx context.Context, actionID string) toolapi.ToolResponse {
	return k.Executor.ConfirmAction(ctx, actionID)
}

// CancelAction cancels a pending confirmation-gated action.
func (k *Kernel) CancelAction(actionID string) bool {
	return k.Executor.CancelAction(actionID)
}

// ListBundles returns every bundle name in the library.
func (k *Kernel) ListBundles() []string {
	return k.Bundles.List()
}

// GenerateIdempotencyKey delegates to the Executor's key generation.
func (k *Kernel) GenerateIdempotencyKey(toolName string, args map[string]any, sessionID string) string {
	return executor.GenerateIdempotencyKey(toolName, args, sessionID)
}

func (k *Kernel) identityFor(sessionID string) auth.Identity {
	if sessionID != "" {
		if sess, ok := k.Sessions.Get(sessionID); ok {
			return sess.Identity()
		}
	}
	return sessionmgr.DefaultIdentity
}

// shapeResponse applies the output shaper to a successful response whose
// Data is a map[string]any. Failures and responses whose Data is not a map
// pass through unchanged; a map payload is shaped even if the invoker had
// already shaped it.
func (k *Kernel) shapeResponse(resp toolapi.ToolResponse, req toolapi.ToolRequest) toolapi.ToolResponse {
	if !resp.Success {
		return resp
	}
	raw, ok := resp.Data.(map[string]any)
	if !ok {
		return resp
	}
	server, _, _ := registry.ResolveServerName(req.ToolName)
	shaped := shaper.Shape(raw, shaper.Options{
		Server:          server,
		Persona:         serverPersona(k.Registry, server),
		ExecutionTimeMs: resp.Metadata.ExecutionTimeMs,
		DetailLevel:     detailLevelOrDefault(req.DetailLevel),
	})
	shaped.Metadata.RetryAttempts = resp.Metadata.RetryAttempts
	shaped.Metadata.TotalRetryDelayMs = resp.Metadata.TotalRetryDelayMs
	return shaped
}

func serverPersona(reg *registry.Registry, server string) string {
	s, ok := reg.ResolveServer(server)
	if !ok {
		return ""
	}
	return s.Persona
}

func detailLevelOrDefault(requested registry.DetailLevel) registry.DetailLevel {
	if requested != "" {
		return requested
	}
	return registry.DetailStandard
}
