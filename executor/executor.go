package executor

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ryemyster/shaleyeah-toolkernel/internal/telemetry"
	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/resilience"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// Executor is the heart of the kernel: it owns the single injected invoker
// and implements retry/timeout, scatter-gather, bundle phases, and the
// confirmation gate. The zero value is not usable; construct with New.
type Executor struct {
	cfg    Config
	invoke InvokeFunc
	shape  ShapeFunc

	logger telemetry.Logger
	tracer telemetry.Tracer
	metric telemetry.Metrics

	rateLimiter *resilience.RateLimiter
	pending     *pendingStore
}

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithLogger overrides the default noop logger.
func WithLogger(l telemetry.Logger) Option { return func(e *Executor) { e.logger = l } }

// WithTracer overrides the default noop tracer.
func WithTracer(t telemetry.Tracer) Option { return func(e *Executor) { e.tracer = t } }

// WithMetrics overrides the default noop metrics sink.
func WithMetrics(m telemetry.Metrics) Option { return func(e *Executor) { e.metric = m } }

// WithRateLimiter paces retries of rate-limit-classified failures in
// addition to the fixed retryAfterMs hint, so a cluster of callers sharing
// one kernel process doesn't retry in lockstep.
func WithRateLimiter(rl *resilience.RateLimiter) Option {
	return func(e *Executor) { e.rateLimiter = rl }
}

// New returns an Executor with no invoker set; SetInvoker must be called
// before Execute will do anything but fail with "not connected".
func New(cfg Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:     cfg,
		shape:   passthroughShape,
		logger:  telemetry.NewNoopLogger(),
		tracer:  telemetry.NewNoopTracer(),
		metric:  telemetry.NewNoopMetrics(),
		pending: newPendingStore(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetInvoker wires (or rewires) the transport-agnostic invoker function.
func (e *Executor) SetInvoker(fn InvokeFunc) { e.invoke = fn }

// SetShaper wires (or rewires) the output-shaping function Execute applies
// to every successful response. An Executor built by New without a
// SetShaper call passes responses through unshaped.
func (e *Executor) SetShaper(fn ShapeFunc) { e.shape = fn }

func passthroughShape(resp toolapi.ToolResponse, _ toolapi.ToolRequest) toolapi.ToolResponse {
	return resp
}

// Execute runs a single tool request to completion, including timeout and
// retry. It never returns a Go error: every outcome is a ToolResponse.
func (e *Executor) Execute(ctx context.Context, req toolapi.ToolRequest) toolapi.ToolResponse {
	server, _, _ := strings.Cut(req.ToolName, ".")

	ctx, span := e.tracer.Start(ctx, "executor.execute",
		trace.WithAttributes(attribute.String("tool", req.ToolName)))
	defer span.End()

	if e.invoke == nil {
		resp := failureResponse(server, resilience.ErrorDetail{
			Type:    resilience.ErrRetryable,
			Message: "executor not connected: no invoker configured",
		})
		span.SetStatus(codes.Error, "not connected")
		return resp
	}

	start := time.Now()
	var (
		resp              toolapi.ToolResponse
		retryAttempts     int
		totalRetryDelayMs int64
	)

retryLoop:
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		callStart := time.Now()
		resp = e.callOnce(ctx, server, req)
		elapsed := time.Since(callStart).Milliseconds()
		if resp.Metadata.ExecutionTimeMs == 0 {
			resp.Metadata.ExecutionTimeMs = elapsed
		}

		if resp.Success || resp.Error == nil {
			break
		}
		classified := resilience.BuildRecoveryGuide(req.ToolName, *resp.Error)
		resp.Error = &classified
		if classified.Type != resilience.ErrRetryable || attempt == e.cfg.MaxRetries {
			break
		}

		retryAttempts++
		delay := backoffFor(e.cfg.RetryBackoffMs, attempt)
		totalRetryDelayMs += delay
		e.metric.IncCounter("executor.retry", 1, "tool", req.ToolName)
		e.logger.Warn(ctx, "retrying tool call", "tool", req.ToolName, "attempt", retryAttempts, "delayMs", delay)
		lowerMsg := strings.ToLower(classified.Message)
		if e.rateLimiter != nil && (strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "429")) {
			_ = e.rateLimiter.Wait(ctx, server)
		}
		select {
		case <-time.After(time.Duration(delay) * time.Millisecond):
		case <-ctx.Done():
			resp = failureResponse(server, resilience.ErrorDetail{
				Type:    resilience.ErrRetryable,
				Message: ctx.Err().Error(),
			})
			break retryLoop
		}
	}

	resp.Metadata.Server = server
	resp.Metadata.Timestamp = time.Now()
	resp.Metadata.RetryAttempts = retryAttempts
	resp.Metadata.TotalRetryDelayMs = totalRetryDelayMs
	e.metric.RecordTimer("executor.execute", time.Since(start), "tool", req.ToolName)
	if totalRetryDelayMs > 0 {
		e.metric.RecordTimer("executor.retry_delay", time.Duration(totalRetryDelayMs)*time.Millisecond, "tool", req.ToolName)
	}
	if !resp.Success {
		span.RecordError(fmt.Errorf("%s", resp.Error.Message))
		span.SetStatus(codes.Error, resp.Error.Message)
		return resp
	}
	span.SetStatus(codes.Ok, "")
	return e.shape(resp, req)
}

// callOnce invokes the server exactly once, bounded by the configured
// per-call timeout.
func (e *Executor) callOnce(ctx context.Context, server string, req toolapi.ToolRequest) toolapi.ToolResponse {
	timeout := time.Duration(e.cfg.ToolTimeoutMs) * time.Millisecond
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		resp toolapi.ToolResponse
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%v", r)}
			}
		}()
		resp, err := e.invoke(callCtx, server, req.Args)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case <-callCtx.Done():
		return failureResponse(server, resilience.ErrorDetail{
			Type:    resilience.ErrRetryable,
			Message: "timed out",
		})
	case o := <-done:
		if o.err != nil {
			return failureResponse(server, resilience.ErrorDetail{
				Type:    resilience.ErrRetryable,
				Message: o.err.Error(),
			})
		}
		return o.resp
	}
}

func backoffFor(baseMs int64, attempt int) int64 {
	backoff := baseMs << uint(attempt)
	jitter := int64(0)
	if baseMs > 0 {
		maxJitter := int64(float64(baseMs) * 0.3)
		if maxJitter > 0 {
			jitter = rand.Int63n(maxJitter + 1)
		}
	}
	return backoff + jitter
}

func serverOf(toolName string) string {
	server, _, _ := strings.Cut(toolName, ".")
	return server
}

func failureDetail(message string) resilience.ErrorDetail {
	return resilience.ErrorDetail{Type: resilience.ErrRetryable, Message: message}
}

func failureResponse(server string, detail resilience.ErrorDetail) toolapi.ToolResponse {
	return toolapi.ToolResponse{
		Success:      false,
		Confidence:   0,
		Completeness: 0,
		DetailLevel:  registry.DetailStandard,
		Metadata: toolapi.Metadata{
			Server:    server,
			Timestamp: time.Now(),
		},
		Error: &detail,
	}
}
