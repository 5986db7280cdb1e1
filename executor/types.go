// Package executor is the heart of the kernel: it owns the single injected
// invoker function and implements timeout/retry, bounded-concurrency
// scatter-gather, bundle phase resolution, and the confirmation gate.
package executor

import (
	"context"

	"github.com/ryemyster/shaleyeah-toolkernel/resilience"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// InvokeFunc is the kernel's sole transport-agnostic seam: it performs one
// server call and returns its outcome, or panics/returns an error which the
// Executor treats as a retryable failure carrying the error's message.
type InvokeFunc func(ctx context.Context, serverName string, args map[string]any) (toolapi.ToolResponse, error)

// ShapeFunc projects a raw tool response through the output shaper, given
// the request that produced it (for its DetailLevel and tool name). Execute
// applies it to every successful response, so ExecuteParallel and
// ExecuteBundle — both built on Execute — get shaping for free.
type ShapeFunc func(resp toolapi.ToolResponse, req toolapi.ToolRequest) toolapi.ToolResponse

// Config tunes the Executor's retry and concurrency behavior.
type Config struct {
	MaxParallel    int
	ToolTimeoutMs  int64
	MaxRetries     int
	RetryBackoffMs int64
}

// DefaultConfig matches the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxParallel:    6,
		ToolTimeoutMs:  30_000,
		MaxRetries:     2,
		RetryBackoffMs: 500,
	}
}

// GatheredResult is the outcome of a scatter-gather across several tool
// requests, one request per toolName, tolerating per-request failure.
type GatheredResult struct {
	Results      map[string]toolapi.ToolResponse `json:"results"`
	Failures     []FailureEntry                  `json:"failures"`
	Completeness int                              `json:"completeness"`
	TotalTimeMs  int64                            `json:"totalTimeMs"`
}

// FailureEntry describes one request's failure within a GatheredResult. Error
// is the failed response's ErrorDetail. For a failure the invoker reported
// (or a timeout or invoker error), Execute has already turned it into a full
// recovery guide: classification plus recovery steps, alternative tools, and
// (for retryable failures) a retry-after hint. Failures the executor makes up
// itself (no invoker configured, a failed dependency, a cancelled context)
// carry only their type and message.
type FailureEntry struct {
	ToolName string                  `json:"toolName"`
	Error    *resilience.ErrorDetail `json:"error"`
}
