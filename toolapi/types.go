// Package toolapi holds the wire-level request/response types shared by
// every kernel component: ToolRequest, ToolResponse, and the metadata that
// travels with a response.
package toolapi

import (
	"time"

	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/resilience"
)

// ToolRequest is a single tool invocation request.
type ToolRequest struct {
	ToolName    string               `json:"toolName"`
	Args        map[string]any       `json:"args"`
	DetailLevel registry.DetailLevel `json:"detailLevel,omitempty"`
}

// Metadata accompanies every ToolResponse.
type Metadata struct {
	Server            string    `json:"server"`
	Persona           string    `json:"persona"`
	ExecutionTimeMs   int64     `json:"executionTimeMs"`
	Timestamp         time.Time `json:"timestamp"`
	RetryAttempts     int       `json:"retryAttempts,omitempty"`
	TotalRetryDelayMs int64     `json:"totalRetryDelayMs,omitempty"`
}

// ToolResponse is the result of a single tool invocation, successful or not.
type ToolResponse struct {
	Success      bool                    `json:"success"`
	Summary      string                  `json:"summary,omitempty"`
	Confidence   float64                 `json:"confidence"`
	Data         any                     `json:"data,omitempty"`
	DetailLevel  registry.DetailLevel    `json:"detailLevel,omitempty"`
	Completeness int                     `json:"completeness"`
	Metadata     Metadata                `json:"metadata"`
	Error        *resilience.ErrorDetail `json:"error,omitempty"`
}
