package executor

import (
	"context"
	"time"
)

// ExecutionRequest represents a request to execute a snippet's code in the
// language it was saved with.
type ExecutionRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ExecutionResult represents the output and status of the code execution.
type ExecutionResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Executor represents the core interface for running code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
	// Supports reports whether the executor can run the given language.
	// Callers check this before Execute to return a clean validation error
	// instead of a sandbox failure.
	Supports(language string) bool
}
