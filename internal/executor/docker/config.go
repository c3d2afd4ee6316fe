package docker

import (
	"time"
)

// Language describes how to run one language inside its sandbox image.
// The code is passed inline: Cmd(code) = [Program, EvalFlag, code], e.g.
// ["python", "-c", code].
type Language struct {
	// Image is the Docker image to use for execution.
	Image string
	// Program is the interpreter binary inside the image.
	Program string
	// EvalFlag is the interpreter's inline-eval flag.
	EvalFlag string
}

// Cmd builds the exec command for the given code.
func (l Language) Cmd(code string) []string {
	return []string{l.Program, l.EvalFlag, code}
}

// Config holds the configuration for Docker execution.
type Config struct {
	// Languages maps a snippet language to its sandbox setup. Languages not
	// in the map are rejected before any Docker call.
	Languages map[string]Language
	// MemoryLimit is the maximum amount of memory a container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout is the maximum amount of time one execution can take.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers to maintain per language.
	PoolSize int
}

// DefaultConfig provides sensible defaults: lightweight alpine images for
// the interpreted languages snippets most commonly use.
func DefaultConfig() Config {
	return Config{
		Languages: map[string]Language{
			"python":     {Image: "python:3.12-alpine", Program: "python", EvalFlag: "-c"},
			"javascript": {Image: "node:22-alpine", Program: "node", EvalFlag: "-e"},
			"ruby":       {Image: "ruby:3.3-alpine", Program: "ruby", EvalFlag: "-e"},
		},
		// 128 MB memory limit
		MemoryLimit: 128 * 1024 * 1024,
		// 0.5 CPU shares
		CPULimit: 0.5,
		// 5 second default timeout
		Timeout:  5 * time.Second,
		PoolSize: 2,
	}
}
