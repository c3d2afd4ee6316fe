package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/snippetshare/internal/executor"
)

// Executor implements the executor.Executor interface using Docker, with
// one pre-warmed container pool per supported language.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*Pool
}

// New creates a new Docker Executor, pulls every language image, and starts
// the per-language pools.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for lang, spec := range cfg.Languages {
		logger.Info("ensuring docker image is available",
			slog.String("language", lang),
			slog.String("image", spec.Image),
		)
		reader, err := cli.ImagePull(ctx, spec.Image, image.PullOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to pull image %s: %w", spec.Image, err)
		}
		// Read everything to block until the pull is complete
		io.Copy(io.Discard, reader)
		reader.Close()
	}
	logger.Info("docker images are ready")

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*Pool, len(cfg.Languages)),
	}

	for lang, spec := range cfg.Languages {
		pool := NewPool(cli, cfg, spec.Image, logger)
		pool.Start()
		exec.pools[lang] = pool
	}

	return exec, nil
}

// Supports reports whether a pool exists for the language.
func (e *Executor) Supports(language string) bool {
	_, ok := e.config.Languages[language]
	return ok
}

// Close shuts down all pools and the docker client.
func (e *Executor) Close() error {
	for _, pool := range e.pools {
		pool.Stop()
	}
	return e.cli.Close()
}

// Execute runs the request's code in a sandboxed Docker container for its
// language.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	start := time.Now()

	spec, ok := e.config.Languages[req.Language]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", req.Language)
	}
	pool := e.pools[req.Language]

	// Take a pre-warmed container from the language's pool
	containerID, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	// Always ensure we clean up the container that we acquired
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			e.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	// We apply a timeout context purely for the container wait
	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	// The container was started with `sleep infinity`, so we `docker exec`
	// the interpreter with the code inline.
	execConfig := container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          spec.Cmd(req.Code),
	}

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer

	// Channels to manage sync and timeout
	done := make(chan struct{})
	go func() {
		// Use stdcopy to demultiplex stdout from stderr
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	var finalExitCode int

	select {
	case <-done:
		// Completed normally
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			finalExitCode = inspectResp.ExitCode
		}
	case <-executeCtx.Done():
		// Timeout reached
		finalExitCode = 124 // Custom exit code for timeout (similar to unix timeout command)
		stderr.WriteString("\nExecution timed out.\n")
	}

	return &executor.ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: finalExitCode,
		Duration: time.Since(start),
	}, nil
}
