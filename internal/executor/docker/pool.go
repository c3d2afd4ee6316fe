package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Pool keeps a buffer of pre-warmed containers for one sandbox image.
// Container startup costs hundreds of milliseconds; a snippet run should
// not pay it. The executor holds one Pool per configured language.
type Pool struct {
	cli        *client.Client
	config     Config
	image      string
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startDone  sync.Once
}

// NewPool creates a pool for the given sandbox image. Call Start to begin
// warming containers.
func NewPool(cli *client.Client, cfg Config, image string, logger *slog.Logger) *Pool {
	return &Pool{
		cli:        cli,
		config:     cfg,
		image:      image,
		logger:     logger,
		containers: make(chan string, cfg.PoolSize),
		done:       make(chan struct{}),
	}
}

// Start launches the background refiller. Safe to call more than once.
func (p *Pool) Start() {
	p.startDone.Do(func() {
		p.logger.Info("starting sandbox container pool",
			slog.String("image", p.image),
			slog.Int("poolSize", p.config.PoolSize),
		)
		p.wg.Add(1)
		go p.refill()
	})
}

// Stop halts the refiller and removes every idle container.
func (p *Pool) Stop() {
	p.logger.Info("stopping sandbox container pool", slog.String("image", p.image))
	close(p.done)
	p.wg.Wait()

	for {
		select {
		case id := <-p.containers:
			p.removeContainer(id)
		default:
			return
		}
	}
}

// Acquire returns a warm container ID, blocking until one is ready or the
// context is cancelled. The caller owns the container afterwards and must
// remove it when done — used containers never return to the pool.
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refill keeps the buffer at capacity until Stop.
func (p *Pool) refill() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
			if len(p.containers) < cap(p.containers) {
				id, err := p.createContainer()
				if err != nil {
					p.logger.Error("failed to warm sandbox container",
						slog.String("image", p.image),
						slog.String("error", err.Error()),
					)
					time.Sleep(1 * time.Second) // backoff on failure
					continue
				}

				select {
				case p.containers <- id:
				case <-p.done:
					// Stop raced us while the container was starting
					p.removeContainer(id)
					return
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
		}
	}
}

// createContainer starts an idle sandbox (`sleep infinity`) that later
// receives one exec with the snippet's code.
//
// SANDBOX HARDENING:
//   - no network: a snippet must not call out
//   - read-only root filesystem
//   - memory and CPU capped per Config
//   - runs as the unprivileged "nobody" user
func (p *Pool) createContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   p.config.MemoryLimit,
			NanoCPUs: int64(p.config.CPULimit * 1e9),
		},
		AutoRemove:     false,
		ReadonlyRootfs: true,
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:        p.image,
		Cmd:          []string{"sleep", "infinity"},
		Tty:          false,
		AttachStdout: false,
		AttachStderr: false,
		User:         "nobody",
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("creating sandbox container: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.removeContainer(resp.ID)
		return "", fmt.Errorf("starting sandbox container: %w", err)
	}

	return resp.ID, nil
}

// removeContainer force-removes a container, ignoring errors — the
// container may already be gone.
func (p *Pool) removeContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = p.cli.ContainerRemove(ctx, id, container.RemoveOptions{
		Force: true,
	})
}
