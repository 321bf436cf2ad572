// Package docker runs snippet content in throwaway Docker containers.
//
// Each run gets a fresh container with no network, a memory cap, and a
// CPU cap; the container is force-removed afterwards regardless of
// outcome. Images are pulled lazily the first time a language is run,
// so startup doesn't block on pulling interpreters nobody uses.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/mlatour/codestash/internal/executor"
)

// timeoutExitCode mirrors the unix timeout(1) convention.
const timeoutExitCode = 124

// Runner implements executor.Runner using the Docker API.
type Runner struct {
	cli    *client.Client
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	pulled map[string]bool // images confirmed present
}

var _ executor.Runner = (*Runner)(nil)

// New creates a Runner and verifies the Docker daemon is reachable.
func New(cfg Config, logger *slog.Logger) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}

	return &Runner{
		cli:    cli,
		config: cfg,
		logger: logger,
		pulled: make(map[string]bool),
	}, nil
}

// Close releases the Docker client.
func (r *Runner) Close() error {
	return r.cli.Close()
}

// ensureImage pulls the image on first use. Serialized with a mutex so
// concurrent first runs of the same language pull once, not N times.
func (r *Runner) ensureImage(ctx context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pulled[ref] {
		return nil
	}

	r.logger.Info("pulling sandbox image", slog.String("image", ref))
	reader, err := r.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()
	// Drain to block until the pull completes.
	io.Copy(io.Discard, reader)

	r.pulled[ref] = true
	return nil
}

// Run executes req.Code in a sandboxed container for req.Language.
func (r *Runner) Run(ctx context.Context, req executor.RunRequest) (*executor.RunResult, error) {
	lang, ok := r.config.Languages[req.Language]
	if !ok {
		return nil, fmt.Errorf("%w: %q", executor.ErrUnsupportedLanguage, req.Language)
	}

	pullCtx, pullCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer pullCancel()
	if err := r.ensureImage(pullCtx, lang.Image); err != nil {
		return nil, err
	}

	start := time.Now()

	created, err := r.cli.ContainerCreate(ctx,
		&container.Config{
			Image:           lang.Image,
			Cmd:             append(append([]string{}, lang.Command...), req.Code),
			NetworkDisabled: true,
		},
		&container.HostConfig{
			NetworkMode: "none",
			Resources: container.Resources{
				Memory:   r.config.MemoryLimit,
				NanoCPUs: int64(r.config.CPULimit * 1e9),
			},
		},
		nil, nil, "",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := created.ID

	// Force-remove no matter how the run ends; a fresh context because
	// the request's may already be dead.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := r.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true})
		if err != nil {
			r.logger.Error("failed to remove container",
				slog.String("id", containerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	runCtx, runCancel := context.WithTimeout(ctx, r.config.Timeout)
	defer runCancel()

	waitCh, waitErrCh := r.cli.ContainerWait(runCtx, containerID, container.WaitConditionNotRunning)

	if err := r.cli.ContainerStart(runCtx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	var exitCode int
	timedOut := false

	select {
	case status := <-waitCh:
		exitCode = int(status.StatusCode)
	case err := <-waitErrCh:
		if runCtx.Err() != nil {
			timedOut = true
			exitCode = timeoutExitCode
		} else {
			return nil, fmt.Errorf("failed waiting for container: %w", err)
		}
	case <-runCtx.Done():
		timedOut = true
		exitCode = timeoutExitCode
	}

	// Collect whatever the run produced, even on timeout. Fresh context
	// here too — runCtx is spent when the timeout fired.
	logsCtx, logsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer logsCancel()

	var stdout, stderr bytes.Buffer
	logs, err := r.cli.ContainerLogs(logsCtx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err == nil {
		// stdcopy demultiplexes Docker's combined log stream.
		_, _ = stdcopy.StdCopy(&stdout, &stderr, logs)
		logs.Close()
	}

	if timedOut {
		stderr.WriteString("\nExecution timed out.\n")
	}

	return &executor.RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}
