package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Default Docker runner settings.
const (
	DefaultImage       = "ubuntu:24.04"
	DefaultWorkDir     = "/workspace"
	DefaultExecTimeout = 60 * time.Second
)

// DockerRunner implements Runner by shelling out to the docker CLI.
type DockerRunner struct {
	// Image is the container image used for new environments.
	Image string

	// WorkDir is the working directory for commands run in the container.
	WorkDir string

	// ExecTimeout bounds a single Exec call. Zero means DefaultExecTimeout.
	ExecTimeout time.Duration
}

// NewDockerRunner creates a runner with the default image and working
// directory.
func NewDockerRunner() *DockerRunner {
	return &DockerRunner{
		Image:       DefaultImage,
		WorkDir:     DefaultWorkDir,
		ExecTimeout: DefaultExecTimeout,
	}
}

// Create provisions a stopped container that idles until removed. The
// returned handle is the container name, which docker treats as a stable
// identifier.
func (r *DockerRunner) Create(ctx context.Context, name string) (string, error) {
	image := r.Image
	if image == "" {
		image = DefaultImage
	}
	workDir := r.WorkDir
	if workDir == "" {
		workDir = DefaultWorkDir
	}

	out, err := runDocker(ctx, "create",
		"--name", name,
		"--workdir", workDir,
		image,
		"sleep", "infinity",
	)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w: %s", name, err, strings.TrimSpace(out))
	}

	return name, nil
}

// Start brings a created container up.
func (r *DockerRunner) Start(ctx context.Context, handle string) error {
	if out, err := runDocker(ctx, "start", handle); err != nil {
		return fmt.Errorf("failed to start container %s: %w: %s", handle, err, strings.TrimSpace(out))
	}
	return nil
}

// Probe checks that the container exists and is running.
func (r *DockerRunner) Probe(ctx context.Context, handle string) error {
	out, err := runDocker(ctx, "inspect", "--format", "{{.State.Running}}", handle)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEnvironmentGone, strings.TrimSpace(out))
	}
	if strings.TrimSpace(out) != "true" {
		return fmt.Errorf("%w: container %s is not running", ErrEnvironmentGone, handle)
	}
	return nil
}

// Exec runs a shell command inside the container.
func (r *DockerRunner) Exec(ctx context.Context, handle, command string) (*ExecResult, error) {
	timeout := r.ExecTimeout
	if timeout == 0 {
		timeout = DefaultExecTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "docker", "exec", handle, "/bin/sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return result, nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		// docker exec reflects the command's exit code, except for 125-127
		// which docker reserves for its own failures.
		code := exitErr.ExitCode()
		if code >= 125 && isGone(stderr.String()) {
			return nil, fmt.Errorf("%w: %s", ErrEnvironmentGone, strings.TrimSpace(stderr.String()))
		}
		result.ExitCode = code
		return result, nil
	}

	return nil, fmt.Errorf("failed to exec in container %s: %w", handle, err)
}

// Remove force-removes the container. Missing containers are ignored.
func (r *DockerRunner) Remove(ctx context.Context, handle string) error {
	out, err := runDocker(ctx, "rm", "--force", handle)
	if err != nil && !isGone(out) {
		return fmt.Errorf("failed to remove container %s: %w: %s", handle, err, strings.TrimSpace(out))
	}
	return nil
}

// isGone reports whether docker CLI output indicates a missing or stopped
// container.
func isGone(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "no such container") ||
		strings.Contains(lower, "is not running") ||
		strings.Contains(lower, "dead or marked for removal")
}

func runDocker(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
