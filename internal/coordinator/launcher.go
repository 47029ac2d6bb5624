package coordinator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
)

// ProcessLauncher runs every task in a fresh copy of an executable, by
// default the running binary. The child finds its task in TaskEnvKey and is
// expected to hand it to the engine's worker entry point before doing
// anything else.
type ProcessLauncher struct {
	Path   string
	Args   []string
	Env    []string // appended to the parent's environment
	Stdout io.Writer
	Stderr io.Writer
}

// NewProcessLauncher re-executes the current binary with env added.
func NewProcessLauncher(env ...string) (*ProcessLauncher, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &ProcessLauncher{
		Path:   path,
		Env:    env,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// Launch starts the worker and waits for it. When ctx ends first the worker's
// whole process group is killed.
func (p *ProcessLauncher) Launch(ctx context.Context, task Task) error {
	cmd := exec.CommandContext(ctx, p.Path, p.Args...)
	cmd.Env = append(os.Environ(), p.Env...)
	cmd.Env = append(cmd.Env, TaskEnvKey+"="+task.Encode())
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	setProcessGroup(cmd)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("worker %s stopped: %w", task, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrWorkerFailed, task, err)
	}
	return nil
}

// FuncLauncher runs tasks in goroutines of the current process. A panic in
// the task fails that task only.
type FuncLauncher func(ctx context.Context, task Task) error

func (f FuncLauncher) Launch(ctx context.Context, task Task) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %s: %v\n%s", ErrWorkerPanicked, task, r, debug.Stack())
			}
		}()
		done <- f(ctx, task)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("worker %s abandoned: %w", task, ctx.Err())
	}
}
