package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/Warwolt/hotrun/internal/runtime"
)

type runtimeImpl struct{}

// New constructs a runtime that executes commands as local processes.
func New() runtime.Runtime {
	return &runtimeImpl{}
}

func (r *runtimeImpl) Start(ctx context.Context, spec runtime.CommandSpec) (runtime.Handle, error) {
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("process runtime for %s requires a command", spec.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	// Plain Command, not CommandContext: a done ctx must not kill the
	// child. Terminate is the only stop request a child ever receives.
	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}

	// Children own the terminal; their output is never captured.
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	h := &handle{
		name:     spec.Name,
		cmd:      cmd,
		waitDone: make(chan struct{}),
	}
	go h.reap()

	return h, nil
}

type handle struct {
	name     string
	cmd      *exec.Cmd
	waitDone chan struct{}

	// Written by reap before waitDone closes, read-only afterwards.
	code    int
	waitErr error

	termOnce sync.Once
}

func (h *handle) reap() {
	h.code, h.waitErr = exitCode(h.cmd.Wait())
	close(h.waitDone)
}

func (h *handle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *handle) Wait(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-h.waitDone:
		return h.code, h.waitErr
	}
}

// exitCode maps the result of exec.Cmd.Wait to a shell-style exit code. A
// signal-killed child reports 128 plus the signal number on Unix.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return waitStatusExitCode(exitErr), nil
	}
	return 1, fmt.Errorf("wait for process: %w", err)
}
