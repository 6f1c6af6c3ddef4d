//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Terminate asks the child's process group to exit with SIGTERM. The signal
// reaches every member of the group, so commands that spawn their own
// children (cargo invoking rustc, cargo run executing the built binary)
// receive the request too. Errors are ignored; the group may already be
// gone by the time the signal is sent.
func (h *handle) Terminate() {
	h.termOnce.Do(func() {
		if h.cmd.Process == nil {
			return
		}
		_ = syscall.Kill(-h.cmd.Process.Pid, syscall.SIGTERM)
	})
}

func waitStatusExitCode(err *exec.ExitError) int {
	if status, ok := err.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return 1
}
