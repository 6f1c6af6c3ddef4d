//go:build windows

package process

import (
	"os"
	"os/exec"
)

// Terminate asks the child to exit. Windows has no POSIX process groups, so
// the request reaches only the direct child; if the interrupt cannot be
// delivered the child is killed outright. Grandchildren may keep running.
func (h *handle) Terminate() {
	h.termOnce.Do(func() {
		if h.cmd.Process == nil {
			return
		}
		if err := h.cmd.Process.Signal(os.Interrupt); err != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}

func waitStatusExitCode(err *exec.ExitError) int {
	if code := err.ExitCode(); code >= 0 {
		return code
	}
	return 1
}
