//go:build !windows && !linux

package process

import (
	"os/exec"
	"syscall"
)

func configureCmdSysProcAttr(cmd *exec.Cmd) {
	// New process group so terminal interrupts reach the supervisor alone;
	// shutdown is forwarded via Terminate instead.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
