//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

func configureCmdSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		// New process group so terminal interrupts reach the supervisor
		// alone; shutdown is forwarded via Terminate instead.
		Setpgid: true,
		// Children are signalled if the supervisor itself dies.
		Pdeathsig: syscall.SIGTERM,
	}
}
