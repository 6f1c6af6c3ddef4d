//go:build windows

package process

import "os/exec"

// Windows offers no process-group creation worth configuring here; job
// objects would be required for tree-wide control.
func configureCmdSysProcAttr(cmd *exec.Cmd) {}
