//go:build unix

package scope

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the client in its own process group and kills
// the group on cancellation, so helpers it spawned do not outlive it.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
