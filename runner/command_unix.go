//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// prepareCommand starts the test command as a process group leader, so a
// cancel takes down whatever it spawned (jest workers, compiled go test
// binaries) along with it.
func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killGrace
}
