//go:build windows

package runner

import (
	"os/exec"
	"strconv"
)

// prepareCommand kills the process tree through taskkill on cancel and falls
// back to the direct child when that fails.
func prepareCommand(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		pid := strconv.Itoa(cmd.Process.Pid)
		if err := exec.Command("taskkill", "/T", "/F", "/PID", pid).Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = killGrace
}
