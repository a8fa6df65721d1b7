//go:build !windows

package runner

import (
	"os/exec"
	"testing"
)

func TestPrepareCommand_Unix(t *testing.T) {
	cmd := exec.Command("echo", "hello")
	prepareCommand(cmd)

	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Fatal("expected the command to run in its own process group")
	}
	if cmd.Cancel == nil {
		t.Error("Cancel function should be set")
	}
	if cmd.WaitDelay != killGrace {
		t.Errorf("Expected WaitDelay %v, got %v", killGrace, cmd.WaitDelay)
	}
}
