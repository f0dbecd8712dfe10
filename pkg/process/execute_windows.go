//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"syscall"
)

// setupProcessAttributes starts the child in its own process group so the
// daemon's Ctrl+C is not delivered to it.
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

func isForkFailure(err error) bool {
	return false
}

// SendSignal is unsupported: windows has no SIGINT or SIGUSR1 delivery to
// arbitrary processes.
func SendSignal(pid int, kind SignalKind) error {
	return fmt.Errorf("%s signal is not supported on windows", kind)
}
