package process

import (
	"os"
	"os/exec"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/logging"
)

// Handle is a started child process that can be reaped.
type Handle interface {
	Pid() int
	Wait() error
}

// StartFunc creates a new detached process running the named binary.
type StartFunc func(name string) (Handle, error)

type cmdHandle struct {
	cmd *exec.Cmd
}

func (h *cmdHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *cmdHandle) Wait() error {
	return h.cmd.Wait()
}

// NewStdStartFunc returns a StartFunc that resolves the binary on PATH and
// starts it in its own process group. The child inherits stdout and stderr
// and is never tied to a context: it must outlive the button press, and the
// daemon too.
func NewStdStartFunc(logger logging.Logger) StartFunc {
	return func(name string) (Handle, error) {
		if err := ValidateBinaryName(name); err != nil {
			return nil, errors.NewSpawnError(name, err)
		}

		path, err := exec.LookPath(name)
		if err != nil {
			return nil, errors.NewSpawnError(name, err)
		}

		cmd := exec.Command(path)
		cmd.Stdin = nil
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		// Platform-specific setup is handled in execute_unix.go and execute_windows.go
		setupProcessAttributes(cmd)

		logger.Debugf("Executing process, name: %s, path: '%s'", name, path)

		if err := cmd.Start(); err != nil {
			if isForkFailure(err) {
				return nil, errors.NewForkError(name, err).WithContext("path", path)
			}
			return nil, errors.NewSpawnError(name, err).WithContext("path", path)
		}

		return &cmdHandle{cmd: cmd}, nil
	}
}
