//go:build !windows

package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Unix returns the OS signal delivered for this kind.
func (k SignalKind) Unix() (unix.Signal, error) {
	switch k {
	case SignalStop:
		return unix.SIGINT, nil
	case SignalToggle:
		return unix.SIGUSR1, nil
	default:
		return 0, fmt.Errorf("unknown signal kind %d", int(k))
	}
}

// SendSignal delivers kind to pid. Only the process itself is signalled,
// not its process group.
func SendSignal(pid int, kind SignalKind) error {
	sig, err := kind.Unix()
	if err != nil {
		return err
	}
	return unix.Kill(pid, sig)
}
