package process

import "fmt"

// SignalKind is the closed set of signals the daemon sends.
type SignalKind int

const (
	// SignalStop asks a process to shut down gracefully (SIGINT)
	SignalStop SignalKind = iota
	// SignalToggle asks a process to flip its behaviour mode (SIGUSR1)
	SignalToggle
)

func (k SignalKind) String() string {
	switch k {
	case SignalStop:
		return "stop"
	case SignalToggle:
		return "toggle"
	default:
		return fmt.Sprintf("signal(%d)", int(k))
	}
}

// SignalFunc delivers a signal to a single process.
type SignalFunc func(pid int, kind SignalKind) error
