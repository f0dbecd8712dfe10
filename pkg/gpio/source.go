package gpio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by Wait once the source has been closed.
var ErrClosed = errors.New("edge source closed")

// EdgeSource is one armed input line.
type EdgeSource interface {
	// Wait blocks until the next edge is reported. There is no timeout;
	// it returns early only when ctx is done or the source is closed.
	Wait(ctx context.Context) error
	Close() error
}

// Opener hands out armed edge sources for individual lines.
type Opener interface {
	Open(config LineConfig) (EdgeSource, error)
	Close() error
}

type Pull string

const (
	PullUp   Pull = "up"
	PullDown Pull = "down"
	PullOff  Pull = "off"
)

type Edge string

const (
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
	EdgeBoth    Edge = "both"
)

// LineConfig describes how a single input line is acquired and armed.
type LineConfig struct {
	Line  int
	Pull  Pull
	Edge  Edge
	Label string
}

func (c LineConfig) String() string {
	return fmt.Sprintf("%s (line %d, pull-%s, %s edge)", c.Label, c.Line, c.Pull, c.Edge)
}

func ParsePull(value string) (Pull, error) {
	switch Pull(strings.ToLower(value)) {
	case PullUp:
		return PullUp, nil
	case PullDown:
		return PullDown, nil
	case PullOff, "none", "disabled":
		return PullOff, nil
	default:
		return "", fmt.Errorf("unknown pull mode %q, expected up, down or off", value)
	}
}

func ParseEdge(value string) (Edge, error) {
	switch Edge(strings.ToLower(value)) {
	case EdgeRising:
		return EdgeRising, nil
	case EdgeFalling:
		return EdgeFalling, nil
	case EdgeBoth:
		return EdgeBoth, nil
	default:
		return "", fmt.Errorf("unknown edge %q, expected rising, falling or both", value)
	}
}
