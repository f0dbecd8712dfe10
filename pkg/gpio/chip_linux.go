//go:build linux

package gpio

import (
	"context"
	"fmt"
	"sync"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/logging"

	"github.com/warthog618/go-gpiocdev"
)

// Edges are buffered while the monitor runs its action, so a press made
// during a slow process start is still seen afterwards.
const eventBufferSize = 16

// Chip is a GPIO character device, e.g. gpiochip0.
type Chip struct {
	name   string
	chip   *gpiocdev.Chip
	logger logging.Logger
}

func OpenChip(name string, consumer string, logger logging.Logger) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, errors.NewGPIOError("unable to access GPIO", err).WithContext("chip", name)
	}
	logger.Infof("Opened GPIO chip, name: %s, lines: %d", name, chip.Lines())
	return &Chip{name: name, chip: chip, logger: logger}, nil
}

// Open requests the line as an input with the configured bias and arms
// edge detection on it.
func (c *Chip) Open(config LineConfig) (EdgeSource, error) {
	options, err := requestOptions(config)
	if err != nil {
		return nil, errors.NewPinError("invalid line configuration", err).WithContext("line", config.Line)
	}

	source := &lineSource{
		events: make(chan gpiocdev.LineEvent, eventBufferSize),
		closed: make(chan struct{}),
	}
	options = append(options, gpiocdev.WithEventHandler(source.handle))

	line, err := c.chip.RequestLine(config.Line, options...)
	if err != nil {
		return nil, errors.NewPinError(fmt.Sprintf("unable to access GPIO pin `%d`", config.Line), err).
			WithContext("chip", c.name).WithContext("line", config.Line)
	}
	source.line = line

	c.logger.Infof("Armed input, %s", config)
	return source, nil
}

func (c *Chip) Close() error {
	return c.chip.Close()
}

func requestOptions(config LineConfig) ([]gpiocdev.LineReqOption, error) {
	options := []gpiocdev.LineReqOption{gpiocdev.AsInput}

	switch config.Pull {
	case PullUp:
		options = append(options, gpiocdev.WithPullUp)
	case PullDown:
		options = append(options, gpiocdev.WithPullDown)
	case PullOff:
		options = append(options, gpiocdev.WithBiasDisabled)
	default:
		return nil, fmt.Errorf("unknown pull mode %q", config.Pull)
	}

	switch config.Edge {
	case EdgeRising:
		options = append(options, gpiocdev.WithRisingEdge)
	case EdgeFalling:
		options = append(options, gpiocdev.WithFallingEdge)
	case EdgeBoth:
		options = append(options, gpiocdev.WithBothEdges)
	default:
		return nil, fmt.Errorf("unknown edge %q", config.Edge)
	}

	return options, nil
}

type lineSource struct {
	line      *gpiocdev.Line
	events    chan gpiocdev.LineEvent
	closed    chan struct{}
	closeOnce sync.Once
}

// handle runs on the gpiocdev watcher goroutine.
func (s *lineSource) handle(event gpiocdev.LineEvent) {
	select {
	case s.events <- event:
	case <-s.closed:
	}
}

func (s *lineSource) Wait(ctx context.Context) error {
	select {
	case <-s.events:
		return nil
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *lineSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.line.Close()
	})
	return err
}
