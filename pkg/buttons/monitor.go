package buttons

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync/atomic"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/gpio"
	"github.com/core-tools/hsu-buttons/pkg/logging"
)

// ActionKind is the single action bound to a button channel.
type ActionKind string

const (
	ActionToggleLoggerBehavior ActionKind = "toggle-logger-behavior"
	ActionToggleStreamProcess  ActionKind = "toggle-stream-process"
	ActionToggleCaptureProcess ActionKind = "toggle-capture-process"
)

// Channel is one physical button. It is immutable once the monitor owns it.
type Channel struct {
	ID     string
	Line   gpio.LineConfig
	Action ActionKind
}

type State int32

const (
	StateIdle State = iota
	StateTriggered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTriggered:
		return "triggered"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Monitor waits for edges on one channel and runs its action for each.
type Monitor struct {
	channel Channel
	source  gpio.EdgeSource
	action  Action
	logger  logging.Logger

	state   atomic.Int32
	presses atomic.Int64
}

func NewMonitor(channel Channel, source gpio.EdgeSource, action Action, logger logging.Logger) *Monitor {
	return &Monitor{
		channel: channel,
		source:  source,
		action:  action,
		logger:  logger,
	}
}

func (m *Monitor) ID() string {
	return m.channel.ID
}

func (m *Monitor) Channel() Channel {
	return m.channel
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Presses returns how many edges have been handled.
func (m *Monitor) Presses() int64 {
	return m.presses.Load()
}

// Run loops until the wait or the action fails, which is returned, or until
// ctx is done or the source is closed, which returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Infof("Monitoring %s", m.channel.Line)

	for {
		m.state.Store(int32(StateIdle))

		if err := m.source.Wait(ctx); err != nil {
			if isStopped(err) {
				m.logger.Infof("Stopped monitoring, button: %s", m.channel.ID)
				return nil
			}
			return errors.NewPollError("unable to poll interrupt", err).
				WithContext("button", m.channel.ID).WithContext("line", m.channel.Line.Line)
		}

		m.state.Store(int32(StateTriggered))
		m.presses.Add(1)

		result, err := m.action.Handle(ctx)
		if err != nil {
			m.state.Store(int32(StateIdle))
			m.logger.Errorf("Action failed, button: %s, error: %v", m.channel.ID, err)
			return err
		}
		m.logger.Infof("Button %s pressed: %s", m.channel.ID, result)
	}
}

// isStopped reports whether a wait ended because the monitor was told to
// stop rather than because the line failed.
func isStopped(err error) bool {
	return stdErrors.Is(err, gpio.ErrClosed) ||
		stdErrors.Is(err, context.Canceled) ||
		stdErrors.Is(err, context.DeadlineExceeded)
}
