package buttons

import (
	"context"
	"fmt"
	"sync"

	"github.com/core-tools/hsu-buttons/pkg/logging"
	"github.com/core-tools/hsu-buttons/pkg/process"
)

// Supervisor is what an action needs to inspect and drive processes.
type Supervisor interface {
	Lookup(ctx context.Context, name string) (int32, bool, error)
	Start(ctx context.Context, name string) error
	Signal(ctx context.Context, name string, kind process.SignalKind) (bool, error)
}

// Outcome tags what an action did with a press.
type Outcome int

const (
	OutcomePerformed Outcome = iota
	OutcomeIgnoredExclusive
	OutcomeIgnoredAlreadyInState
)

func (o Outcome) String() string {
	switch o {
	case OutcomePerformed:
		return "performed"
	case OutcomeIgnoredExclusive:
		return "ignored-exclusive"
	case OutcomeIgnoredAlreadyInState:
		return "ignored-already-in-state"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Verb string

const (
	VerbNone   Verb = ""
	VerbStart  Verb = "start"
	VerbStop   Verb = "stop"
	VerbToggle Verb = "toggle"
)

// ActionResult is the outcome of one press.
type ActionResult struct {
	Outcome Outcome
	Verb    Verb
	Binary  string
}

func (r ActionResult) String() string {
	if r.Verb == VerbNone {
		return fmt.Sprintf("%s `%s`", r.Outcome, r.Binary)
	}
	return fmt.Sprintf("%s %s `%s`", r.Outcome, r.Verb, r.Binary)
}

// Action is run once per press, always from the same monitor goroutine.
type Action interface {
	Handle(ctx context.Context) (ActionResult, error)
}

// ToggleBehaviourAction flips the logger output mode.
// The state is owned by this action alone and needs no lock.
type ToggleBehaviourAction struct {
	binary     string
	supervisor Supervisor
	logger     logging.Logger
	enabled    bool
}

func NewToggleBehaviourAction(binary string, initial bool, supervisor Supervisor, logger logging.Logger) *ToggleBehaviourAction {
	return &ToggleBehaviourAction{
		binary:     binary,
		supervisor: supervisor,
		logger:     logger,
		enabled:    initial,
	}
}

// Enabled must only be read from the monitor goroutine, or after it has stopped.
func (a *ToggleBehaviourAction) Enabled() bool {
	return a.enabled
}

func (a *ToggleBehaviourAction) Handle(ctx context.Context) (ActionResult, error) {
	a.enabled = !a.enabled
	a.logger.Infof("Toggle state of `%s`: %v", a.binary, a.enabled)

	delivered, err := a.supervisor.Signal(ctx, a.binary, process.SignalToggle)
	if err != nil {
		return ActionResult{}, err
	}
	if !delivered {
		return ActionResult{Outcome: OutcomeIgnoredAlreadyInState, Verb: VerbToggle, Binary: a.binary}, nil
	}
	return ActionResult{Outcome: OutcomePerformed, Verb: VerbToggle, Binary: a.binary}, nil
}

// ExclusionGroup serialises the start/stop decisions of actions whose
// processes must never run together.
type ExclusionGroup struct {
	mutex sync.Mutex
}

func NewExclusionGroup() *ExclusionGroup {
	return &ExclusionGroup{}
}

// StartStopAction starts its process when it is not running and stops it
// when it is, unless the peer process is running, in which case the press
// is ignored.
//
// Actions sharing an ExclusionGroup make their check and their start or stop
// as one step, so presses on the stream and capture buttons handled at the
// same time never leave both processes running. Without a shared group each
// action checks and acts on its own and that race is open. A process started
// outside the daemon between the check and the start is never prevented.
type StartStopAction struct {
	binary     string
	peer       string
	group      *ExclusionGroup
	supervisor Supervisor
	logger     logging.Logger
}

func NewStartStopAction(binary, peer string, group *ExclusionGroup, supervisor Supervisor, logger logging.Logger) *StartStopAction {
	if group == nil {
		group = NewExclusionGroup()
	}
	return &StartStopAction{
		binary:     binary,
		peer:       peer,
		group:      group,
		supervisor: supervisor,
		logger:     logger,
	}
}

func (a *StartStopAction) Handle(ctx context.Context) (ActionResult, error) {
	// Check and act as one step against the sibling action. Processes
	// started outside the daemon can still slip in between.
	a.group.mutex.Lock()
	defer a.group.mutex.Unlock()

	_, peerRunning, err := a.supervisor.Lookup(ctx, a.peer)
	if err != nil {
		return ActionResult{}, err
	}
	if peerRunning {
		a.logger.Infof("`%s` is running, ignoring press for `%s`", a.peer, a.binary)
		return ActionResult{Outcome: OutcomeIgnoredExclusive, Binary: a.binary}, nil
	}

	_, running, err := a.supervisor.Lookup(ctx, a.binary)
	if err != nil {
		return ActionResult{}, err
	}
	if !running {
		if err := a.supervisor.Start(ctx, a.binary); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Outcome: OutcomePerformed, Verb: VerbStart, Binary: a.binary}, nil
	}

	delivered, err := a.supervisor.Signal(ctx, a.binary, process.SignalStop)
	if err != nil {
		return ActionResult{}, err
	}
	if !delivered {
		// Exited on its own between the two lookups
		return ActionResult{Outcome: OutcomeIgnoredAlreadyInState, Verb: VerbStop, Binary: a.binary}, nil
	}
	return ActionResult{Outcome: OutcomePerformed, Verb: VerbStop, Binary: a.binary}, nil
}
