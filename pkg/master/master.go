package master

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/logging"
)

// Unit is an independent loop run by the master on its own goroutine.
type Unit interface {
	ID() string
	Run(ctx context.Context) error
}

// MasterState represents the current state of the master
type MasterState string

const (
	// MasterStateNotStarted is the initial state before Start() is called
	MasterStateNotStarted MasterState = "not_started"

	// MasterStateRunning means units are running
	MasterStateRunning MasterState = "running"

	// MasterStateStopped means every unit has been joined
	MasterStateStopped MasterState = "stopped"
)

type unitEntry struct {
	unit Unit
	done chan struct{}
	err  error
	// Set when the unit panicked instead of returning
	joinErr error
}

// Master runs every registered unit concurrently and joins them in
// registration order. A failing unit never stops its siblings: each keeps
// running until it fails on its own or the context is cancelled.
type Master struct {
	logger      logging.Logger
	units       []*unitEntry
	ids         map[string]struct{}
	masterState MasterState
	mutex       sync.Mutex
}

func NewMaster(logger logging.Logger) *Master {
	return &Master{
		logger:      logger,
		ids:         make(map[string]struct{}),
		masterState: MasterStateNotStarted,
	}
}

func (m *Master) AddUnit(unit Unit) error {
	if unit == nil {
		return errors.NewValidationError("unit cannot be nil", nil)
	}

	id := unit.ID()
	if err := ValidateUnitID(id); err != nil {
		return errors.NewValidationError("invalid unit ID", err).WithContext("unit_id", id)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.masterState != MasterStateNotStarted {
		return errors.NewConflictError("cannot add unit after start", nil).
			WithContext("unit_id", id).WithContext("state", string(m.masterState))
	}
	if _, exists := m.ids[id]; exists {
		return errors.NewConflictError("unit already exists", nil).WithContext("unit_id", id)
	}

	m.ids[id] = struct{}{}
	m.units = append(m.units, &unitEntry{unit: unit, done: make(chan struct{})})

	m.logger.Infof("Added unit, id: %s", id)
	return nil
}

// Start launches one goroutine per unit.
func (m *Master) Start(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.masterState != MasterStateNotStarted {
		return errors.NewConflictError("master already started", nil).WithContext("state", string(m.masterState))
	}
	m.masterState = MasterStateRunning

	for _, entry := range m.units {
		go m.run(ctx, entry)
	}

	m.logger.Infof("Master started, units: %d", len(m.units))
	return nil
}

func (m *Master) run(ctx context.Context, entry *unitEntry) {
	defer close(entry.done)
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("Unit panicked, id: %s, panic: %v, stack: %s", entry.unit.ID(), r, debug.Stack())
			entry.joinErr = errors.NewJoinError(entry.unit.ID(), fmt.Errorf("panic: %v", r))
		}
	}()

	entry.err = entry.unit.Run(ctx)
}

// Join waits for every unit in registration order and returns all their
// errors. It blocks for as long as any unit is still running.
func (m *Master) Join() error {
	m.mutex.Lock()
	if m.masterState != MasterStateRunning {
		state := m.masterState
		m.mutex.Unlock()
		return errors.NewConflictError("master is not running", nil).WithContext("state", string(state))
	}
	units := m.units
	m.mutex.Unlock()

	collection := errors.NewErrorCollection()
	for _, entry := range units {
		<-entry.done

		id := entry.unit.ID()
		switch {
		case entry.joinErr != nil:
			m.logger.Errorf("Failed to join unit, id: %s, error: %v", id, entry.joinErr)
			collection.Add(entry.joinErr)
		case entry.err != nil:
			m.logger.Errorf("Unit failed, id: %s, error: %v", id, entry.err)
			collection.Add(entry.err)
		default:
			m.logger.Infof("Joined unit, id: %s", id)
		}
	}

	m.mutex.Lock()
	m.masterState = MasterStateStopped
	m.mutex.Unlock()

	return collection.ToError()
}

func (m *Master) State() MasterState {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.masterState
}
