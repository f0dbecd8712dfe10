package process

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/logging"
)

// Lookuper finds a running process by executable name.
type Lookuper interface {
	Lookup(ctx context.Context, name string) (int32, bool, error)
}

// Child is a process started by the supervisor that has not exited yet.
type Child struct {
	Name      string
	PID       int
	StartedAt time.Time
}

type SupervisorOptions struct {
	Start  StartFunc
	Signal SignalFunc
}

// Supervisor starts detached processes and signals running ones.
//
// Liveness always comes from the registry, never from the children table:
// processes started outside the daemon count as running too. The children
// table only exists so every child started here gets reaped.
type Supervisor struct {
	registry Lookuper
	start    StartFunc
	signal   SignalFunc
	logger   logging.Logger

	mutex    sync.Mutex
	children map[int]Child
	watchers sync.WaitGroup
}

func NewSupervisor(registry Lookuper, logger logging.Logger) *Supervisor {
	return NewSupervisorWithOptions(registry, SupervisorOptions{}, logger)
}

func NewSupervisorWithOptions(registry Lookuper, options SupervisorOptions, logger logging.Logger) *Supervisor {
	if options.Start == nil {
		options.Start = NewStdStartFunc(logger)
	}
	if options.Signal == nil {
		options.Signal = SendSignal
	}
	return &Supervisor{
		registry: registry,
		start:    options.Start,
		signal:   options.Signal,
		logger:   logger,
		children: make(map[int]Child),
	}
}

func (s *Supervisor) Lookup(ctx context.Context, name string) (int32, bool, error) {
	return s.registry.Lookup(ctx, name)
}

// Start creates a new process running name and returns once it exists.
// Nothing is started when ctx is already done. The child itself is not tied
// to ctx and outlives it; a watcher reaps it.
func (s *Supervisor) Start(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	handle, err := s.start(name)
	if err != nil {
		s.logger.Errorf("Failed to start process, name: %s, error: %v", name, err)
		return err
	}

	pid := handle.Pid()
	child := Child{Name: name, PID: pid, StartedAt: time.Now()}

	s.mutex.Lock()
	s.children[pid] = child
	s.mutex.Unlock()

	s.logger.Infof("Forked `%s` child process with PID: %d", name, pid)

	s.watchers.Add(1)
	go s.watch(child, handle)

	return nil
}

func (s *Supervisor) watch(child Child, handle Handle) {
	defer s.watchers.Done()

	err := handle.Wait()

	s.mutex.Lock()
	delete(s.children, child.PID)
	s.mutex.Unlock()

	uptime := time.Since(child.StartedAt).Round(time.Millisecond)
	if err != nil {
		s.logger.Warnf("Child process exited, name: %s, PID: %d, uptime: %v, status: %v", child.Name, child.PID, uptime, err)
		return
	}
	s.logger.Infof("Child process exited, name: %s, PID: %d, uptime: %v", child.Name, child.PID, uptime)
}

// Signal delivers kind to the first process named name. A process that is
// not running is not an error: delivered is false and nothing is sent.
func (s *Supervisor) Signal(ctx context.Context, name string, kind SignalKind) (bool, error) {
	pid, found, err := s.registry.Lookup(ctx, name)
	if err != nil {
		return false, err
	}
	if !found {
		s.logger.Debugf("Process not running, %s signal skipped, name: %s", kind, name)
		return false, nil
	}
	if err := ValidatePID(pid); err != nil {
		return false, errors.NewSignalError(name, err)
	}

	// The process may have exited since the lookup; that surfaces here.
	if err := s.signal(int(pid), kind); err != nil {
		return false, errors.NewSignalError(name, err).WithContext("pid", pid).WithContext("signal", kind.String())
	}

	s.logger.Infof("Sent %s signal, name: %s, PID: %d", kind, name, pid)
	return true, nil
}

// Children returns the children that are still running, ordered by PID.
func (s *Supervisor) Children() []Child {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]Child, 0, len(s.children))
	for _, child := range s.children {
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// WaitChildren blocks until every started child has exited and been reaped,
// or ctx is done.
func (s *Supervisor) WaitChildren(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.watchers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
