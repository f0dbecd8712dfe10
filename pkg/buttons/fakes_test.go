package buttons

import (
	"context"
	"sync"

	"github.com/core-tools/hsu-buttons/pkg/logging"
	"github.com/core-tools/hsu-buttons/pkg/process"
	"github.com/core-tools/hsu-buttons/pkg/processstate"

	"github.com/stretchr/testify/mock"
)

type MockSupervisor struct {
	mock.Mock
}

func (m *MockSupervisor) Lookup(ctx context.Context, name string) (int32, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int32), args.Bool(1), args.Error(2)
}

func (m *MockSupervisor) Start(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockSupervisor) Signal(ctx context.Context, name string, kind process.SignalKind) (bool, error) {
	args := m.Called(ctx, name, kind)
	return args.Bool(0), args.Error(1)
}

type signalRecord struct {
	Binary string
	Kind   process.SignalKind
}

// fakeProcesses is a process table where started processes appear
// immediately and stop signals remove them.
type fakeProcesses struct {
	table *processstate.StaticTable

	mutex   sync.Mutex
	nextPID int32
	names   map[int32]string
	exits   map[int32]chan error
	starts  []string
	signals []signalRecord
}

type fakeHandle struct {
	pid  int
	exit chan error
}

func (h *fakeHandle) Pid() int    { return h.pid }
func (h *fakeHandle) Wait() error { return <-h.exit }

func newFakeProcesses(running ...string) *fakeProcesses {
	f := &fakeProcesses{
		table:   processstate.NewStaticTable(),
		nextPID: 100,
		names:   make(map[int32]string),
		exits:   make(map[int32]chan error),
	}
	for _, name := range running {
		f.add(name)
	}
	return f
}

func (f *fakeProcesses) add(name string) int32 {
	f.nextPID++
	pid := f.nextPID
	f.names[pid] = name
	f.exits[pid] = make(chan error, 1)
	f.table.Add(pid, "/usr/bin/"+name)
	return pid
}

func (f *fakeProcesses) start(name string) (process.Handle, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.starts = append(f.starts, name)
	pid := f.add(name)
	return &fakeHandle{pid: int(pid), exit: f.exits[pid]}, nil
}

func (f *fakeProcesses) signal(pid int, kind process.SignalKind) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	name := f.names[int32(pid)]
	f.signals = append(f.signals, signalRecord{Binary: name, Kind: kind})
	if kind == process.SignalStop {
		f.table.Remove(int32(pid))
		f.exits[int32(pid)] <- nil
	}
	return nil
}

func (f *fakeProcesses) Starts() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.starts...)
}

func (f *fakeProcesses) Signals() []signalRecord {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]signalRecord(nil), f.signals...)
}

func (f *fakeProcesses) supervisor() *process.Supervisor {
	registry := processstate.NewRegistryWithSource(f.table, logging.NewNopLogger())
	return process.NewSupervisorWithOptions(registry, process.SupervisorOptions{
		Start:  f.start,
		Signal: f.signal,
	}, logging.NewNopLogger())
}
