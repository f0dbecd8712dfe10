//go:build !windows

package process

import (
	"context"
	stdErrors "errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type MockLookuper struct {
	mock.Mock
}

func (m *MockLookuper) Lookup(ctx context.Context, name string) (int32, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int32), args.Bool(1), args.Error(2)
}

type signalCall struct {
	pid  int
	kind SignalKind
}

type recordingSignaller struct {
	mutex sync.Mutex
	calls []signalCall
	err   error
}

func (r *recordingSignaller) Signal(pid int, kind SignalKind) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.calls = append(r.calls, signalCall{pid: pid, kind: kind})
	return r.err
}

type fakeHandle struct {
	pid  int
	exit chan error
}

func (h *fakeHandle) Pid() int    { return h.pid }
func (h *fakeHandle) Wait() error { return <-h.exit }

func TestSignal_AbsentProcessIsNoop(t *testing.T) {
	registry := &MockLookuper{}
	registry.On("Lookup", mock.Anything, "datalogger").Return(int32(0), false, nil)
	signaller := &recordingSignaller{}

	supervisor := NewSupervisorWithOptions(registry, SupervisorOptions{Signal: signaller.Signal}, logging.NewNopLogger())

	delivered, err := supervisor.Signal(context.Background(), "datalogger", SignalToggle)

	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, signaller.calls)
	registry.AssertExpectations(t)
}

func TestSignal_DeliversToFoundProcess(t *testing.T) {
	registry := &MockLookuper{}
	registry.On("Lookup", mock.Anything, "rtsp-simple-server").Return(int32(321), true, nil)
	signaller := &recordingSignaller{}

	supervisor := NewSupervisorWithOptions(registry, SupervisorOptions{Signal: signaller.Signal}, logging.NewNopLogger())

	delivered, err := supervisor.Signal(context.Background(), "rtsp-simple-server", SignalStop)

	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, []signalCall{{pid: 321, kind: SignalStop}}, signaller.calls)
}

func TestSignal_DeliveryFailure(t *testing.T) {
	registry := &MockLookuper{}
	registry.On("Lookup", mock.Anything, "bombuscv").Return(int32(99), true, nil)
	signaller := &recordingSignaller{err: unix.ESRCH}

	supervisor := NewSupervisorWithOptions(registry, SupervisorOptions{Signal: signaller.Signal}, logging.NewNopLogger())

	delivered, err := supervisor.Signal(context.Background(), "bombuscv", SignalStop)

	require.Error(t, err)
	assert.False(t, delivered)
	assert.True(t, errors.IsSignalError(err))
	assert.True(t, stdErrors.Is(err, unix.ESRCH))
	assert.Contains(t, err.Error(), "bombuscv")
}

func TestSignal_RegistryErrorPropagates(t *testing.T) {
	listErr := errors.NewProcessListError("unable to retrieve process list", nil)
	registry := &MockLookuper{}
	registry.On("Lookup", mock.Anything, "datalogger").Return(int32(0), false, listErr)
	signaller := &recordingSignaller{}

	supervisor := NewSupervisorWithOptions(registry, SupervisorOptions{Signal: signaller.Signal}, logging.NewNopLogger())

	_, err := supervisor.Signal(context.Background(), "datalogger", SignalToggle)

	assert.True(t, errors.IsProcessListError(err))
	assert.Empty(t, signaller.calls)
}

func TestStart_TracksAndReapsChild(t *testing.T) {
	handle := &fakeHandle{pid: 4242, exit: make(chan error, 1)}
	var started []string
	start := func(name string) (Handle, error) {
		started = append(started, name)
		return handle, nil
	}

	supervisor := NewSupervisorWithOptions(&MockLookuper{}, SupervisorOptions{Start: start}, logging.NewNopLogger())

	require.NoError(t, supervisor.Start(context.Background(), "rtsp-simple-server"))
	assert.Equal(t, []string{"rtsp-simple-server"}, started)

	children := supervisor.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "rtsp-simple-server", children[0].Name)
	assert.Equal(t, 4242, children[0].PID)

	handle.exit <- nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, supervisor.WaitChildren(ctx))
	assert.Empty(t, supervisor.Children())
}

func TestStart_FailureIsReturnedUntracked(t *testing.T) {
	start := func(name string) (Handle, error) {
		return nil, errors.NewForkError(name, unix.EAGAIN)
	}

	supervisor := NewSupervisorWithOptions(&MockLookuper{}, SupervisorOptions{Start: start}, logging.NewNopLogger())

	err := supervisor.Start(context.Background(), "bombuscv")

	assert.True(t, errors.IsForkError(err))
	assert.Empty(t, supervisor.Children())
}

func TestStart_CancelledContextStartsNothing(t *testing.T) {
	started := false
	start := func(name string) (Handle, error) {
		started = true
		return nil, stdErrors.New("unexpected start")
	}

	supervisor := NewSupervisorWithOptions(&MockLookuper{}, SupervisorOptions{Start: start}, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := supervisor.Start(ctx, "bombuscv")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, started)
	assert.Empty(t, supervisor.Children())
}

func TestStdStartFunc_MissingBinary(t *testing.T) {
	start := NewStdStartFunc(logging.NewNopLogger())

	_, err := start("hsu-buttons-no-such-binary")

	require.Error(t, err)
	assert.True(t, errors.IsSpawnError(err))
	assert.Contains(t, err.Error(), "hsu-buttons-no-such-binary")
}

func TestStdStartFunc_RejectsPath(t *testing.T) {
	start := NewStdStartFunc(logging.NewNopLogger())

	_, err := start("/bin/true")

	assert.True(t, errors.IsSpawnError(err))
}

func TestSupervisor_StartsRealProcess(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true is not on PATH")
	}

	supervisor := NewSupervisor(&MockLookuper{}, logging.NewNopLogger())

	require.NoError(t, supervisor.Start(context.Background(), "true"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, supervisor.WaitChildren(ctx))
	assert.Empty(t, supervisor.Children())
}

func TestSignalKind(t *testing.T) {
	sig, err := SignalStop.Unix()
	require.NoError(t, err)
	assert.Equal(t, unix.SIGINT, sig)

	sig, err = SignalToggle.Unix()
	require.NoError(t, err)
	assert.Equal(t, unix.SIGUSR1, sig)

	_, err = SignalKind(7).Unix()
	assert.Error(t, err)
	assert.Equal(t, "stop", SignalStop.String())
	assert.Equal(t, "toggle", SignalToggle.String())
	assert.Equal(t, "signal(7)", SignalKind(7).String())
}
