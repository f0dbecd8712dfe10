package gpio

import (
	"context"
	"sync"
	"sync/atomic"
)

const scriptCapacity = 64

// ScriptedSource is a deterministic EdgeSource. Each step is either an
// edge (nil) or a wait failure (non-nil error).
type ScriptedSource struct {
	steps            chan error
	closed           chan struct{}
	closeOnce        sync.Once
	closeWhenDrained bool
	waits            atomic.Int64
}

// NewScriptedSource returns a source that replays steps in order and then
// reports ErrClosed, as if the line had been released.
func NewScriptedSource(steps ...error) *ScriptedSource {
	s := &ScriptedSource{
		steps:            make(chan error, len(steps)+scriptCapacity),
		closed:           make(chan struct{}),
		closeWhenDrained: true,
	}
	for _, step := range steps {
		s.steps <- step
	}
	return s
}

// NewManualSource returns a source that blocks until Press, Fail or Close.
func NewManualSource() *ScriptedSource {
	return &ScriptedSource{
		steps:  make(chan error, scriptCapacity),
		closed: make(chan struct{}),
	}
}

// Edges returns a script of n edges.
func Edges(n int) []error {
	return make([]error, n)
}

func (s *ScriptedSource) Press() {
	s.steps <- nil
}

func (s *ScriptedSource) Fail(err error) {
	s.steps <- err
}

// Waits reports how many times Wait has been entered.
func (s *ScriptedSource) Waits() int {
	return int(s.waits.Load())
}

func (s *ScriptedSource) Wait(ctx context.Context) error {
	s.waits.Add(1)

	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case step := <-s.steps:
		return step
	default:
	}
	if s.closeWhenDrained {
		return ErrClosed
	}

	select {
	case step := <-s.steps:
		return step
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ScriptedSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	return nil
}

// ScriptedOpener hands out pre-built sources by line number.
type ScriptedOpener struct {
	mutex   sync.Mutex
	sources map[int]EdgeSource
	failOn  map[int]error
	opened  []int
	closed  bool
}

func NewScriptedOpener() *ScriptedOpener {
	return &ScriptedOpener{
		sources: make(map[int]EdgeSource),
		failOn:  make(map[int]error),
	}
}

// WithSource registers the source returned for line.
func (o *ScriptedOpener) WithSource(line int, source EdgeSource) *ScriptedOpener {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.sources[line] = source
	return o
}

// WithFailure makes opening line fail with err.
func (o *ScriptedOpener) WithFailure(line int, err error) *ScriptedOpener {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.failOn[line] = err
	return o
}

func (o *ScriptedOpener) Open(config LineConfig) (EdgeSource, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if err, ok := o.failOn[config.Line]; ok {
		return nil, err
	}
	source, ok := o.sources[config.Line]
	if !ok {
		source = NewManualSource()
		o.sources[config.Line] = source
	}
	o.opened = append(o.opened, config.Line)
	return source, nil
}

// Opened returns the lines opened so far, in order.
func (o *ScriptedOpener) Opened() []int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return append([]int(nil), o.opened...)
}

func (o *ScriptedOpener) Closed() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.closed
}

func (o *ScriptedOpener) Close() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.closed = true
	return nil
}
