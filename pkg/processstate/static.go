package processstate

import (
	"context"
	"sync"
)

// StaticTable is a Snapshotter backed by an in-memory table.
// Tests use it in place of /proc.
type StaticTable struct {
	mutex   sync.Mutex
	entries []Entry
	err     error
}

func NewStaticTable(entries ...Entry) *StaticTable {
	return &StaticTable{entries: entries}
}

func (t *StaticTable) Snapshot(ctx context.Context) ([]Entry, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.err != nil {
		return nil, t.err
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out, nil
}

// Add appends a process to the end of the table.
func (t *StaticTable) Add(pid int32, executable string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.entries = append(t.entries, Entry{PID: pid, Executable: executable})
}

// Remove drops every entry with the given PID.
func (t *StaticTable) Remove(pid int32) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.PID != pid {
			kept = append(kept, e)
		}
	}
	t.entries = kept
}

// SetError makes every following Snapshot fail with err, or succeed again when err is nil.
func (t *StaticTable) SetError(err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.err = err
}
