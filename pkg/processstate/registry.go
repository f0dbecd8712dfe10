package processstate

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/logging"

	"github.com/shirou/gopsutil/v3/process"
)

// Entry is one row of a process table snapshot.
type Entry struct {
	PID        int32
	Executable string
}

// Snapshotter produces a point-in-time view of the live process table,
// in table order.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]Entry, error)
}

// Registry answers "is a process with this executable running" by
// re-scanning the process table on every call. Nothing is cached.
type Registry struct {
	source Snapshotter
	logger logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	return NewRegistryWithSource(&osSnapshotter{}, logger)
}

func NewRegistryWithSource(source Snapshotter, logger logging.Logger) *Registry {
	return &Registry{
		source: source,
		logger: logger,
	}
}

// Lookup returns the PID of the first process whose executable base name
// equals name. Several processes with the same name are not told apart.
func (r *Registry) Lookup(ctx context.Context, name string) (int32, bool, error) {
	entries, err := r.source.Snapshot(ctx)
	if err != nil {
		return 0, false, errors.NewProcessListError("unable to retrieve process list", err).
			WithContext("binary", name)
	}

	for _, entry := range entries {
		if entry.Executable == "" {
			continue
		}
		if baseName(entry.Executable) == name {
			r.logger.Debugf("Found process, name: %s, PID: %d", name, entry.PID)
			return entry.PID, true, nil
		}
	}

	return 0, false, nil
}

// baseName strips the directory and the " (deleted)" marker the kernel
// appends to /proc/<pid>/exe when the binary was replaced on disk.
func baseName(executable string) string {
	return filepath.Base(strings.TrimSuffix(executable, " (deleted)"))
}

type osSnapshotter struct{}

func (s *osSnapshotter) Snapshot(ctx context.Context) ([]Entry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		// Kernel threads, zombies and other users' processes have no readable exe
		exe, err := p.ExeWithContext(ctx)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{PID: p.Pid, Executable: exe})
	}
	return entries, nil
}
