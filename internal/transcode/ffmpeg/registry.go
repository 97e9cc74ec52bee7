package ffmpeg

import (
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
)

// Entry describes one tracked engine process
type Entry struct {
	JobID     string
	PID       int
	Input     string
	StartTime time.Time

	process Process
}

// Registry tracks the engine processes a session has spawned. Once
// TerminateAll runs it refuses to launch anything until Reopen is called.
type Registry struct {
	entries map[string]*Entry
	closed  bool
	mu      sync.Mutex
	logger  hclog.Logger
}

// NewRegistry creates an empty, open registry
func NewRegistry(logger hclog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		logger:  logger,
	}
}

// Launch runs start while holding the registry lock and records the
// resulting process under jobID. Holding the lock means a concurrent
// TerminateAll either sees the new process or prevents it from starting.
func (r *Registry) Launch(jobID, input string, start func() (Process, error)) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, mediaerrors.Cancelled(input)
	}

	proc, err := start()
	if err != nil {
		return nil, err
	}

	r.entries[jobID] = &Entry{
		JobID:     jobID,
		PID:       proc.PID(),
		Input:     input,
		StartTime: time.Now(),
		process:   proc,
	}

	r.logger.Debug("registered engine process", "pid", proc.PID(), "job_id", jobID)
	return proc, nil
}

// Unregister drops jobID. It returns false when the entry was already gone,
// which happens when TerminateAll claimed it first.
func (r *Registry) Unregister(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[jobID]
	if !ok {
		return false
	}
	delete(r.entries, jobID)

	r.logger.Debug("unregistered engine process", "pid", entry.PID, "job_id", jobID)
	return true
}

// TerminateAll closes the registry, empties it and signals every process
// that was tracked. Each process is signalled exactly once.
func (r *Registry) TerminateAll() int {
	r.mu.Lock()
	r.closed = true
	snapshot := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		snapshot = append(snapshot, entry)
	}
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	for _, entry := range snapshot {
		if err := entry.process.Terminate(); err != nil {
			r.logger.Warn("failed to terminate engine process",
				"pid", entry.PID,
				"job_id", entry.JobID,
				"error", err)
			continue
		}
		r.logger.Info("terminated engine process", "pid", entry.PID, "job_id", entry.JobID)
	}

	return len(snapshot)
}

// Reopen allows launches again after TerminateAll
func (r *Registry) Reopen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = false
}

// Closed reports whether launches are refused
func (r *Registry) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Entries returns the tracked processes, oldest first
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		list = append(list, *entry)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].StartTime.Before(list[j].StartTime)
	})
	return list
}
