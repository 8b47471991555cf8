// Package taskstore implements the A2A task store (C8, spec.md §4.8):
// an in-memory map from task id to Task, with mutations serialized per
// task id. Status transitions are timestamped (TaskStatus.Timestamp);
// artifact and history appends record no timestamp. There is no
// eviction — tasks are retained for the process lifetime of the server.
package taskstore

import (
	"sync"
	"time"

	"github.com/swiftagentkit/agentkit-go/pkg/a2atypes"
)

// perTaskLock bundles a task's current value with a mutex so that
// concurrent callers mutating the same task id serialize, while
// different task ids proceed independently (spec.md §5: "the Task Store
// ... serializes mutations per task id").
type perTaskLock struct {
	mu   sync.Mutex
	task *a2atypes.Task
}

// Store is the process-wide task store.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*perTaskLock
}

func New() *Store {
	return &Store{tasks: make(map[string]*perTaskLock)}
}

// Add registers a newly created task. Calling Add twice with the same id
// overwrites the prior entry; callers are expected to generate fresh ids.
func (s *Store) Add(task *a2atypes.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = &perTaskLock{task: task}
}

// Get returns a copy of the task's current state, or a zero Task and
// false if id is unknown.
func (s *Store) Get(id string) (a2atypes.Task, bool) {
	entry, ok := s.lookup(id)
	if !ok {
		return a2atypes.Task{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return *entry.task, true
}

func (s *Store) lookup(id string) (*perTaskLock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tasks[id]
	return entry, ok
}

// UpdateStatus transitions the task's status. Once a task has reached a
// terminal state, further transitions are rejected and the task is left
// unchanged (spec.md §3 invariant, §8 testable property).
func (s *Store) UpdateStatus(id string, status a2atypes.TaskStatus) (a2atypes.Task, error) {
	entry, ok := s.lookup(id)
	if !ok {
		return a2atypes.Task{}, a2atypes.ErrTaskNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.task.Status.State.IsTerminal() {
		return *entry.task, a2atypes.ErrTerminalTask
	}
	status.Timestamp = now()
	entry.task.Status = status
	return *entry.task, nil
}

// AppendArtifact appends art to the task's artifact list (append-only,
// spec.md §3).
func (s *Store) AppendArtifact(id string, art a2atypes.Artifact) (a2atypes.Task, error) {
	entry, ok := s.lookup(id)
	if !ok {
		return a2atypes.Task{}, a2atypes.ErrTaskNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.task.Status.State.IsTerminal() {
		return *entry.task, a2atypes.ErrTerminalTask
	}
	entry.task.Artifacts = append(entry.task.Artifacts, art)
	return *entry.task, nil
}

// AppendHistory appends msg to the task's history (append-only).
func (s *Store) AppendHistory(id string, msg a2atypes.Message) (a2atypes.Task, error) {
	entry, ok := s.lookup(id)
	if !ok {
		return a2atypes.Task{}, a2atypes.ErrTaskNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.task.History = append(entry.task.History, msg)
	return *entry.task, nil
}

// now is a seam so mutation timestamps are deterministic to test.
var now = time.Now
