package a2a

import (
	"fmt"
	"sync"
)

// TaskStore is the in-memory task map shared by the dispatcher's handlers.
// Entries live for the lifetime of the process; there is no eviction.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*Task)}
}

func (s *TaskStore) Create(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

// Get returns a snapshot of the task so callers never observe a
// half-applied update.
func (s *TaskStore) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %q not found", id)
	}
	snapshot := *t
	return &snapshot, nil
}

func (s *TaskStore) SetState(id string, state TaskState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	t.State = state
	return nil
}

// Complete marks the task completed and attaches its result in one step,
// so a concurrent Get sees either neither or both.
func (s *TaskStore) Complete(id string, result Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	t.State = TaskStateCompleted
	t.Result = &result
	return nil
}

func (s *TaskStore) List() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		snapshot := *t
		result = append(result, &snapshot)
	}
	return result
}
