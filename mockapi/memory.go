package mockapi

import (
	"context"
	"sync"

	"prism-todos/domain"
)

// MemoryBackend keeps tasks in insertion order in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	tasks []domain.Task
}

func NewMemoryBackend(tasks []domain.Task) *MemoryBackend {
	return &MemoryBackend{tasks: append([]domain.Task(nil), tasks...)}
}

func (m *MemoryBackend) ListTasks(context.Context) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Task{}, m.tasks...), nil
}

func (m *MemoryBackend) GetTask(_ context.Context, id int) (domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexLocked(id); i >= 0 {
		return m.tasks[i], nil
	}
	return domain.Task{}, ErrNotFound
}

func (m *MemoryBackend) PutTask(_ context.Context, task domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(task.ID)
	if i < 0 {
		return ErrNotFound
	}
	m.tasks[i] = task
	return nil
}

func (m *MemoryBackend) DeleteTask(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func (m *MemoryBackend) Seed(_ context.Context, tasks []domain.Task) error {
	m.mu.Lock()
	m.tasks = append([]domain.Task(nil), tasks...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) indexLocked(id int) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
