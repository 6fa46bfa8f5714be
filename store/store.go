package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"prism-todos/domain"
)

// DefaultFetchLimit bounds the working set kept in memory after a fetch.
const DefaultFetchLimit = 50

// FetchErrorMessage is the user facing message recorded when a fetch fails.
const FetchErrorMessage = "Failed to fetch todos."

var (
	ErrFetchFailed  = errors.New("fetch failed")
	ErrUpdateFailed = errors.New("update failed")
	ErrDeleteFailed = errors.New("delete failed")
	// ErrClosed is returned once the store has been torn down.
	ErrClosed = errors.New("store closed")
)

// Remote is the task service the store synchronises with.
type Remote interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id int) error
}

// Options tunes a Store. The zero value is usable.
type Options struct {
	FetchLimit int
	// SerializeMutations queues update/delete calls per task id so a failing
	// call can never roll back a newer optimistic change to the same task.
	SerializeMutations bool
	Logger             *log.Logger
}

// State is a point-in-time copy of the store.
type State struct {
	Tasks   []domain.Task
	Loading bool
	Err     string
}

// Store owns the in-memory task collection and applies optimistic mutations
// that are rolled back when the remote call fails.
type Store struct {
	remote    Remote
	limit     int
	serialize bool
	locks     *keyedMutex
	logger    *log.Logger

	mu        sync.Mutex
	tasks     []domain.Task
	fetching  int
	errMsg    string
	closed    bool
	listeners map[int]func()
	nextID    int
}

// New creates an empty Store backed by remote.
func New(remote Remote, opts Options) *Store {
	if remote == nil {
		panic("store.New: remote is nil")
	}
	limit := opts.FetchLimit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		remote:    remote,
		limit:     limit,
		serialize: opts.SerializeMutations,
		locks:     newKeyedMutex(),
		logger:    logger,
		tasks:     []domain.Task{},
		listeners: make(map[int]func()),
	}
}

// Tasks returns a copy of the current collection.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetching > 0
}

// Err returns the message of the last failed fetch, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Snapshot returns tasks and flags read under a single lock.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Tasks: cloneTasks(s.tasks), Loading: s.fetching > 0, Err: s.errMsg}
}

// Subscribe registers fn to run after every state change. The returned
// function removes the listener.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close tears the store down. Completions that arrive afterwards are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.listeners = make(map[int]func())
	s.mu.Unlock()
}

// FetchAll loads the task list, keeping at most the configured limit. On
// failure the collection is left as it was and Err reports the failure.
func (s *Store) FetchAll(ctx context.Context) error {
	start := time.Now()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.fetching++
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()

	tasks, err := s.remote.ListTasks(ctx)

	s.mu.Lock()
	s.fetching--
	if s.closed {
		s.mu.Unlock()
		s.logger.WithField("op", "fetch").Debug("todos.store.discarded_after_close")
		return ErrClosed
	}
	if err != nil {
		s.errMsg = FetchErrorMessage
		s.mu.Unlock()
		s.notify()
		s.logger.WithFields(log.Fields{
			"op":          "fetch",
			"duration_ms": durationToMillis(time.Since(start)),
			"error":       err.Error(),
		}).Error("todos.store.fetch_failed")
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if len(tasks) > s.limit {
		tasks = tasks[:s.limit]
	}
	s.tasks = cloneTasks(tasks)
	s.mu.Unlock()
	s.notify()

	s.logger.WithFields(log.Fields{
		"op":          "fetch",
		"count":       len(tasks),
		"duration_ms": durationToMillis(time.Since(start)),
	}).Debug("todos.store.fetched")
	return nil
}

// Update replaces the task with the same id immediately and persists it.
// When the remote call fails the collection is restored to the snapshot
// taken when Update was called and the returned error matches ErrUpdateFailed.
func (s *Store) Update(ctx context.Context, task domain.Task) error {
	return s.mutate(ctx, "update", task.ID, ErrUpdateFailed,
		func(tasks []domain.Task) []domain.Task {
			out := make([]domain.Task, len(tasks))
			for i, t := range tasks {
				if t.ID == task.ID {
					t = task
				}
				out[i] = t
			}
			return out
		},
		func(ctx context.Context) error { return s.remote.UpdateTask(ctx, task) },
	)
}

// Delete removes the task immediately and deletes it remotely, restoring the
// call-time snapshot on failure. The returned error matches ErrDeleteFailed.
func (s *Store) Delete(ctx context.Context, id int) error {
	return s.mutate(ctx, "delete", id, ErrDeleteFailed,
		func(tasks []domain.Task) []domain.Task {
			out := make([]domain.Task, 0, len(tasks))
			for _, t := range tasks {
				if t.ID != id {
					out = append(out, t)
				}
			}
			return out
		},
		func(ctx context.Context) error { return s.remote.DeleteTask(ctx, id) },
	)
}

func (s *Store) mutate(
	ctx context.Context,
	op string,
	id int,
	kind error,
	apply func([]domain.Task) []domain.Task,
	persist func(context.Context) error,
) error {
	if s.serialize {
		unlock := s.locks.Lock(id)
		defer unlock()
	}
	start := time.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	prev := cloneTasks(s.tasks)
	s.tasks = apply(s.tasks)
	s.mu.Unlock()
	s.notify()

	err := persist(ctx)
	if err == nil {
		s.logger.WithFields(log.Fields{
			"op":          op,
			"id":          id,
			"duration_ms": durationToMillis(time.Since(start)),
		}).Debug("todos.store.mutation")
		return nil
	}

	rolledBack := s.restore(prev)
	s.logger.WithFields(log.Fields{
		"op":          op,
		"id":          id,
		"duration_ms": durationToMillis(time.Since(start)),
		"rolled_back": rolledBack,
		"error":       err.Error(),
	}).Warn("todos.store.mutation_failed")
	return fmt.Errorf("%w: task %d: %w", kind, id, err)
}

func (s *Store) restore(prev []domain.Task) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.tasks = prev
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	return out
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
