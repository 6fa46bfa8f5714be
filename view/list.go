package view

import (
	"context"
	"sync"

	"prism-todos/domain"
)

// DefaultPageSize is the number of tasks shown per page.
const DefaultPageSize = 5

// Notification texts shown by the list view.
const (
	MsgMarkedComplete   = "Marked as complete!"
	MsgMarkedIncomplete = "Marked as incomplete"
	MsgStatusFailed     = "Failed to update status."
	MsgDeleted          = "Todo deleted successfully!"
	MsgDeleteFailed     = "Error deleting todo."
	MsgUpdated          = "Todo updated successfully!"
	MsgUpdateFailed     = "Update failed."
	MsgOrderUpdated     = "Todo order updated"

	DeletePrompt = "Delete this todo?"

	EmptyNoMatch = "No todos match your search or filter criteria."
	EmptyNoTodos = "No todos available. Add some tasks to get started!"
	LoadFailed   = "Error loading todos. Please try again later."
)

// TaskStore is the subset of the task store the list view depends on.
type TaskStore interface {
	Tasks() []domain.Task
	Loading() bool
	Err() string
	FetchAll(ctx context.Context) error
	Update(ctx context.Context, task domain.Task) error
	Delete(ctx context.Context, id int) error
	Subscribe(fn func()) func()
	Close()
}

// ListView projects the store's collection through search, filter, manual
// ordering and pagination, and routes user actions back to the store.
type ListView struct {
	store     TaskStore
	notifier  Notifier
	confirmer Confirmer
	pageSize  int

	mu       sync.Mutex
	search   string
	mode     domain.FilterMode
	page     int
	tasks    []domain.Task
	filtered []domain.Task
	order    []int
	unsub    func()
}

// NewListView creates a view over store. A pageSize <= 0 selects DefaultPageSize.
func NewListView(store TaskStore, notifier Notifier, confirmer Confirmer, pageSize int) *ListView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if confirmer == nil {
		confirmer = AlwaysConfirm
	}
	return &ListView{
		store:     store,
		notifier:  notifier,
		confirmer: confirmer,
		pageSize:  pageSize,
		mode:      domain.FilterAll,
		page:      1,
	}
}

// Mount subscribes to the store and performs the initial fetch.
func (v *ListView) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.unsub == nil {
		v.unsub = v.store.Subscribe(v.Refresh)
	}
	v.mu.Unlock()
	v.Refresh()
	return v.store.FetchAll(ctx)
}

// Reload fetches the collection again, typically after a failed load.
func (v *ListView) Reload(ctx context.Context) error {
	return v.store.FetchAll(ctx)
}

// Unmount detaches from the store and tears it down.
func (v *ListView) Unmount() {
	v.mu.Lock()
	unsub := v.unsub
	v.unsub = nil
	v.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	v.store.Close()
}

// Refresh re-reads the collection from the store and re-derives the view.
func (v *ListView) Refresh() {
	tasks := v.store.Tasks()
	v.mu.Lock()
	v.tasks = tasks
	v.deriveLocked()
	v.mu.Unlock()
}

func (v *ListView) Loading() bool { return v.store.Loading() }
func (v *ListView) Err() string   { return v.store.Err() }

func (v *ListView) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// SetSearch changes the search text. The page index is left untouched.
func (v *ListView) SetSearch(s string) {
	v.mu.Lock()
	v.search = s
	v.deriveLocked()
	v.mu.Unlock()
}

func (v *ListView) Filter() domain.FilterMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// SetFilter changes the filter mode. The page index is left untouched.
func (v *ListView) SetFilter(mode domain.FilterMode) {
	v.mu.Lock()
	v.mode = mode
	v.deriveLocked()
	v.mu.Unlock()
}

// Filtered returns the filtered set in collection order.
func (v *ListView) Filtered() []domain.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Task(nil), v.filtered...)
}

// DisplayOrder returns the filtered set in display order.
func (v *ListView) DisplayOrder() []domain.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayLocked()
}

// Counts summarises the whole collection, ignoring search and filter.
func (v *ListView) Counts() domain.Counts {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.CountTasks(v.tasks)
}

// EmptyMessage explains an empty page.
func (v *ListView) EmptyMessage() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.search != "" || v.mode != domain.FilterAll {
		return EmptyNoMatch
	}
	return EmptyNoTodos
}

// ResetOrder discards any manual reorder.
func (v *ListView) ResetOrder() {
	v.mu.Lock()
	v.order = taskIDs(v.filtered)
	v.mu.Unlock()
}

func (v *ListView) deriveLocked() {
	filtered := domain.Filter(v.tasks, v.search, v.mode)
	if !sameMembership(v.order, filtered) {
		v.order = taskIDs(filtered)
	}
	v.filtered = filtered
}

func (v *ListView) displayLocked() []domain.Task {
	byID := make(map[int]domain.Task, len(v.filtered))
	for _, t := range v.filtered {
		byID[t.ID] = t
	}
	out := make([]domain.Task, 0, len(v.order))
	for _, id := range v.order {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func taskIDs(tasks []domain.Task) []int {
	ids := make([]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func sameMembership(order []int, tasks []domain.Task) bool {
	if order == nil || len(order) != len(tasks) {
		return false
	}
	seen := make(map[int]struct{}, len(order))
	for _, id := range order {
		seen[id] = struct{}{}
	}
	for _, t := range tasks {
		if _, ok := seen[t.ID]; !ok {
			return false
		}
	}
	return true
}
