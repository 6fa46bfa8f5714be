package view

import (
	"sync"

	"prism-todos/domain"
)

// EditView holds the editable fields of one task. Save hands the edited task
// to onSave and then always closes; Cancel only closes.
type EditView struct {
	mu        sync.Mutex
	task      domain.Task
	title     string
	completed bool
	closed    bool
	onClose   func()
	onSave    func(domain.Task)
}

// NewEditView seeds the fields from task. onSave may be nil.
func NewEditView(task domain.Task, onClose func(), onSave func(domain.Task)) *EditView {
	return &EditView{
		task:      task,
		title:     task.Title,
		completed: task.Completed,
		onClose:   onClose,
		onSave:    onSave,
	}
}

// Task is the task the view is bound to, without local edits.
func (e *EditView) Task() domain.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task
}

// Bind rebinds the view. Unsaved edits are dropped whenever the bound task changes.
func (e *EditView) Bind(task domain.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if task == e.task {
		return
	}
	e.task = task
	e.title = task.Title
	e.completed = task.Completed
}

func (e *EditView) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

func (e *EditView) SetTitle(title string) {
	e.mu.Lock()
	e.title = title
	e.mu.Unlock()
}

func (e *EditView) Completed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed
}

func (e *EditView) SetCompleted(completed bool) {
	e.mu.Lock()
	e.completed = completed
	e.mu.Unlock()
}

func (e *EditView) ToggleCompleted() {
	e.mu.Lock()
	e.completed = !e.completed
	e.mu.Unlock()
}

// Draft returns the bound task with the edited title and completion flag.
func (e *EditView) Draft() domain.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draftLocked()
}

func (e *EditView) draftLocked() domain.Task {
	t := e.task
	t.Title = e.title
	t.Completed = e.completed
	return t
}

func (e *EditView) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Save calls onSave with the draft, then onClose. Calls after the view has
// closed are ignored.
func (e *EditView) Save() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	draft := e.draftLocked()
	onSave, onClose := e.onSave, e.onClose
	e.mu.Unlock()

	if onSave != nil {
		onSave(draft)
	}
	if onClose != nil {
		onClose()
	}
}

// Cancel discards local edits and closes without saving.
func (e *EditView) Cancel() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.title = e.task.Title
	e.completed = e.task.Completed
	onClose := e.onClose
	e.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}
