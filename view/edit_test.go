package view

import (
	"testing"

	"prism-todos/domain"
)

func TestEditViewSaveCallsOnSaveThenOnClose(t *testing.T) {
	var calls []string
	var saved []domain.Task
	e := NewEditView(domain.Task{ID: 5, Title: "Old", Completed: false},
		func() { calls = append(calls, "close") },
		func(task domain.Task) {
			calls = append(calls, "save")
			saved = append(saved, task)
		},
	)

	e.SetTitle("New")
	e.Save()

	if len(saved) != 1 || saved[0] != (domain.Task{ID: 5, Title: "New", Completed: false}) {
		t.Fatalf("unexpected saved tasks: %#v", saved)
	}
	if len(calls) != 2 || calls[0] != "save" || calls[1] != "close" {
		t.Fatalf("unexpected call order: %v", calls)
	}

	e.Save()
	if len(saved) != 1 {
		t.Fatalf("save after close should be ignored")
	}
}

func TestEditViewSaveWithoutCallback(t *testing.T) {
	closed := false
	e := NewEditView(domain.Task{ID: 1, Title: "a"}, func() { closed = true }, nil)
	e.ToggleCompleted()
	e.Save()
	if !closed || !e.Closed() {
		t.Fatalf("expected view to close")
	}
}

func TestEditViewCancelDoesNotSave(t *testing.T) {
	saved := false
	closed := false
	e := NewEditView(domain.Task{ID: 1, Title: "a"}, func() { closed = true }, func(domain.Task) { saved = true })
	e.SetTitle("b")
	e.SetCompleted(true)
	e.Cancel()

	if saved {
		t.Fatalf("cancel must not save")
	}
	if !closed {
		t.Fatalf("cancel must close")
	}
	if e.Title() != "a" || e.Completed() {
		t.Fatalf("cancel should discard local edits")
	}
}

func TestEditViewBindResetsFields(t *testing.T) {
	e := NewEditView(domain.Task{ID: 1, Title: "a"}, nil, nil)
	e.SetTitle("draft")

	e.Bind(domain.Task{ID: 1, Title: "a"})
	if e.Title() != "draft" {
		t.Fatalf("rebinding the same task should keep edits, got %q", e.Title())
	}

	e.Bind(domain.Task{ID: 2, Title: "other", Completed: true})
	if e.Title() != "other" || !e.Completed() {
		t.Fatalf("expected fields reset from new task, got %q %v", e.Title(), e.Completed())
	}
	if got := e.Draft(); got.ID != 2 {
		t.Fatalf("draft should carry new id, got %#v", got)
	}
}
