package tui

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"

	"prism-todos/domain"
	"prism-todos/store"
	"prism-todos/view"
)

type stubRemote struct {
	mu      sync.Mutex
	tasks   []domain.Task
	listErr error
	updates []domain.Task
	deletes []int

	// updateGate, when set, holds every UpdateTask until it is closed.
	updateGate chan struct{}
	updateErr  error
}

func (s *stubRemote) ListTasks(context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.Task(nil), s.tasks...), nil
}

func (s *stubRemote) UpdateTask(_ context.Context, task domain.Task) error {
	if s.updateGate != nil {
		<-s.updateGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, task)
	return s.updateErr
}

func (s *stubRemote) Deletes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.deletes...)
}

func (s *stubRemote) DeleteTask(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return nil
}

func sampleTasks(n int) []domain.Task {
	tasks := make([]domain.Task, n)
	for i := range tasks {
		tasks[i] = domain.Task{ID: i + 1, Title: fmt.Sprintf("task %d", i+1)}
	}
	return tasks
}

func newMountedModel(t *testing.T, remote *stubRemote) *Model {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st := store.New(remote, store.Options{Logger: logger})
	m := New(st, Options{Logger: logger})
	m.Update(mountedMsg{err: m.view.Mount(context.Background())})
	t.Cleanup(st.Close)
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends keys and returns the command produced by the last one.
func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyPress(k))
	}
	return cmd
}

// finish runs a store command and feeds its result back into the model.
func finish(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	m.Update(cmd())
}

// drainChanges drops change signals left over from mounting.
func drainChanges(m *Model) {
	for {
		select {
		case <-m.changes:
		default:
			return
		}
	}
}

func toastTexts(m *Model) []string {
	out := make([]string, len(m.visible))
	for i, t := range m.visible {
		out[i] = t.text
	}
	return out
}

func ids(tasks []domain.Task) []int {
	out := make([]int, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestViewShowsStatsAndPagination(t *testing.T) {
	m := newMountedModel(t, &stubRemote{tasks: sampleTasks(7)})
	out := m.View()
	for _, want := range []string{"Total 7", "Incomplete 7", "Page 1 of 2", "task 5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
	if strings.Contains(out, "task 6") {
		t.Fatalf("task 6 belongs to page 2")
	}

	press(m, "l")
	if m.view.Page() != 2 || !strings.Contains(m.View(), "task 6") {
		t.Fatalf("expected page 2 after next")
	}
}

func TestToggleRaisesToast(t *testing.T) {
	remote := &stubRemote{tasks: sampleTasks(2)}
	m := newMountedModel(t, remote)

	finish(t, m, press(m, "down", "x"))
	if len(remote.updates) != 1 || remote.updates[0] != (domain.Task{ID: 2, Title: "task 2", Completed: true}) {
		t.Fatalf("unexpected updates %#v", remote.updates)
	}
	if got := toastTexts(m); !reflect.DeepEqual(got, []string{view.MsgMarkedComplete}) {
		t.Fatalf("unexpected toasts %v", got)
	}
}

func TestDeleteDeclinedLeavesStoreAlone(t *testing.T) {
	remote := &stubRemote{tasks: sampleTasks(2)}
	m := newMountedModel(t, remote)

	press(m, "d")
	if m.mode != modeConfirm || !strings.Contains(m.View(), view.DeletePrompt) {
		t.Fatalf("expected confirmation prompt")
	}
	if cmd := press(m, "n"); cmd != nil {
		t.Fatalf("declining should not issue a command")
	}
	if m.mode != modeList || len(remote.deletes) != 0 {
		t.Fatalf("expected no deletion, got %v", remote.deletes)
	}
	if len(m.view.DisplayOrder()) != 2 {
		t.Fatalf("collection should be unchanged")
	}
}

func TestDeleteConfirmed(t *testing.T) {
	remote := &stubRemote{tasks: sampleTasks(2)}
	m := newMountedModel(t, remote)

	press(m, "d")
	finish(t, m, press(m, "y"))
	if !reflect.DeepEqual(remote.deletes, []int{1}) {
		t.Fatalf("unexpected deletes %v", remote.deletes)
	}
	if got := ids(m.view.DisplayOrder()); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("unexpected remaining tasks %v", got)
	}
	if got := toastTexts(m); !reflect.DeepEqual(got, []string{view.MsgDeleted}) {
		t.Fatalf("unexpected toasts %v", got)
	}
}

func TestKeyboardMoveReorders(t *testing.T) {
	m := newMountedModel(t, &stubRemote{tasks: sampleTasks(4)})

	press(m, "m", "down", "down")
	if m.grabbed != 0 {
		t.Fatalf("expected first item grabbed")
	}
	press(m, "m")
	if got := ids(m.view.DisplayOrder()); !reflect.DeepEqual(got, []int{2, 3, 1, 4}) {
		t.Fatalf("unexpected order %v", got)
	}
	if got := toastTexts(m); !reflect.DeepEqual(got, []string{view.MsgOrderUpdated}) {
		t.Fatalf("unexpected toasts %v", got)
	}

	press(m, "m", "up", "esc")
	if m.grabbed != -1 {
		t.Fatalf("esc should cancel the move")
	}
	if got := ids(m.view.DisplayOrder()); !reflect.DeepEqual(got, []int{2, 3, 1, 4}) {
		t.Fatalf("cancelled move changed order %v", got)
	}
}

func TestEditSave(t *testing.T) {
	remote := &stubRemote{tasks: sampleTasks(1)}
	m := newMountedModel(t, remote)

	press(m, "e")
	if m.mode != modeEdit {
		t.Fatalf("expected edit mode")
	}
	press(m, "!", "tab")
	finish(t, m, press(m, "enter"))

	want := domain.Task{ID: 1, Title: "task 1!", Completed: true}
	if len(remote.updates) != 1 || remote.updates[0] != want {
		t.Fatalf("unexpected updates %#v", remote.updates)
	}
	if m.mode != modeList || m.edit != nil {
		t.Fatalf("edit dialog should be closed")
	}
	if got := toastTexts(m); !reflect.DeepEqual(got, []string{view.MsgUpdated}) {
		t.Fatalf("unexpected toasts %v", got)
	}
}

func TestEditCancel(t *testing.T) {
	remote := &stubRemote{tasks: sampleTasks(1)}
	m := newMountedModel(t, remote)

	press(m, "e", "z")
	if cmd := press(m, "esc"); cmd != nil {
		t.Fatalf("cancel should not issue a command")
	}
	if m.mode != modeList || len(remote.updates) != 0 {
		t.Fatalf("cancel should close without saving")
	}
}

func TestFilterAndSearch(t *testing.T) {
	tasks := sampleTasks(3)
	tasks[1].Completed = true
	m := newMountedModel(t, &stubRemote{tasks: tasks})

	press(m, "f")
	if m.view.Filter() != domain.FilterCompleted {
		t.Fatalf("expected completed filter, got %s", m.view.Filter())
	}
	if got := ids(m.view.PageItems()); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("unexpected filtered items %v", got)
	}
	press(m, "f", "f")
	if m.view.Filter() != domain.FilterAll {
		t.Fatalf("expected filter to cycle back to all")
	}

	press(m, "/", "3")
	if got := ids(m.view.PageItems()); !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("unexpected search result %v", got)
	}
	press(m, "esc")
	if m.view.Search() != "" || len(m.view.PageItems()) != 3 {
		t.Fatalf("esc should clear the search")
	}
}

func TestLoadFailureAndRetry(t *testing.T) {
	remote := &stubRemote{listErr: errors.New("offline")}
	m := newMountedModel(t, remote)
	if !strings.Contains(m.View(), view.LoadFailed) {
		t.Fatalf("expected load failure message:\n%s", m.View())
	}

	remote.mu.Lock()
	remote.listErr = nil
	remote.tasks = sampleTasks(1)
	remote.mu.Unlock()

	cmd := press(m, "r")
	if cmd == nil {
		t.Fatalf("expected reload command")
	}
	m.Update(mountedMsg{err: m.view.Reload(context.Background())})
	if out := m.View(); strings.Contains(out, view.LoadFailed) || !strings.Contains(out, "task 1") {
		t.Fatalf("expected recovered list:\n%s", out)
	}
}

func TestThemeToggleAndQuit(t *testing.T) {
	m := newMountedModel(t, &stubRemote{tasks: sampleTasks(1)})
	press(m, "t")
	if !m.theme.Dark() || !strings.Contains(m.View(), "[dark]") {
		t.Fatalf("expected dark theme")
	}

	drainChanges(m)
	cmd := press(m, "q")
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
	if msg := m.waitForChange(); msg != nil {
		t.Fatalf("change listener should stop after quit, got %#v", msg)
	}
}

func TestToggleRendersBeforeRequestCompletes(t *testing.T) {
	remote := &stubRemote{
		tasks:      sampleTasks(2),
		updateGate: make(chan struct{}),
		updateErr:  errors.New("503"),
	}
	m := newMountedModel(t, remote)
	drainChanges(m)
	if !strings.Contains(m.View(), "Completed 0") {
		t.Fatalf("expected nothing completed before toggle:\n%s", m.View())
	}

	cmd := press(m, "x")
	if cmd == nil {
		t.Fatalf("expected toggle command")
	}
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	msg := m.waitForChange()
	if _, ok := msg.(storeChangedMsg); !ok {
		t.Fatalf("expected store change message, got %#v", msg)
	}
	_, next := m.Update(msg)
	if next == nil {
		t.Fatalf("expected to keep listening for changes")
	}
	if out := m.View(); !strings.Contains(out, "Completed 1") || !strings.Contains(out, "[x]") {
		t.Fatalf("optimistic change not rendered while request pending:\n%s", out)
	}

	close(remote.updateGate)
	m.Update(<-result)
	if out := m.View(); !strings.Contains(out, "Completed 0") {
		t.Fatalf("expected rollback after failed request:\n%s", out)
	}
	if got := toastTexts(m); !reflect.DeepEqual(got, []string{view.MsgStatusFailed}) {
		t.Fatalf("unexpected toasts %v", got)
	}
}

func TestDeclinedDeleteDoesNotTakeEarlierApproval(t *testing.T) {
	remote := &stubRemote{tasks: sampleTasks(3)}
	m := newMountedModel(t, remote)

	press(m, "d")
	approved := press(m, "y")
	if approved == nil {
		t.Fatalf("expected delete command")
	}

	press(m, "down", "d")
	if cmd := press(m, "n"); cmd != nil {
		t.Fatalf("declining should not issue a command")
	}
	if got := remote.Deletes(); len(got) != 0 {
		t.Fatalf("nothing should be deleted before the approved command runs, got %v", got)
	}

	finish(t, m, approved)
	if got := remote.Deletes(); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected only the approved task deleted, got %v", got)
	}
	if got := ids(m.view.DisplayOrder()); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("unexpected remaining tasks %v", got)
	}
}

func TestRetryKeepsSpinnerTicking(t *testing.T) {
	remote := &stubRemote{listErr: errors.New("offline")}
	m := newMountedModel(t, remote)

	if _, cmd := m.Update(m.spinner.Tick()); cmd != nil {
		t.Fatalf("spinner should be idle after a settled load")
	}
	remote.mu.Lock()
	remote.listErr = nil
	remote.mu.Unlock()

	if cmd := press(m, "r"); cmd == nil {
		t.Fatalf("expected reload command")
	}
	// The reload has not started yet, so the store is not loading.
	if _, cmd := m.Update(m.spinner.Tick()); cmd == nil {
		t.Fatalf("spinner should keep ticking while a reload is pending")
	}

	m.Update(mountedMsg{err: m.view.Reload(context.Background())})
	if _, cmd := m.Update(m.spinner.Tick()); cmd != nil {
		t.Fatalf("spinner should stop once the reload reports back")
	}
}
