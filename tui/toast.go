package tui

import (
	"sync"
	"time"
)

const toastTTL = 3 * time.Second

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

// toaster collects notifications raised from command goroutines until the
// model drains them on the event loop.
type toaster struct {
	mu      sync.Mutex
	nextID  int
	pending []toast
}

func (t *toaster) push(kind toastKind, text string) {
	t.mu.Lock()
	t.nextID++
	t.pending = append(t.pending, toast{id: t.nextID, kind: kind, text: text})
	t.mu.Unlock()
}

func (t *toaster) Success(msg string) { t.push(toastSuccess, msg) }
func (t *toaster) Error(msg string)   { t.push(toastError, msg) }
func (t *toaster) Info(msg string)    { t.push(toastInfo, msg) }

func (t *toaster) drain() []toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending
	t.pending = nil
	return out
}
