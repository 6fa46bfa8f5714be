package view

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Notifier raises transient, non-blocking user notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Theme exposes the light/dark presentation mode.
type Theme interface {
	Dark() bool
	Toggle() bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm answers yes to every prompt. Used by non-interactive commands.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

// LogNotifier forwards notifications to a logrus logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) logger() *log.Logger {
	if n.Logger == nil {
		return log.StandardLogger()
	}
	return n.Logger
}

func (n LogNotifier) Success(msg string) { n.logger().WithField("kind", "success").Info(msg) }
func (n LogNotifier) Error(msg string)   { n.logger().WithField("kind", "error").Error(msg) }
func (n LogNotifier) Info(msg string)    { n.logger().WithField("kind", "info").Info(msg) }

// ThemeState is an in-memory Theme.
type ThemeState struct {
	mu   sync.Mutex
	dark bool
}

func NewThemeState(dark bool) *ThemeState {
	return &ThemeState{dark: dark}
}

func (t *ThemeState) Dark() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dark
}

// Toggle flips the mode and returns the new value of Dark.
func (t *ThemeState) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dark = !t.dark
	return t.dark
}
