package domain

import "strings"

// Task represents a single todo item as served by the remote task service.
type Task struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// FilterMode selects tasks by completion state.
type FilterMode string

const (
	FilterAll        FilterMode = "all"
	FilterCompleted  FilterMode = "completed"
	FilterIncomplete FilterMode = "incomplete"
)

// ParseFilterMode maps user input onto a FilterMode. Unknown values fall back to FilterAll.
func ParseFilterMode(s string) (FilterMode, bool) {
	switch FilterMode(strings.ToLower(strings.TrimSpace(s))) {
	case FilterAll, "":
		return FilterAll, true
	case FilterCompleted:
		return FilterCompleted, true
	case FilterIncomplete:
		return FilterIncomplete, true
	default:
		return FilterAll, false
	}
}

// Matches reports whether the task passes both the search text and the filter mode.
func (t Task) Matches(search string, mode FilterMode) bool {
	if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(search)) {
		return false
	}
	switch mode {
	case FilterCompleted:
		return t.Completed
	case FilterIncomplete:
		return !t.Completed
	default:
		return true
	}
}

// Filter returns the tasks matching search and mode, preserving input order.
func Filter(tasks []Task, search string, mode FilterMode) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Matches(search, mode) {
			out = append(out, t)
		}
	}
	return out
}

// Counts summarises completion state across a collection.
type Counts struct {
	Total      int
	Completed  int
	Incomplete int
}

func CountTasks(tasks []Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		}
	}
	c.Incomplete = c.Total - c.Completed
	return c
}
