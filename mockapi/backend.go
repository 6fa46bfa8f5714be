package mockapi

import (
	"context"
	"errors"
	"fmt"

	"prism-todos/domain"
)

// ErrNotFound is returned by backends when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Backend persists the tasks served by the mock service.
type Backend interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id int) (domain.Task, error)
	PutTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id int) error
}

// Seeder is implemented by backends that can be preloaded with tasks.
type Seeder interface {
	Seed(ctx context.Context, tasks []domain.Task) error
}

var seedWords = []string{
	"delectus", "aut", "autem", "quis", "ut", "nam", "facilis", "fugiat",
	"veniam", "laboriosam", "mollitia", "et", "enim", "quasi", "adipisci",
	"quia", "provident", "illum", "qui", "ullam", "repellendus", "sint",
	"vero", "expedita", "omnis", "consequatur", "sunt", "officia",
}

// SeedTasks builds n deterministic placeholder tasks with ids 1..n.
func SeedTasks(n int) []domain.Task {
	tasks := make([]domain.Task, n)
	for i := range tasks {
		id := i + 1
		w := len(seedWords)
		tasks[i] = domain.Task{
			ID:        id,
			Title:     fmt.Sprintf("%s %s %s", seedWords[id%w], seedWords[(id*7)%w], seedWords[(id*13)%w]),
			Completed: id%3 == 0 || id%5 == 0,
		}
	}
	return tasks
}
