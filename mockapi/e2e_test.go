package mockapi

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"prism-todos/remote"
	"prism-todos/store"
)

func TestStoreAgainstMockService(t *testing.T) {
	logger, _ := test.NewNullLogger()
	backend := NewMemoryBackend(SeedTasks(80))
	srv := NewServer(backend, Options{}, logger)
	ts := httptest.NewServer(srv.Echo)
	t.Cleanup(ts.Close)

	client := remote.New(ts.URL, 5*time.Second, logger)
	st := store.New(client, store.Options{Logger: logger})
	t.Cleanup(st.Close)
	ctx := context.Background()

	if err := st.FetchAll(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := len(st.Tasks()); got != store.DefaultFetchLimit {
		t.Fatalf("expected %d tasks, got %d", store.DefaultFetchLimit, got)
	}

	task := st.Tasks()[0]
	task.Title = "edited"
	if err := st.Update(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := backend.GetTask(ctx, task.ID)
	if stored.Title != "edited" {
		t.Fatalf("expected server to persist title, got %q", stored.Title)
	}

	srv.SetFailMutations(true)
	victim := st.Tasks()[1]
	err := st.Delete(ctx, victim.ID)
	if !errors.Is(err, store.ErrDeleteFailed) {
		t.Fatalf("expected delete failure, got %v", err)
	}
	var statusErr *remote.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 503 {
		t.Fatalf("expected 503 status error, got %v", err)
	}
	if got := st.Tasks(); len(got) != store.DefaultFetchLimit || got[1] != victim {
		t.Fatalf("expected rollback to restore task %d", victim.ID)
	}
}
