package mockapi

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus/hooks/test"

	"prism-todos/domain"
)

type fakeQueue struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeQueue) EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return azqueue.EnqueueMessagesResponse{}, f.err
	}
	f.messages = append(f.messages, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

func TestChangeFeedPublishesCommittedWrites(t *testing.T) {
	q := &fakeQueue{}
	logger, _ := test.NewNullLogger()
	feed := NewChangeFeed(NewMemoryBackend(SeedTasks(3)), q, logger)
	ctx := context.Background()

	if err := feed.PutTask(ctx, domain.Task{ID: 1, Title: "x", Completed: true}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := feed.DeleteTask(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := feed.DeleteTask(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if len(q.messages) != 2 {
		t.Fatalf("expected 2 events, got %d", len(q.messages))
	}
	var first, second ChangeEvent
	if err := sonic.UnmarshalString(q.messages[0], &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := sonic.UnmarshalString(q.messages[1], &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Type != ChangeUpdated || first.Task == nil || first.Task.Title != "x" {
		t.Fatalf("unexpected update event %#v", first)
	}
	if second.Type != ChangeDeleted || second.ID != 2 || second.Task != nil {
		t.Fatalf("unexpected delete event %#v", second)
	}
	if second.Timestamp <= first.Timestamp {
		t.Fatalf("timestamps should increase: %d then %d", first.Timestamp, second.Timestamp)
	}
}

func TestChangeFeedPublishFailureIsLogged(t *testing.T) {
	q := &fakeQueue{err: errors.New("queue down")}
	logger, hook := test.NewNullLogger()
	feed := NewChangeFeed(NewMemoryBackend(SeedTasks(1)), q, logger)

	if err := feed.DeleteTask(context.Background(), 1); err != nil {
		t.Fatalf("write should succeed despite publish failure: %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "todos.mock.change_publish_failed" {
		t.Fatalf("expected publish failure log, got %#v", entry)
	}
	if entry.Data["error"] != "queue down" || entry.Data["id"] != 1 {
		t.Fatalf("unexpected log fields %#v", entry.Data)
	}
}
