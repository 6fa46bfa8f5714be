package mockapi

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"prism-todos/domain"
)

// Change event types.
const (
	ChangeUpdated = "task-updated"
	ChangeDeleted = "task-deleted"
)

// ChangeEvent is published after every successful write.
type ChangeEvent struct {
	Type      string       `json:"type"`
	ID        int          `json:"id"`
	Task      *domain.Task `json:"task,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

type queueAPI interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// NewChangeQueue opens an Azure Storage queue for change events, creating it
// when missing.
func NewChangeQueue(ctx context.Context, connStr, queueName string) (*azqueue.QueueClient, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, err
	}
	if _, err := q.Create(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
			return nil, fmt.Errorf("create queue %s: %w", queueName, err)
		}
	}
	return q, nil
}

// ChangeFeed wraps a Backend and enqueues a ChangeEvent for every committed
// write. Publish failures are logged and never fail the write.
type ChangeFeed struct {
	Backend
	queue  queueAPI
	logger *log.Logger
}

func NewChangeFeed(base Backend, queue queueAPI, logger *log.Logger) *ChangeFeed {
	if base == nil {
		panic("mockapi.NewChangeFeed: base backend is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &ChangeFeed{Backend: base, queue: queue, logger: logger}
}

func (f *ChangeFeed) PutTask(ctx context.Context, task domain.Task) error {
	if err := f.Backend.PutTask(ctx, task); err != nil {
		return err
	}
	t := task
	f.publish(ctx, ChangeEvent{Type: ChangeUpdated, ID: task.ID, Task: &t, Timestamp: nextTimestamp()})
	return nil
}

func (f *ChangeFeed) DeleteTask(ctx context.Context, id int) error {
	if err := f.Backend.DeleteTask(ctx, id); err != nil {
		return err
	}
	f.publish(ctx, ChangeEvent{Type: ChangeDeleted, ID: id, Timestamp: nextTimestamp()})
	return nil
}

func (f *ChangeFeed) Seed(ctx context.Context, tasks []domain.Task) error {
	if seeder, ok := f.Backend.(Seeder); ok {
		return seeder.Seed(ctx, tasks)
	}
	return nil
}

func (f *ChangeFeed) publish(ctx context.Context, ev ChangeEvent) {
	if f.queue == nil {
		return
	}
	data, err := sonic.MarshalString(ev)
	if err != nil {
		f.logger.WithError(err).Warn("encode change event")
		return
	}
	if _, err := f.queue.EnqueueMessage(ctx, data, nil); err != nil {
		f.logger.WithFields(log.Fields{
			"type":  ev.Type,
			"id":    ev.ID,
			"error": err.Error(),
		}).Warn("todos.mock.change_publish_failed")
	}
}

var lastTimestamp int64

func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}
