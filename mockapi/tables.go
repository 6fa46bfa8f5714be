package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"prism-todos/domain"
)

const tasksPartition = "todos"

type tableAPI interface {
	NewListEntitiesPager(o *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
	GetEntity(ctx context.Context, partitionKey, rowKey string, o *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, o *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, o *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, o *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
}

// TablesBackend keeps tasks in an Azure Storage table, one entity per task.
type TablesBackend struct {
	table tableAPI
}

type taskEntity struct {
	aztables.Entity
	TaskID    int    `json:"TaskID"`
	Title     string `json:"Title"`
	Completed bool   `json:"Completed"`
}

// NewTablesBackend connects to tableName, creating it when missing.
func NewTablesBackend(ctx context.Context, connStr, tableName string) (*TablesBackend, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Second * 30,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	client := svc.NewClient(tableName)
	if _, err := client.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return nil, fmt.Errorf("create table %s: %w", tableName, err)
		}
	}
	return &TablesBackend{table: client}, nil
}

// rowKey zero-pads ids so the table's lexical row order matches numeric order.
func rowKey(id int) string {
	return fmt.Sprintf("%010d", id)
}

func encodeTaskEntity(t domain.Task) ([]byte, error) {
	return sonic.Marshal(taskEntity{
		Entity:    aztables.Entity{PartitionKey: tasksPartition, RowKey: rowKey(t.ID)},
		TaskID:    t.ID,
		Title:     t.Title,
		Completed: t.Completed,
	})
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	id := ent.TaskID
	if id == 0 {
		n, err := strconv.Atoi(ent.RowKey)
		if err != nil {
			return domain.Task{}, fmt.Errorf("invalid row key %q: %w", ent.RowKey, err)
		}
		id = n
	}
	return domain.Task{ID: id, Title: ent.Title, Completed: ent.Completed}, nil
}

func isStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

func (b *TablesBackend) ListTasks(ctx context.Context) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + tasksPartition + "'"
	pager := b.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			t, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (b *TablesBackend) GetTask(ctx context.Context, id int) (domain.Task, error) {
	resp, err := b.table.GetEntity(ctx, tasksPartition, rowKey(id), nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return decodeTaskEntity(resp.Value)
}

// PutTask replaces an existing entity. The wildcard ETag makes the service
// reject updates to missing rows instead of inserting them.
func (b *TablesBackend) PutTask(ctx context.Context, task domain.Task) error {
	payload, err := encodeTaskEntity(task)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = b.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
	if isStatus(err, http.StatusNotFound) {
		return ErrNotFound
	}
	return err
}

func (b *TablesBackend) DeleteTask(ctx context.Context, id int) error {
	_, err := b.table.DeleteEntity(ctx, tasksPartition, rowKey(id), nil)
	if isStatus(err, http.StatusNotFound) {
		return ErrNotFound
	}
	return err
}

// Seed upserts tasks. Rows not in tasks are left alone.
func (b *TablesBackend) Seed(ctx context.Context, tasks []domain.Task) error {
	for _, t := range tasks {
		payload, err := encodeTaskEntity(t)
		if err != nil {
			return err
		}
		if _, err := b.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}); err != nil {
			return fmt.Errorf("seed task %d: %w", t.ID, err)
		}
	}
	return nil
}
