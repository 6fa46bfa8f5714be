package mockapi

import (
	"context"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"prism-todos/domain"
)

const redisTasksKey = "todos:tasks"

// RedisBackend stores every task as a JSON field of a single Redis hash keyed
// by id.
type RedisBackend struct {
	client *redis.Client
	key    string
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	if client == nil {
		panic("mockapi.NewRedisBackend: client is nil")
	}
	return &RedisBackend{client: client, key: redisTasksKey}
}

func (r *RedisBackend) ListTasks(ctx context.Context) ([]domain.Task, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(fields))
	for _, raw := range fields {
		var t domain.Task
		if err := sonic.UnmarshalString(raw, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *RedisBackend) GetTask(ctx context.Context, id int) (domain.Task, error) {
	raw, err := r.client.HGet(ctx, r.key, strconv.Itoa(id)).Result()
	if err == redis.Nil {
		return domain.Task{}, ErrNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	var t domain.Task
	if err := sonic.UnmarshalString(raw, &t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (r *RedisBackend) PutTask(ctx context.Context, task domain.Task) error {
	data, err := sonic.MarshalString(task)
	if err != nil {
		return err
	}
	field := strconv.Itoa(task.ID)
	exists, err := r.client.HExists(ctx, r.key, field).Result()
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return r.client.HSet(ctx, r.key, field, data).Err()
}

func (r *RedisBackend) DeleteTask(ctx context.Context, id int) error {
	n, err := r.client.HDel(ctx, r.key, strconv.Itoa(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed replaces the stored tasks in a single transaction.
func (r *RedisBackend) Seed(ctx context.Context, tasks []domain.Task) error {
	values := make([]any, 0, len(tasks)*2)
	for _, t := range tasks {
		data, err := sonic.MarshalString(t)
		if err != nil {
			return err
		}
		values = append(values, strconv.Itoa(t.ID), data)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(values) > 0 {
			pipe.HSet(ctx, r.key, values...)
		}
		return nil
	})
	return err
}
