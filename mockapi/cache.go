package mockapi

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"prism-todos/domain"
)

const (
	listCacheKey    = "todos:cache:list"
	taskCachePrefix = "todos:cache:task:"
)

// Cache wraps a Backend with Redis-backed caching for read operations.
// Writes go to the backend first and then evict the affected keys.
type Cache struct {
	base  Backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base Backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("mockapi.NewCache: base backend is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if c.load(ctx, listCacheKey, &tasks) {
		return tasks, nil
	}
	tasks, err := c.base.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, listCacheKey, tasks)
	return tasks, nil
}

func (c *Cache) GetTask(ctx context.Context, id int) (domain.Task, error) {
	var task domain.Task
	if c.load(ctx, taskCacheKey(id), &task) {
		return task, nil
	}
	task, err := c.base.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	c.store(ctx, taskCacheKey(id), task)
	return task, nil
}

func (c *Cache) PutTask(ctx context.Context, task domain.Task) error {
	if err := c.base.PutTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.ID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id int) error {
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *Cache) Seed(ctx context.Context, tasks []domain.Task) error {
	seeder, ok := c.base.(Seeder)
	if !ok {
		return nil
	}
	if err := seeder.Seed(ctx, tasks); err != nil {
		return err
	}
	if c.redis != nil {
		keys := []string{listCacheKey}
		for _, t := range tasks {
			keys = append(keys, taskCacheKey(t.ID))
		}
		_ = c.redis.Del(ctx, keys...).Err()
	}
	return nil
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backend without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, id int) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, listCacheKey, taskCacheKey(id)).Result()
}

func taskCacheKey(id int) string {
	return taskCachePrefix + strconv.Itoa(id)
}
