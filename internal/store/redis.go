package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
)

const (
	eventQueueKey  = "queue:article-events"
	recentEventKey = "list:recent-events"
	recentKeep     = 50
)

// ErrQueueEmpty is returned by PopEvent when no event arrived in time.
var ErrQueueEmpty = errors.New("event queue empty")

// RedisQueue publishes article change events to a Redis list and pops them
// back for consumers.
type RedisQueue struct {
	rdb *redis.Client
	cap int64
}

// NewRedisQueue connects to Redis. The queue keeps at most capacity pending
// events; older ones are trimmed.
func NewRedisQueue(ctx context.Context, addr string, capacity int64) (*RedisQueue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisQueue{rdb: rdb, cap: capacity}, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

// Publish pushes the event to the queue and records its id in the recent
// list.
func (q *RedisQueue) Publish(ctx context.Context, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := q.rdb.Pipeline()
	pipe.LPush(ctx, eventQueueKey, data)
	if q.cap > 0 {
		pipe.LTrim(ctx, eventQueueKey, 0, q.cap-1)
	}
	pipe.LPush(ctx, recentEventKey, ev.ID.String())
	pipe.LTrim(ctx, recentEventKey, 0, recentKeep-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// PopEvent waits up to timeout for the oldest queued event.
func (q *RedisQueue) PopEvent(ctx context.Context, timeout time.Duration) (model.Event, error) {
	result, err := q.rdb.BRPop(ctx, timeout, eventQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return model.Event{}, ErrQueueEmpty
	}
	if err != nil {
		return model.Event{}, err
	}

	var ev model.Event
	if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
		return model.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// Recent returns the ids of the most recently published events, newest first.
func (q *RedisQueue) Recent(ctx context.Context, limit int) ([]string, error) {
	return q.rdb.LRange(ctx, recentEventKey, 0, int64(limit-1)).Result()
}
