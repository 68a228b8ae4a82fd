package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultQueueKey = "antenatal:notifications:due"

// RedisQueue keeps notifications in a sorted set scored by SendAt, so several
// server instances can share one queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = defaultQueueKey
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	err = q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(n.SendAt.Unix()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("push notification %s: %w", n.ID, err)
	}
	return nil
}

// PopDue reads due members and claims each one with ZREM. A member another
// consumer removed first is skipped, so every notification is handed out once.
func (q *RedisQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]*Notification, error) {
	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read due notifications: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	pipe := q.client.TxPipeline()
	claims := make([]*redis.IntCmd, len(members))
	for i, m := range members {
		claims[i] = pipe.ZRem(ctx, q.key, m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("claim due notifications: %w", err)
	}

	due := make([]*Notification, 0, len(members))
	for i, m := range members {
		if claims[i].Val() != 1 {
			continue
		}
		var n Notification
		if err := json.Unmarshal([]byte(m), &n); err != nil {
			return due, fmt.Errorf("decode notification: %w", err)
		}
		due = append(due, &n)
	}
	return due, nil
}

// Len reports how many notifications are waiting.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.key).Result()
}
