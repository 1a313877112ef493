package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis. The session is a JSON string at
// <prefix>:<id>; pending flashes are a list at <prefix>:<id>:flash.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// Compile-time check that *RedisStore satisfies Store.
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store using client. prefix namespaces all keys.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sess"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis parses redisURL and verifies the connection.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

func (rs *RedisStore) key(id string) string      { return rs.prefix + ":" + id }
func (rs *RedisStore) flashKey(id string) string { return rs.prefix + ":" + id + ":flash" }

// Load retrieves a session by ID.
// POST: Returns the session or ErrNotFound when absent or expired
func (rs *RedisStore) Load(ctx context.Context, id string) (Session, error) {
	raw, err := rs.client.Get(ctx, rs.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// Save stores the session and restarts the expiry of it and its flashes.
func (rs *RedisStore) Save(ctx context.Context, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rs.key(s.ID), raw, ttl)
		pipe.Expire(ctx, rs.flashKey(s.ID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session and its flashes. Deleting a missing session is not an error.
func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	if err := rs.client.Del(ctx, rs.key(id), rs.flashKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PushFlash appends a flash to the session's pending list.
func (rs *RedisStore) PushFlash(ctx context.Context, id string, f Flash, ttl time.Duration) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, rs.flashKey(id), raw)
		pipe.Expire(ctx, rs.flashKey(id), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push flash: %w", err)
	}
	return nil
}

// PopFlashes reads and deletes the pending list inside one MULTI/EXEC.
func (rs *RedisStore) PopFlashes(ctx context.Context, id string) ([]Flash, error) {
	var rangeCmd *redis.StringSliceCmd
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rangeCmd = pipe.LRange(ctx, rs.flashKey(id), 0, -1)
		pipe.Del(ctx, rs.flashKey(id))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pop flashes: %w", err)
	}
	items := rangeCmd.Val()
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]Flash, 0, len(items))
	for _, item := range items {
		var f Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			return nil, fmt.Errorf("decode flash: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}
