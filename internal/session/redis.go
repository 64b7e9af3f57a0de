package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// rotateScript swaps a device's refresh token only when the stored value still
// equals the presented one. Runs server-side so concurrent refreshes for the
// same device cannot interleave between the read and the write.
var rotateScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], ARGV[1])
if current == false then
	return 1
end
if current ~= ARGV[2] then
	return 2
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return 0
`)

// RedisStore implements Store on one Redis hash per user: key
// "user:<id>:sessions", field deviceID, value the current refresh token. The
// key's TTL is refreshed to entryTTL on every write so abandoned sessions age
// out together with their refresh tokens.
type RedisStore struct {
	client   *redis.Client
	entryTTL time.Duration
}

// NewRedisStore returns a RedisStore writing through the given client.
// entryTTL should match the refresh token lifetime.
func NewRedisStore(client *redis.Client, entryTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, entryTTL: entryTTL}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("user:%s:sessions", userID)
}

// Upsert sets or overwrites the device's entry and refreshes the key TTL.
func (s *RedisStore) Upsert(ctx context.Context, userID, deviceID, token string) error {
	key := sessionKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, deviceID, token)
	pipe.PExpire(ctx, key, s.entryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session store: upsert: %w", err)
	}
	return nil
}

// Get returns the stored token for the pair, or ErrNotFound. Store failures
// are returned as errors, never as a missing session.
func (s *RedisStore) Get(ctx context.Context, userID, deviceID string) (string, error) {
	token, err := s.client.HGet(ctx, sessionKey(userID), deviceID).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session store: get: %w", err)
	}
	return token, nil
}

// Delete removes one device entry. No-op when absent.
func (s *RedisStore) Delete(ctx context.Context, userID, deviceID string) error {
	if err := s.client.HDel(ctx, sessionKey(userID), deviceID).Err(); err != nil {
		return fmt.Errorf("session store: delete: %w", err)
	}
	return nil
}

// DeleteAll removes the user's whole device map. No-op when absent.
func (s *RedisStore) DeleteAll(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("session store: delete all: %w", err)
	}
	return nil
}

// Rotate conditionally swaps presented→next for the device entry.
func (s *RedisStore) Rotate(ctx context.Context, userID, deviceID, presented, next string) error {
	ttlMillis := strconv.FormatInt(s.entryTTL.Milliseconds(), 10)
	res, err := rotateScript.Run(ctx, s.client,
		[]string{sessionKey(userID)},
		deviceID, presented, next, ttlMillis,
	).Int()
	if err != nil {
		return fmt.Errorf("session store: rotate: %w", err)
	}
	switch res {
	case 0:
		return nil
	case 1:
		return ErrNotFound
	case 2:
		return ErrTokenMismatch
	default:
		return fmt.Errorf("session store: rotate: unexpected script result %d", res)
	}
}
