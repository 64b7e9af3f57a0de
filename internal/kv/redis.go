// Package kv opens the Redis connection backing the session store. The client
// is constructed at service start and closed at shutdown; nothing holds it as
// ambient global state.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open connects to Redis using the given URL (e.g. redis://localhost:6379/0)
// and verifies the connection with a ping. Caller must call Close when done.
func Open(url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("kv: redis url is not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("kv: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kv: ping: %w", err)
	}
	return client, nil
}
