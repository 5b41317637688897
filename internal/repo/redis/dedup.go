package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator claims a key once within a ttl window.
type Deduplicator interface {
	// Claim returns true when the caller is the first to claim key.
	Claim(ctx context.Context, key string) (bool, error)
	// Release drops a claim so that a failed job can be retried.
	Release(ctx context.Context, key string) error
}

type redisDedup struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewDeduplicator(client redis.UniversalClient, ttl time.Duration) Deduplicator {
	return &redisDedup{client: client, ttl: ttl}
}

func (d *redisDedup) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

func (d *redisDedup) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

// noopDedup is used when redis is not configured; every claim succeeds.
type noopDedup struct{}

func NewNoopDeduplicator() Deduplicator {
	return noopDedup{}
}

func (noopDedup) Claim(context.Context, string) (bool, error) { return true, nil }
func (noopDedup) Release(context.Context, string) error       { return nil }

func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
