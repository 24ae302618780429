// Package cache provides the session tier of the cart: Redis when configured,
// an in-process TTL map otherwise.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"techstore/internal/cart"
)

const keyPrefix = "cart:session:"

type RedisTier struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTier(client *redis.Client, ttl time.Duration) *RedisTier {
	return &RedisTier{client: client, ttl: ttl}
}

func (r *RedisTier) Name() string { return "session.redis" }

func (r *RedisTier) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, sessionKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisTier) Save(ctx context.Context, key string, _ int64, payload []byte) error {
	if err := r.client.Set(ctx, sessionKey(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisTier) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, sessionKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}
