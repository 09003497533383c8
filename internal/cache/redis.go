package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

const (
	defaultBaseTTL   = 15 * time.Minute
	defaultMaxJitter = 5 * time.Minute
)

// RedisCache is a read-through cache for cart documents. Entries expire
// after baseTTL plus a random jitter below maxJitter, so carts warmed in a
// burst do not all fall out of the cache in the same instant.
type RedisCache struct {
	client    *redis.Client
	baseTTL   time.Duration
	maxJitter time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:    client,
		baseTTL:   defaultBaseTTL,
		maxJitter: defaultMaxJitter,
	}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cached cart: %w", err)
	}

	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(userID), data, r.entryTTL()).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisCache) entryTTL() time.Duration {
	if r.maxJitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + time.Duration(rand.Int63n(int64(r.maxJitter)))
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}
