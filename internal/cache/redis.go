package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/chauffeur/config"
	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	draftTTL   time.Duration
	outcomeTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, draftTTL, outcomeTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		draftTTL:   draftTTL,
		outcomeTTL: outcomeTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// AcquireDraftLock guards booking creation for a draft across replicas.
func (c *RedisCache) AcquireDraftLock(ctx context.Context, draftID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, draftLockKey(draftID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseDraftLock(ctx context.Context, draftID string) error {
	return c.client.Del(ctx, draftLockKey(draftID)).Err()
}

func (c *RedisCache) GetOutcome(ctx context.Context, resourcePath string) (*domain.PaymentOutcome, error) {
	data, err := c.client.Get(ctx, outcomeKey(resourcePath)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.PaymentOutcome
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetOutcome keeps the first outcome written for a path.
func (c *RedisCache) SetOutcome(ctx context.Context, outcome domain.PaymentOutcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, outcomeKey(outcome.ResourcePath), payload, c.outcomeTTL).Err()
}

func draftLockKey(draftID string) string {
	return "lock:draft:" + draftID
}

func draftKey(draftID string) string {
	return "draft:" + draftID
}

func outcomeKey(resourcePath string) string {
	return "payment:outcome:" + resourcePath
}
