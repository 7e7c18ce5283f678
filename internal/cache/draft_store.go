package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisDraftStore keeps drafts as JSON so any replica can continue a flow.
// Every write refreshes the TTL.
type RedisDraftStore struct {
	cache *RedisCache
}

func NewRedisDraftStore(cache *RedisCache) *RedisDraftStore {
	return &RedisDraftStore{cache: cache}
}

func (s *RedisDraftStore) Save(ctx context.Context, d *domain.ReservationDraft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.cache.client.Set(ctx, draftKey(d.ID), payload, s.cache.draftTTL).Err()
}

func (s *RedisDraftStore) Get(ctx context.Context, id string) (*domain.ReservationDraft, error) {
	data, err := s.cache.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}
	var d domain.ReservationDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id string) error {
	return s.cache.client.Del(ctx, draftKey(id)).Err()
}
