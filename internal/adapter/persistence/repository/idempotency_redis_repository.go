package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKeyPrefix = "idempotency:"

// IdempotencyRedisRepository stores records as JSON strings with a Redis TTL matching ExpiresAt.
// SET NX makes the first writer win across every instance sharing the Redis server.
type IdempotencyRedisRepository struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ interfaces.IIdempotencyStore = (*IdempotencyRedisRepository)(nil)

func NewIdempotencyRedisRepository(client *redis.Client, prefix string) *IdempotencyRedisRepository {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &IdempotencyRedisRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *IdempotencyRedisRepository) Get(ctx context.Context, key string) (entities.IdempotencyRecord, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entities.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return entities.IdempotencyRecord{}, false, fmt.Errorf("redis get idempotency record: %w", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return entities.IdempotencyRecord{}, false, fmt.Errorf("redis decode idempotency record: %w", err)
	}
	if rec.Expired(r.now()) {
		return entities.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (r *IdempotencyRedisRepository) Save(ctx context.Context, rec entities.IdempotencyRecord) (entities.IdempotencyRecord, error) {
	ttl := rec.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return rec, nil
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return entities.IdempotencyRecord{}, err
	}

	// The second round covers a competing record that expired between SETNX and GET.
	for i := 0; i < 2; i++ {
		stored, err := r.client.SetNX(ctx, r.prefix+rec.Key, data, ttl).Result()
		if err != nil {
			return entities.IdempotencyRecord{}, fmt.Errorf("redis setnx idempotency record: %w", err)
		}
		if stored {
			return rec, nil
		}
		existing, found, err := r.Get(ctx, rec.Key)
		if err != nil {
			return entities.IdempotencyRecord{}, err
		}
		if found {
			return existing, nil
		}
	}
	return entities.IdempotencyRecord{}, fmt.Errorf("redis idempotency record %q is contended", rec.Key)
}
