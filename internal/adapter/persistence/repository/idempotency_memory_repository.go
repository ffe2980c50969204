package repository

import (
	"context"
	"sync"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// IdempotencyMemoryRepository keeps idempotency records in process memory.
//
// It is the default store and the one used by tests. Records are cloned on the way in and out
// so callers never share the stored raw payload slices.
type IdempotencyMemoryRepository struct {
	mu      sync.Mutex
	records map[string]entities.IdempotencyRecord
	now     func() time.Time
}

var _ interfaces.IIdempotencyStore = (*IdempotencyMemoryRepository)(nil)

func NewIdempotencyMemoryRepository() *IdempotencyMemoryRepository {
	return &IdempotencyMemoryRepository{
		records: make(map[string]entities.IdempotencyRecord),
		now:     time.Now,
	}
}

func (r *IdempotencyMemoryRepository) Get(_ context.Context, key string) (entities.IdempotencyRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	if !ok {
		return entities.IdempotencyRecord{}, false, nil
	}
	if rec.Expired(r.now()) {
		delete(r.records, key)
		return entities.IdempotencyRecord{}, false, nil
	}
	return rec.Clone(), true, nil
}

func (r *IdempotencyMemoryRepository) Save(_ context.Context, rec entities.IdempotencyRecord) (entities.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[rec.Key]; ok && !existing.Expired(r.now()) {
		return existing.Clone(), nil
	}
	r.records[rec.Key] = rec.Clone()
	return rec.Clone(), nil
}

// Sweep evicts every record expired at now and returns how many were removed.
func (r *IdempotencyMemoryRepository) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, rec := range r.records {
		if rec.Expired(now) {
			delete(r.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of records currently held, expired or not.
func (r *IdempotencyMemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// StartJanitor sweeps expired records every interval until ctx is cancelled.
func (r *IdempotencyMemoryRepository) StartJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(r.now()); n > 0 {
					logger.Debug("expired idempotency records evicted", zap.Int("count", n))
				}
			}
		}
	}()
}
