package interfaces

import (
	"context"

	"payment_binder/internal/domain/entities"
)

//go:generate mockgen -source=idempotency_store_interface.go -destination=mocks/mock_idempotency_store_interface.go -package=mock_interfaces

// IIdempotencyStore persists idempotency records (memory, DynamoDB, Redis or PostgreSQL).
//
// Get never returns expired records. Save is first-writer-wins: when a live record already
// exists for rec.Key the stored record is returned unchanged, otherwise rec is stored and returned.
type IIdempotencyStore interface {
	Get(ctx context.Context, key string) (entities.IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec entities.IdempotencyRecord) (entities.IdempotencyRecord, error)
}
