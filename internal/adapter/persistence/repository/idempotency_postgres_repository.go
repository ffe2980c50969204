package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// IdempotencySchema creates the table used by IdempotencyPostgresRepository.
const IdempotencySchema = `
	CREATE TABLE IF NOT EXISTS idempotency_records (
		key         VARCHAR(255) PRIMARY KEY,
		provider    VARCHAR(32)  NOT NULL,
		fingerprint VARCHAR(64)  NOT NULL,
		record      JSONB        NOT NULL,
		created_at  TIMESTAMPTZ  NOT NULL,
		expires_at  TIMESTAMPTZ  NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_idempotency_records_expires_at ON idempotency_records(expires_at);
`

const (
	selectIdempotencyRecordSQL = `SELECT record FROM idempotency_records WHERE key = $1 AND expires_at > $2`

	// The upsert only replaces an expired row, so a live row makes RETURNING yield nothing.
	insertIdempotencyRecordSQL = `
		INSERT INTO idempotency_records (key, provider, fingerprint, record, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			provider = EXCLUDED.provider,
			fingerprint = EXCLUDED.fingerprint,
			record = EXCLUDED.record,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_records.expires_at <= $7
		RETURNING record`

	deleteExpiredIdempotencyRecordsSQL = `DELETE FROM idempotency_records WHERE expires_at <= $1`
)

// IdempotencyPostgresRepository persists idempotency records in PostgreSQL (lib/pq driver).
type IdempotencyPostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ interfaces.IIdempotencyStore = (*IdempotencyPostgresRepository)(nil)

func NewIdempotencyPostgresRepository(db *sql.DB) *IdempotencyPostgresRepository {
	return &IdempotencyPostgresRepository{db: db, now: time.Now}
}

// InitSchema creates the idempotency table when it does not exist.
func (r *IdempotencyPostgresRepository) InitSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, IdempotencySchema); err != nil {
		return fmt.Errorf("failed to initialize idempotency schema: %w", err)
	}
	return nil
}

func (r *IdempotencyPostgresRepository) Get(ctx context.Context, key string) (entities.IdempotencyRecord, bool, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, selectIdempotencyRecordSQL, key, r.now().UTC()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return entities.IdempotencyRecord{}, false, fmt.Errorf("postgres get idempotency record: %w", err)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return entities.IdempotencyRecord{}, false, fmt.Errorf("postgres decode idempotency record: %w", err)
	}
	return rec, true, nil
}

func (r *IdempotencyPostgresRepository) Save(ctx context.Context, rec entities.IdempotencyRecord) (entities.IdempotencyRecord, error) {
	data, err := encodeRecord(rec)
	if err != nil {
		return entities.IdempotencyRecord{}, err
	}

	var stored []byte
	err = r.db.QueryRowContext(ctx, insertIdempotencyRecordSQL,
		rec.Key,
		string(rec.Provider),
		rec.Fingerprint,
		data,
		rec.CreatedAt.UTC(),
		rec.ExpiresAt.UTC(),
		r.now().UTC(),
	).Scan(&stored)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entities.IdempotencyRecord{}, fmt.Errorf("postgres save idempotency record: %w", err)
	}

	existing, found, err := r.Get(ctx, rec.Key)
	if err != nil {
		return entities.IdempotencyRecord{}, err
	}
	if !found {
		return entities.IdempotencyRecord{}, fmt.Errorf("postgres idempotency record %q vanished after conflict", rec.Key)
	}
	return existing, nil
}

// Sweep deletes every row expired at now.
func (r *IdempotencyPostgresRepository) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredIdempotencyRecordsSQL, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("postgres sweep idempotency records: %w", err)
	}
	return res.RowsAffected()
}

// StartJanitor runs Sweep every interval until ctx is cancelled.
func (r *IdempotencyPostgresRepository) StartJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
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
				n, err := r.Sweep(ctx, r.now())
				if err != nil {
					logger.Warn("idempotency sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Debug("expired idempotency records deleted", zap.Int64("count", n))
				}
			}
		}
	}()
}
