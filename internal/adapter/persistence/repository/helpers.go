package repository

import (
	"encoding/json"
	"time"

	"payment_binder/internal/domain/entities"
)

// storedRecord is the JSON layout used by the Redis and Postgres stores. The raw provider payload is kept as
// bytes (base64 in JSON) so that a non-JSON provider body still round-trips.
type storedRecord struct {
	Key         string    `json:"key"`
	Provider    string    `json:"provider"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	ProviderTransactionID string `json:"provider_transaction_id,omitempty"`
	Status                string `json:"status,omitempty"`
	RawProviderPayload    []byte `json:"raw_provider_payload,omitempty"`

	Failure *entities.NormalizedError `json:"failure,omitempty"`
}

func encodeRecord(rec entities.IdempotencyRecord) ([]byte, error) {
	sr := storedRecord{
		Key:         rec.Key,
		Provider:    string(rec.Provider),
		Fingerprint: rec.Fingerprint,
		CreatedAt:   rec.CreatedAt.UTC(),
		ExpiresAt:   rec.ExpiresAt.UTC(),
		Failure:     rec.Failure,
	}
	if rec.Result != nil {
		sr.ProviderTransactionID = rec.Result.ProviderTransactionID
		sr.Status = string(rec.Result.Status)
		sr.RawProviderPayload = rec.Result.RawProviderPayload
	}
	return json.Marshal(sr)
}

func decodeRecord(data []byte) (entities.IdempotencyRecord, error) {
	var sr storedRecord
	if err := json.Unmarshal(data, &sr); err != nil {
		return entities.IdempotencyRecord{}, err
	}
	rec := entities.IdempotencyRecord{
		Key:         sr.Key,
		Provider:    entities.ProviderName(sr.Provider),
		Fingerprint: sr.Fingerprint,
		CreatedAt:   sr.CreatedAt,
		ExpiresAt:   sr.ExpiresAt,
		Failure:     sr.Failure,
	}
	if sr.Failure == nil {
		rec.Result = &entities.PaymentResult{
			Provider:              rec.Provider,
			ProviderTransactionID: sr.ProviderTransactionID,
			Status:                entities.PaymentStatus(sr.Status),
			RawProviderPayload:    sr.RawProviderPayload,
		}
	}
	return rec, nil
}
