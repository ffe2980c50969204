package entities

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strconv"
	"time"
)

// IdempotencyRecord is the stored outcome of the first definitive call made for a key.
//
// Exactly one of Result and Failure is set.
type IdempotencyRecord struct {
	Key         string           `json:"key"`
	Provider    ProviderName     `json:"provider"`
	Fingerprint string           `json:"fingerprint"`
	Result      *PaymentResult   `json:"result,omitempty"`
	Failure     *NormalizedError `json:"failure,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Outcome returns the stored result or failure as Submit would return it.
func (r IdempotencyRecord) Outcome() (PaymentResult, error) {
	if r.Failure != nil {
		return PaymentResult{}, r.Failure.Clone()
	}
	if r.Result == nil {
		return PaymentResult{}, NewNormalizedError(ErrorKindUnknown, "idempotency record has no outcome", nil)
	}
	return r.Result.Clone(), nil
}

// Clone returns a deep copy of the record.
func (r IdempotencyRecord) Clone() IdempotencyRecord {
	out := r
	if r.Result != nil {
		res := r.Result.Clone()
		out.Result = &res
	}
	out.Failure = r.Failure.Clone()
	return out
}

// Fingerprint hashes everything that identifies a logical payment except the key itself.
// Every field is length-prefixed so that no two distinct requests share an encoding.
func Fingerprint(provider ProviderName, req PaymentRequest) string {
	h := sha256.New()
	field := func(v string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(v)))
		h.Write(n[:])
		h.Write([]byte(v))
	}
	field(string(provider))
	field(strconv.FormatInt(req.Amount, 10))
	field(req.Currency)

	keys := make([]string, 0, len(req.Metadata))
	for k := range req.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	field(strconv.Itoa(len(keys)))
	for _, k := range keys {
		field(k)
		field(req.Metadata[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
