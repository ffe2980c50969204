package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrIdempotencyRecordNotFound = errors.New("idempotency record not found")
	ErrInvalidIdempotencyKey     = errors.New("invalid idempotency key")
)

const saveTimeout = 10 * time.Second

//go:generate mockgen -source=payment_dispatch_usecase.go -destination=../adapter/http/handlers/mocks/mock_payment_dispatch_usecase.go -package=mocks

// IPaymentDispatchUseCase is the unified call surface over every configured provider.
type IPaymentDispatchUseCase interface {
	Submit(ctx context.Context, provider entities.ProviderName, req entities.PaymentRequest) (entities.PaymentResult, error)
	Refresh(ctx context.Context, provider entities.ProviderName, providerTransactionID string) (entities.PaymentResult, error)
	Lookup(ctx context.Context, key string) (entities.IdempotencyRecord, error)
	Providers() []entities.ProviderName
}

// DispatchOptions tunes retries and idempotency record lifetime.
type DispatchOptions struct {
	Retry          RetryPolicy
	RecordTTL      time.Duration
	AttemptTimeout time.Duration
}

// DefaultDispatchOptions returns the options used when none are configured
func DefaultDispatchOptions() DispatchOptions {
	return DispatchOptions{
		Retry:          DefaultRetryPolicy(),
		RecordTTL:      24 * time.Hour,
		AttemptTimeout: 30 * time.Second,
	}
}

type PaymentDispatchUseCase struct {
	providers map[entities.ProviderName]interfaces.IPaymentProvider
	store     interfaces.IIdempotencyStore
	opts      DispatchOptions
	logger    *zap.Logger

	inflight singleflight.Group
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

var _ IPaymentDispatchUseCase = (*PaymentDispatchUseCase)(nil)

func NewPaymentDispatchUseCase(providers []interfaces.IPaymentProvider, store interfaces.IIdempotencyStore, opts DispatchOptions, logger *zap.Logger) *PaymentDispatchUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[entities.ProviderName]interfaces.IPaymentProvider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		byName[p.Name()] = p
	}
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = DefaultDispatchOptions().RecordTTL
	}
	return &PaymentDispatchUseCase{
		providers: byName,
		store:     store,
		opts:      opts,
		logger:    logger.Named("dispatch"),
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// Submit charges req through provider at most once per idempotency key.
//
// The outcome of the first call for a key is recorded whether it succeeded or failed, and a live
// record for the key is replayed without calling the provider. Concurrent calls with the
// same key share one in-flight execution. ctx only bounds how long this caller waits: once the
// provider call has started it runs to completion and its outcome is recorded.
func (u *PaymentDispatchUseCase) Submit(ctx context.Context, provider entities.ProviderName, req entities.PaymentRequest) (entities.PaymentResult, error) {
	log := u.logger.With(zap.String("provider", string(provider)), zap.String("idempotency_key", req.IdempotencyKey))
	log.Debug("submit start", zap.Int64("amount", req.Amount), zap.String("currency", req.Currency))

	if err := entities.ValidatePaymentRequest(req); err != nil {
		log.Info("submit rejected by validation", zap.Error(err))
		return entities.PaymentResult{}, err
	}
	adapter, ok := u.providers[provider]
	if !ok {
		log.Info("submit rejected; provider not configured")
		return entities.PaymentResult{}, entities.NewValidationError(fmt.Sprintf("provider %q is not configured", provider))
	}
	if u.store == nil {
		return entities.PaymentResult{}, storeFailure(errors.New("idempotency store not configured"))
	}

	fingerprint := entities.Fingerprint(provider, req)

	if err := ctx.Err(); err != nil {
		return entities.PaymentResult{}, callerGaveUp(provider, err)
	}
	rec, found, err := u.store.Get(ctx, req.IdempotencyKey)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.PaymentResult{}, callerGaveUp(provider, ctxErr)
		}
		log.Error("idempotency lookup failed", zap.Error(err))
		return entities.PaymentResult{}, storeFailure(err)
	}
	if found {
		log.Info("replaying stored outcome")
		return replay(rec, fingerprint)
	}

	ch := u.inflight.DoChan(req.IdempotencyKey, func() (any, error) {
		return u.execute(context.WithoutCancel(ctx), adapter, req, fingerprint, log), nil
	})

	select {
	case <-ctx.Done():
		log.Warn("caller stopped waiting for in-flight charge", zap.Error(ctx.Err()))
		return entities.PaymentResult{}, callerGaveUp(provider, ctx.Err())
	case res := <-ch:
		out, _ := res.Val.(entities.IdempotencyRecord)
		if res.Shared {
			log.Debug("joined in-flight charge")
		}
		return replay(out, fingerprint)
	}
}

// execute runs on the singleflight leader only.
func (u *PaymentDispatchUseCase) execute(ctx context.Context, adapter interfaces.IPaymentProvider, req entities.PaymentRequest, fingerprint string, log *zap.Logger) entities.IdempotencyRecord {
	now := u.now()
	rec := entities.IdempotencyRecord{
		Key:         req.IdempotencyKey,
		Provider:    adapter.Name(),
		Fingerprint: fingerprint,
		CreatedAt:   now,
		ExpiresAt:   now.Add(u.opts.RecordTTL),
	}

	// A leader that finished between our lookup and this call may already have stored the outcome.
	if existing, found, err := u.store.Get(ctx, req.IdempotencyKey); err != nil {
		log.Error("idempotency re-check failed", zap.Error(err))
		rec.Failure = storeFailure(err)
		return rec
	} else if found {
		return existing
	}

	result, err := u.callWithRetry(ctx, adapter.Name(), "charge", func(attemptCtx context.Context) (entities.PaymentResult, error) {
		return adapter.Charge(attemptCtx, req)
	}, log)
	if err != nil {
		rec.Failure = entities.AsNormalizedError(err)
	} else {
		rec.Result = &result
	}

	stored, err := u.save(ctx, rec, log)
	if err != nil {
		log.Error("charge outcome not recorded; resubmitting this key will call the provider again",
			zap.Bool("succeeded", rec.Result != nil), zap.Error(err))
		return rec
	}
	if stored.Fingerprint != rec.Fingerprint || !stored.CreatedAt.Equal(rec.CreatedAt) {
		log.Debug("another writer recorded this key first; returning its outcome")
	}
	log.Info("charge outcome recorded", zap.Bool("succeeded", stored.Result != nil))
	return stored
}

// save stores rec, trying a second time when the first write fails. Each try gets its own deadline.
func (u *PaymentDispatchUseCase) save(ctx context.Context, rec entities.IdempotencyRecord, log *zap.Logger) (entities.IdempotencyRecord, error) {
	var err error
	for try := 1; try <= 2; try++ {
		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		var stored entities.IdempotencyRecord
		stored, err = u.store.Save(saveCtx, rec)
		cancel()
		if err == nil {
			return stored, nil
		}
		log.Warn("idempotency record save failed", zap.Int("try", try), zap.Error(err))
	}
	return entities.IdempotencyRecord{}, err
}

// callWithRetry runs call until it succeeds or the retry policy gives up. op names the call in logs.
func (u *PaymentDispatchUseCase) callWithRetry(ctx context.Context, provider entities.ProviderName, op string, call func(context.Context) (entities.PaymentResult, error), log *zap.Logger) (entities.PaymentResult, error) {
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if u.opts.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, u.opts.AttemptTimeout)
		}
		result, err := call(attemptCtx)
		cancel()

		if err == nil {
			err = checkResult(provider, &result)
		}
		if err == nil {
			log.Info("provider "+op+" completed", zap.Int("attempt", attempt), zap.String("status", string(result.Status)), zap.String("provider_transaction_id", result.ProviderTransactionID))
			return result, nil
		}

		nErr := entities.AsNormalizedError(err).Clone()
		if nErr.Provider == "" {
			nErr.Provider = provider
		}
		if !u.opts.Retry.ShouldRetry(nErr, attempt) {
			log.Info("provider "+op+" failed", zap.Int("attempt", attempt), zap.String("kind", string(nErr.Kind)), zap.Error(nErr))
			return entities.PaymentResult{}, nErr
		}

		delay := u.opts.Retry.Backoff(attempt)
		log.Warn("provider "+op+" failed; retrying", zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(nErr))
		if err := u.sleep(ctx, delay); err != nil {
			return entities.PaymentResult{}, nErr
		}
	}
}

// Refresh reads the current state of a transaction from its provider. Nothing is stored: the
// idempotency record keeps the outcome of the original call.
func (u *PaymentDispatchUseCase) Refresh(ctx context.Context, provider entities.ProviderName, providerTransactionID string) (entities.PaymentResult, error) {
	log := u.logger.With(zap.String("provider", string(provider)), zap.String("provider_transaction_id", providerTransactionID))
	if strings.TrimSpace(providerTransactionID) == "" {
		return entities.PaymentResult{}, entities.NewValidationError("provider transaction id is required")
	}
	adapter, ok := u.providers[provider]
	if !ok {
		return entities.PaymentResult{}, entities.NewValidationError(fmt.Sprintf("provider %q is not configured", provider))
	}
	if err := ctx.Err(); err != nil {
		return entities.PaymentResult{}, callerGaveUp(provider, err)
	}
	return u.callWithRetry(ctx, provider, "fetch", func(attemptCtx context.Context) (entities.PaymentResult, error) {
		return adapter.Fetch(attemptCtx, providerTransactionID)
	}, log)
}

// Lookup returns the live idempotency record stored for key.
func (u *PaymentDispatchUseCase) Lookup(ctx context.Context, key string) (entities.IdempotencyRecord, error) {
	if key == "" {
		return entities.IdempotencyRecord{}, ErrInvalidIdempotencyKey
	}
	if u.store == nil {
		return entities.IdempotencyRecord{}, errors.New("idempotency store not configured")
	}
	rec, found, err := u.store.Get(ctx, key)
	if err != nil {
		return entities.IdempotencyRecord{}, err
	}
	if !found {
		return entities.IdempotencyRecord{}, ErrIdempotencyRecordNotFound
	}
	return rec, nil
}

// Providers lists the configured providers in name order.
func (u *PaymentDispatchUseCase) Providers() []entities.ProviderName {
	out := make([]entities.ProviderName, 0, len(u.providers))
	for name := range u.providers {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func replay(rec entities.IdempotencyRecord, fingerprint string) (entities.PaymentResult, error) {
	if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
		return entities.PaymentResult{}, entities.NewValidationError(fmt.Sprintf("idempotency key %q was already used with a different request", rec.Key))
	}
	return rec.Outcome()
}

func checkResult(provider entities.ProviderName, res *entities.PaymentResult) error {
	if res.Provider == "" {
		res.Provider = provider
	}
	if res.ProviderTransactionID == "" {
		return entities.NewNormalizedError(entities.ErrorKindUnknown, "provider returned no transaction id", nil).WithProvider(provider, "")
	}
	switch res.Status {
	case entities.PaymentStatusPending, entities.PaymentStatusSucceeded, entities.PaymentStatusFailed:
		return nil
	}
	return entities.NewNormalizedError(entities.ErrorKindUnknown, fmt.Sprintf("provider returned unknown status %q", res.Status), nil).WithProvider(provider, "")
}

func callerGaveUp(provider entities.ProviderName, err error) *entities.NormalizedError {
	return &entities.NormalizedError{
		Kind:      entities.ErrorKindNetwork,
		Provider:  provider,
		Retriable: true,
		Message:   "caller stopped waiting; resubmit with the same idempotency key to get the outcome",
		Err:       err,
	}
}

func storeFailure(err error) *entities.NormalizedError {
	return &entities.NormalizedError{
		Kind:    entities.ErrorKindUnknown,
		Message: "idempotency store unavailable",
		Err:     err,
	}
}
