package usecase

import (
	"context"
	"testing"
	"time"

	"payment_binder/internal/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	network := entities.NewNormalizedError(entities.ErrorKindNetwork, "x", nil)
	unknown := entities.NewNormalizedError(entities.ErrorKindUnknown, "x", nil)

	assert.True(t, p.ShouldRetry(network, 1))
	assert.True(t, p.ShouldRetry(network, 2))
	assert.False(t, p.ShouldRetry(network, 3))

	assert.True(t, p.ShouldRetry(unknown, 1))
	assert.False(t, p.ShouldRetry(unknown, 2))

	for _, kind := range []entities.ErrorKind{entities.ErrorKindValidation, entities.ErrorKindAuth, entities.ErrorKindProviderRejected} {
		assert.False(t, p.ShouldRetry(entities.NewNormalizedError(kind, "x", nil), 1), kind)
	}

	notRetriable := entities.NewNormalizedError(entities.ErrorKindNetwork, "x", nil)
	notRetriable.Retriable = false
	assert.False(t, p.ShouldRetry(notRetriable, 1))
	assert.False(t, p.ShouldRetry(nil, 1))
	assert.False(t, RetryPolicy{}.ShouldRetry(network, 1))
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 350*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 350*time.Millisecond, p.Backoff(10))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(0))
	assert.Zero(t, RetryPolicy{}.Backoff(3))

	p.Jitter = true
	for i := 0; i < 50; i++ {
		d := p.Backoff(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepContext(ctx, 0), context.Canceled)
}
