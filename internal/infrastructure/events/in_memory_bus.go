package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// AllProviders subscribes a handler to events from every provider.
const AllProviders entities.ProviderName = "*"

type HandlerFunc func(ctx context.Context, evt entities.WebhookEvent) error

// InMemoryBus fans verified webhook events out to in-process subscribers.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[entities.ProviderName][]HandlerFunc
	logger   *zap.Logger
}

var _ interfaces.IWebhookEventPublisher = (*InMemoryBus)(nil)

func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryBus{
		handlers: make(map[entities.ProviderName][]HandlerFunc),
		logger:   logger.Named("events"),
	}
}

func (b *InMemoryBus) Subscribe(provider entities.ProviderName, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[provider] = append(b.handlers[provider], handler)
}

// Publish runs every handler for evt.Provider, then the wildcard handlers. A failing handler does not
// stop the others; all failures are returned joined.
func (b *InMemoryBus) Publish(ctx context.Context, evt entities.WebhookEvent) error {
	b.mu.RLock()
	handlers := make([]HandlerFunc, 0, len(b.handlers[evt.Provider])+len(b.handlers[AllProviders]))
	handlers = append(handlers, b.handlers[evt.Provider]...)
	if evt.Provider != AllProviders {
		handlers = append(handlers, b.handlers[AllProviders]...)
	}
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := handler(ctx, evt); err != nil {
			b.logger.Warn("event handler failed",
				zap.String("provider", string(evt.Provider)),
				zap.String("event_id", evt.EventID),
				zap.Int("handler", i),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("handler %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// LogHandler records every event at info level.
func LogHandler(logger *zap.Logger) HandlerFunc {
	return func(_ context.Context, evt entities.WebhookEvent) error {
		logger.Info("webhook event",
			zap.String("provider", string(evt.Provider)),
			zap.String("event_id", evt.EventID),
			zap.String("event_type", evt.EventType),
			zap.String("provider_transaction_id", evt.ProviderTransactionID),
			zap.String("status", string(evt.Status)),
		)
		return nil
	}
}
