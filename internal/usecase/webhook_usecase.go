package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"go.uber.org/zap"
)

//go:generate mockgen -source=webhook_usecase.go -destination=../adapter/http/handlers/mocks/mock_webhook_usecase.go -package=mocks

// IWebhookUseCase verifies inbound provider notifications and forwards them as normalized events.
type IWebhookUseCase interface {
	HandleWebhook(ctx context.Context, provider entities.ProviderName, payload []byte, headers http.Header) (entities.WebhookEvent, error)
}

type WebhookUseCase struct {
	verifiers map[entities.ProviderName]interfaces.IWebhookVerifier
	publisher interfaces.IWebhookEventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

var _ IWebhookUseCase = (*WebhookUseCase)(nil)

func NewWebhookUseCase(verifiers []interfaces.IWebhookVerifier, publisher interfaces.IWebhookEventPublisher, logger *zap.Logger) *WebhookUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[entities.ProviderName]interfaces.IWebhookVerifier, len(verifiers))
	for _, v := range verifiers {
		if v == nil {
			continue
		}
		byName[v.Name()] = v
	}
	return &WebhookUseCase{
		verifiers: byName,
		publisher: publisher,
		logger:    logger.Named("webhook"),
		now:       time.Now,
	}
}

// HandleWebhook returns a kind=auth error when the signature does not verify.
// Publisher failures are logged only; the provider must not redeliver a verified event because of them.
func (u *WebhookUseCase) HandleWebhook(ctx context.Context, provider entities.ProviderName, payload []byte, headers http.Header) (entities.WebhookEvent, error) {
	log := u.logger.With(zap.String("provider", string(provider)))

	verifier, ok := u.verifiers[provider]
	if !ok {
		log.Info("webhook rejected; provider has no webhook secret configured")
		return entities.WebhookEvent{}, entities.NewValidationError(fmt.Sprintf("webhooks are not configured for provider %q", provider))
	}
	if len(payload) == 0 {
		return entities.WebhookEvent{}, entities.NewValidationError("empty webhook payload").WithProvider(provider, "")
	}

	evt, err := verifier.VerifyAndParse(ctx, payload, headers)
	if err != nil {
		nErr := entities.AsNormalizedError(err).Clone()
		if nErr.Provider == "" {
			nErr.Provider = provider
		}
		log.Warn("webhook verification failed", zap.String("kind", string(nErr.Kind)), zap.Error(nErr))
		return entities.WebhookEvent{}, nErr
	}
	if evt.Provider == "" {
		evt.Provider = provider
	}
	if evt.ReceivedAt.IsZero() {
		evt.ReceivedAt = u.now().UTC()
	}
	log.Info("webhook verified", zap.String("event_id", evt.EventID), zap.String("event_type", evt.EventType), zap.String("provider_transaction_id", evt.ProviderTransactionID))

	if u.publisher != nil {
		if err := u.publisher.Publish(ctx, evt); err != nil {
			log.Error("webhook event publish failed", zap.String("event_id", evt.EventID), zap.Error(err))
		}
	}
	return evt, nil
}
