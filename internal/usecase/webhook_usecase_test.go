package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"
	mock_interfaces "payment_binder/internal/usecase/interfaces/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newWebhookFixture(t *testing.T) (*WebhookUseCase, *mock_interfaces.MockIWebhookVerifier, *mock_interfaces.MockIWebhookEventPublisher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	verifier := mock_interfaces.NewMockIWebhookVerifier(ctrl)
	verifier.EXPECT().Name().Return(entities.ProviderRazorpay).AnyTimes()
	publisher := mock_interfaces.NewMockIWebhookEventPublisher(ctrl)

	u := NewWebhookUseCase([]interfaces.IWebhookVerifier{verifier}, publisher, zap.NewNop())
	u.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return u, verifier, publisher
}

func TestWebhookUseCase_HandleWebhook(t *testing.T) {
	payload := []byte(`{"event":"order.paid"}`)

	t.Run("verified event is published", func(t *testing.T) {
		u, verifier, publisher := newWebhookFixture(t)
		verifier.EXPECT().VerifyAndParse(gomock.Any(), payload, gomock.Any()).
			Return(entities.WebhookEvent{EventID: "evt_1", EventType: "order.paid"}, nil)
		publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, evt entities.WebhookEvent) error {
			assert.Equal(t, entities.ProviderRazorpay, evt.Provider)
			assert.False(t, evt.ReceivedAt.IsZero())
			return nil
		})

		evt, err := u.HandleWebhook(context.Background(), entities.ProviderRazorpay, payload, http.Header{})
		require.NoError(t, err)
		assert.Equal(t, "evt_1", evt.EventID)
		assert.Equal(t, 2026, evt.ReceivedAt.Year())
	})

	t.Run("publisher failure is not returned", func(t *testing.T) {
		u, verifier, publisher := newWebhookFixture(t)
		verifier.EXPECT().VerifyAndParse(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.WebhookEvent{EventID: "evt_2"}, nil)
		publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("subscriber down"))

		_, err := u.HandleWebhook(context.Background(), entities.ProviderRazorpay, payload, http.Header{})
		assert.NoError(t, err)
	})

	t.Run("signature failure", func(t *testing.T) {
		u, verifier, _ := newWebhookFixture(t)
		verifier.EXPECT().VerifyAndParse(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(entities.WebhookEvent{}, entities.NewNormalizedError(entities.ErrorKindAuth, "mismatch", nil))

		_, err := u.HandleWebhook(context.Background(), entities.ProviderRazorpay, payload, http.Header{})
		nErr := entities.AsNormalizedError(err)
		assert.Equal(t, entities.ErrorKindAuth, nErr.Kind)
		assert.Equal(t, entities.ProviderRazorpay, nErr.Provider)
	})

	t.Run("provider without verifier", func(t *testing.T) {
		u, _, _ := newWebhookFixture(t)
		_, err := u.HandleWebhook(context.Background(), entities.ProviderStripe, payload, http.Header{})
		assert.Equal(t, entities.ErrorKindValidation, entities.KindOf(err))
	})

	t.Run("empty payload", func(t *testing.T) {
		u, _, _ := newWebhookFixture(t)
		_, err := u.HandleWebhook(context.Background(), entities.ProviderRazorpay, nil, http.Header{})
		assert.Equal(t, entities.ErrorKindValidation, entities.KindOf(err))
	})
}
