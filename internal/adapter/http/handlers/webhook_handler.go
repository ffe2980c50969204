package handlers

import (
	"net/http"

	"payment_binder/internal/adapter/http/dto/response"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase"
	"payment_binder/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives provider notifications.
type WebhookHandler struct {
	usecase usecase.IWebhookUseCase
	logger  *zap.Logger
}

func NewWebhookHandler(uc usecase.IWebhookUseCase, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{usecase: uc, logger: logger.Named("webhook_handler")}
}

// ReceiveWebhook godoc
// @Summary      Provider webhook
// @Description  Verifies the provider signature over the raw body and publishes the normalized event.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        provider  path  string  true  "paddle, razorpay, stripe or mercadopago"
// @Success      200  {object}  response.WebhookEventResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      401  {object}  pkg.HTTPError
// @Router       /webhooks/{provider} [post]
func (h *WebhookHandler) ReceiveWebhook(c *gin.Context) {
	provider, err := entities.ParseProviderName(c.Param("provider"))
	if err != nil {
		writeError(c, pkg.FromNormalizedError(err))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		h.logger.Info("webhook body unreadable", zap.String("provider", string(provider)), zap.Error(err))
		writeError(c, pkg.NewDomainError("INVALID_REQUEST", "Invalid request body", err, http.StatusBadRequest))
		return
	}

	evt, err := h.usecase.HandleWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		writeError(c, mapWebhookError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromWebhookEvent(evt))
}

// mapWebhookError answers 401 for bad signatures; the sender is at fault, not our provider credentials.
func mapWebhookError(err error) *pkg.AppError {
	if entities.KindOf(err) == entities.ErrorKindAuth {
		return pkg.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed", err, http.StatusUnauthorized)
	}
	return pkg.FromNormalizedError(err)
}
