package handlers

import (
	"errors"
	"net/http"

	"payment_binder/internal/adapter/http/dto/request"
	"payment_binder/internal/adapter/http/dto/response"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase"
	"payment_binder/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	usecase usecase.IPaymentDispatchUseCase
	logger  *zap.Logger
}

func NewPaymentHandler(uc usecase.IPaymentDispatchUseCase, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{usecase: uc, logger: logger.Named("payment_handler")}
}

// CreatePayment godoc
// @Summary      Charge through a provider
// @Description  Submits a charge once per idempotency key. Replays return the stored outcome.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        provider         path    string                          true   "paddle, razorpay, stripe or mercadopago"
// @Param        Idempotency-Key  header  string                          false  "used when the body has no idempotency_key"
// @Param        payment          body    request.PaymentCreateRequest    true   "charge"
// @Success      200  {object}  response.PaymentResponse
// @Success      202  {object}  response.PaymentResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      402  {object}  pkg.HTTPError
// @Failure      502  {object}  pkg.HTTPError
// @Failure      503  {object}  pkg.HTTPError
// @Router       /payments/{provider} [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	provider, err := entities.ParseProviderName(c.Param("provider"))
	if err != nil {
		writeError(c, pkg.FromNormalizedError(err))
		return
	}

	var body request.PaymentCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Info("invalid payment payload", zap.String("provider", string(provider)), zap.Error(err))
		writeError(c, pkg.NewDomainError("INVALID_REQUEST", "Invalid request body", err, http.StatusBadRequest))
		return
	}
	req := body.ToEntity(c.GetHeader(HeaderIdempotencyKey))
	log := h.logger.With(zap.String("provider", string(provider)), zap.String("idempotency_key", req.IdempotencyKey))
	log.Debug("create start")

	res, err := h.usecase.Submit(c.Request.Context(), provider, req)
	if err != nil {
		appErr := pkg.FromNormalizedError(err)
		log.Info("create failed", zap.Int("status", appErr.HTTPStatus), zap.Error(err))
		writeError(c, appErr)
		return
	}
	log.Info("create success", zap.String("provider_transaction_id", res.ProviderTransactionID), zap.String("status", string(res.Status)))

	status := http.StatusOK
	if res.Status == entities.PaymentStatusPending {
		status = http.StatusAccepted
	}
	c.JSON(status, response.FromPaymentResult(res, req.IdempotencyKey))
}

// GetTransaction godoc
// @Summary      Current provider status of a transaction
// @Description  Reads the transaction from the provider. The stored idempotency outcome is left unchanged.
// @Tags         payments
// @Produce      json
// @Param        provider  path  string  true  "paddle, razorpay, stripe or mercadopago"
// @Param        id        path  string  true  "provider transaction id"
// @Success      200  {object}  response.PaymentResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      502  {object}  pkg.HTTPError
// @Failure      503  {object}  pkg.HTTPError
// @Router       /payments/{provider}/transactions/{id} [get]
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	provider, err := entities.ParseProviderName(c.Param("provider"))
	if err != nil {
		writeError(c, pkg.FromNormalizedError(err))
		return
	}
	id := c.Param("id")

	res, err := h.usecase.Refresh(c.Request.Context(), provider, id)
	if err != nil {
		appErr := pkg.FromNormalizedError(err)
		h.logger.Info("refresh failed", zap.String("provider", string(provider)), zap.String("provider_transaction_id", id), zap.Int("status", appErr.HTTPStatus), zap.Error(err))
		writeError(c, appErr)
		return
	}
	c.JSON(http.StatusOK, response.FromPaymentResult(res, ""))
}

// GetIdempotencyRecord godoc
// @Summary      Stored outcome for an idempotency key
// @Tags         payments
// @Produce      json
// @Param        key  path  string  true  "idempotency key"
// @Success      200  {object}  response.IdempotencyRecordResponse
// @Failure      404  {object}  pkg.HTTPError
// @Router       /payments/idempotency/{key} [get]
func (h *PaymentHandler) GetIdempotencyRecord(c *gin.Context) {
	key := c.Param("key")

	rec, err := h.usecase.Lookup(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrIdempotencyRecordNotFound):
			writeError(c, pkg.NewDomainErrorSimple("IDEMPOTENCY_RECORD_NOT_FOUND", "No outcome is stored for this key", http.StatusNotFound))
		case errors.Is(err, usecase.ErrInvalidIdempotencyKey):
			writeError(c, pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid idempotency key", http.StatusBadRequest))
		default:
			h.logger.Error("idempotency lookup failed", zap.String("idempotency_key", key), zap.Error(err))
			writeError(c, pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, response.FromIdempotencyRecord(rec))
}

// ListProviders godoc
// @Summary      Configured providers
// @Tags         payments
// @Produce      json
// @Success      200  {object}  response.ProvidersResponse
// @Router       /payments/providers [get]
func (h *PaymentHandler) ListProviders(c *gin.Context) {
	names := h.usecase.Providers()
	out := response.ProvidersResponse{Providers: make([]string, 0, len(names))}
	for _, n := range names {
		out.Providers = append(out.Providers, string(n))
	}
	c.JSON(http.StatusOK, out)
}

func writeError(c *gin.Context, appErr *pkg.AppError) {
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}
