package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	appconfig "payment_binder/internal/config"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	paddleSandboxBaseURL = "https://sandbox-api.paddle.com"
	paddleLiveBaseURL    = "https://api.paddle.com"
)

var ErrMissingPaddleAPIKey = errors.New("missing paddle api key")

// PaddleGateway creates Paddle Billing transactions with a non-catalog price.
type PaddleGateway struct {
	client *restClient
	logger *zap.Logger
	// ProductName labels the inline product Paddle requires on non-catalog prices.
	ProductName string
}

var _ interfaces.IPaymentProvider = (*PaddleGateway)(nil)

type paddleTransactionRequest struct {
	Items          []paddleItem   `json:"items"`
	CurrencyCode   string         `json:"currency_code"`
	CollectionMode string         `json:"collection_mode"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
}

type paddleItem struct {
	Quantity int         `json:"quantity"`
	Price    paddlePrice `json:"price"`
}

type paddlePrice struct {
	Description string          `json:"description"`
	Name        string          `json:"name,omitempty"`
	UnitPrice   paddleMoney     `json:"unit_price"`
	Product     paddleProduct   `json:"product"`
	Quantity    *paddleQuantity `json:"quantity,omitempty"`
}

type paddleMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

type paddleProduct struct {
	Name        string `json:"name"`
	TaxCategory string `json:"tax_category"`
}

type paddleQuantity struct {
	Minimum int `json:"minimum"`
	Maximum int `json:"maximum"`
}

type paddleTransactionResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

type paddleErrorBody struct {
	Error struct {
		Type   string `json:"type"`
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"error"`
}

func NewPaddleGateway(cfg appconfig.ProviderConfig, logger *zap.Logger) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingPaddleAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = paddleSandboxBaseURL
		if cfg.IsLive() {
			baseURL = paddleLiveBaseURL
		}
	}
	log := logger.Named("paddle")
	apiKey := cfg.APIKey
	return &PaddleGateway{
		client: newRESTClient(entities.ProviderPaddle, baseURL, cfg.Timeout, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+apiKey)
		}, log),
		logger:      log,
		ProductName: "Payment",
	}, nil
}

func (g *PaddleGateway) Name() entities.ProviderName {
	return entities.ProviderPaddle
}

func (g *PaddleGateway) Charge(ctx context.Context, req entities.PaymentRequest) (entities.PaymentResult, error) {
	currency := strings.ToUpper(req.Currency)
	custom := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		custom[k] = v
	}
	custom["idempotency_key"] = req.IdempotencyKey

	description := req.Metadata["description"]
	if description == "" {
		description = "Payment " + req.IdempotencyKey
	}

	body := paddleTransactionRequest{
		Items: []paddleItem{{
			Quantity: 1,
			Price: paddlePrice{
				Description: description,
				UnitPrice: paddleMoney{
					Amount:       strconv.FormatInt(req.Amount, 10),
					CurrencyCode: currency,
				},
				Product:  paddleProduct{Name: g.ProductName, TaxCategory: "standard"},
				Quantity: &paddleQuantity{Minimum: 1, Maximum: 1},
			},
		}},
		CurrencyCode:   currency,
		CollectionMode: "automatic",
		CustomData:     custom,
	}

	resp, err := g.client.do(ctx, http.MethodPost, "/transactions", body, nil)
	if err != nil {
		return entities.PaymentResult{}, err
	}
	return g.transactionResult(resp, "transaction rejected")
}

// Fetch reads a transaction by its txn_ id.
func (g *PaddleGateway) Fetch(ctx context.Context, providerTransactionID string) (entities.PaymentResult, error) {
	resp, err := g.client.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(providerTransactionID), nil, nil)
	if err != nil {
		return entities.PaymentResult{}, err
	}
	return g.transactionResult(resp, "transaction lookup failed")
}

func (g *PaddleGateway) transactionResult(resp restResponse, failure string) (entities.PaymentResult, error) {
	if !isSuccess(resp.StatusCode) {
		nErr := classifyPaddleError(resp.StatusCode, resp.Body)
		g.logger.Info(failure, zap.Int("status", resp.StatusCode), zap.String("kind", string(nErr.Kind)), zap.String("code", nErr.ProviderCode))
		return entities.PaymentResult{}, nErr
	}

	var tx paddleTransactionResponse
	if err := json.Unmarshal(resp.Body, &tx); err != nil {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, "failed to decode paddle transaction", err).WithProvider(entities.ProviderPaddle, "")
	}

	return entities.PaymentResult{
		Provider:              entities.ProviderPaddle,
		ProviderTransactionID: tx.Data.ID,
		Status:                mapPaddleStatus(tx.Data.Status),
		RawProviderPayload:    resp.Body,
	}, nil
}

func mapPaddleStatus(s string) entities.PaymentStatus {
	switch s {
	case "paid", "completed":
		return entities.PaymentStatusSucceeded
	case "canceled":
		return entities.PaymentStatusFailed
	}
	return entities.PaymentStatusPending
}

func classifyPaddleError(status int, body []byte) *entities.NormalizedError {
	var eb paddleErrorBody
	_ = json.Unmarshal(body, &eb)
	code, msg := eb.Error.Code, eb.Error.Detail

	switch code {
	case "authentication_failed", "authentication_malformed", "authentication_missing", "forbidden", "invalid_token":
		return entities.NewNormalizedError(entities.ErrorKindAuth, nonEmpty(msg, "paddle authentication failed"), nil).WithProvider(entities.ProviderPaddle, code)
	case "too_many_requests":
		return entities.NewNormalizedError(entities.ErrorKindNetwork, nonEmpty(msg, "paddle rate limit reached"), nil).WithProvider(entities.ProviderPaddle, code)
	}
	if eb.Error.Type == "api_error" && status >= 500 {
		return entities.NewNormalizedError(entities.ErrorKindNetwork, nonEmpty(msg, "paddle api error"), nil).WithProvider(entities.ProviderPaddle, code)
	}
	if eb.Error.Type == "request_error" && status >= 400 && status < 500 && status != http.StatusUnauthorized &&
		status != http.StatusForbidden && status != http.StatusTooManyRequests {
		return entities.NewNormalizedError(entities.ErrorKindValidation, nonEmpty(msg, "paddle rejected the request"), nil).WithProvider(entities.ProviderPaddle, code)
	}
	return classifyStatus(entities.ProviderPaddle, status, code, nonEmpty(msg, fmt.Sprintf("paddle responded with status %d", status)))
}
