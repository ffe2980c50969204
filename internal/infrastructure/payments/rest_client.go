package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"payment_binder/internal/domain/entities"

	"go.uber.org/zap"
)

const maxResponseBody = 1 << 20

// restClient is the JSON-over-HTTP plumbing shared by adapters without an SDK.
type restClient struct {
	provider   entities.ProviderName
	baseURL    string
	httpClient *http.Client
	authorize  func(*http.Request)
	logger     *zap.Logger
}

type restResponse struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func newRESTClient(provider entities.ProviderName, baseURL string, timeout time.Duration, authorize func(*http.Request), logger *zap.Logger) *restClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &restClient{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		authorize:  authorize,
		logger:     logger,
	}
}

// do sends body as JSON and returns the raw response. Only transport failures are returned as errors;
// classifying non-2xx statuses is left to the adapter, which knows the provider's error body.
func (c *restClient) do(ctx context.Context, method, path string, body any, headers map[string]string) (restResponse, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return restResponse{}, entities.NewNormalizedError(entities.ErrorKindValidation, "failed to encode provider request", err).WithProvider(c.provider, "")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return restResponse{}, entities.NewNormalizedError(entities.ErrorKindUnknown, "failed to build provider request", err).WithProvider(c.provider, "")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authorize != nil {
		c.authorize(req)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("provider request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return restResponse{}, transportError(c.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return restResponse{}, transportError(c.provider, err)
	}
	c.logger.Debug("provider request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return restResponse{StatusCode: resp.StatusCode, Body: respBody, Header: resp.Header}, nil
}

// transportError maps a failed round trip to kind=network. Context cancellation is network too:
// the request may or may not have reached the provider.
func transportError(provider entities.ProviderName, err error) *entities.NormalizedError {
	msg := "provider unreachable"
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		msg = "provider request timed out"
	case errors.Is(err, context.Canceled):
		msg = "provider request cancelled"
	}
	return entities.NewNormalizedError(entities.ErrorKindNetwork, msg, err).WithProvider(provider, "")
}

// classifyStatus is the status-code fallback used when a provider error body carries no better hint.
func classifyStatus(provider entities.ProviderName, status int, code, message string) *entities.NormalizedError {
	if message == "" {
		message = fmt.Sprintf("provider responded with status %d", status)
	}
	var kind entities.ErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = entities.ErrorKindAuth
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		kind = entities.ErrorKindNetwork
	case status == http.StatusPaymentRequired:
		kind = entities.ErrorKindProviderRejected
	case status >= 400:
		kind = entities.ErrorKindValidation
	default:
		kind = entities.ErrorKindUnknown
	}
	return entities.NewNormalizedError(kind, message, nil).WithProvider(provider, code)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
