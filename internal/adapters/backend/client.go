package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	httppkg "github.com/lakiremit/checkout-service/pkg/http"
	"github.com/lakiremit/checkout-service/pkg/observability"
	"github.com/lakiremit/checkout-service/pkg/resilience"
	"go.uber.org/zap"
)

// Payment API endpoints
const (
	endpointCheckoutToken   = "/api/v1/payment/checkout-token"
	endpointUserTransaction = "/api/v1/transaction/user"
	endpointAuthSetup       = "/api/v1/payment/combined-init"
	endpointSubmit          = "/api/v1/payment/combined"
	endpointCompletion      = "/api/v1/payment/combined-after-challenge"
)

// Client is the JSON/HTTPS payment API adapter. Every call carries a fresh
// X-Request-Id so backend logs can be correlated per attempt rather than per
// page load.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	timeouts   *resilience.TimeoutConfig
	logger     *zap.Logger
}

// NewClient creates a payment API client. authToken is optional; when set it
// is sent as a bearer credential.
func NewClient(baseURL, authToken string, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: httppkg.NewHTTPClient(httppkg.BackendClientConfig(), timeouts.BackendAPI),
		timeouts:   timeouts,
		logger:     logger,
	}
}

// CheckoutToken obtains the provider capture context or hosted session
func (c *Client) CheckoutToken(ctx context.Context, transactionID, provider string) (*models.CheckoutTokenResponse, error) {
	body := map[string]string{
		"transactionId": transactionID,
		"provider":      provider,
	}

	var resp models.CheckoutTokenResponse
	if err := c.post(ctx, endpointCheckoutToken, body, &resp); err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, apperrors.NewBackendError(endpointCheckoutToken, resp.FailureMessage(), http.StatusOK)
	}
	return &resp, nil
}

// UserTransaction fetches the read-only transaction snapshot by id
func (c *Client) UserTransaction(ctx context.Context, transactionID string) (*models.TransactionSnapshot, error) {
	endpoint := fmt.Sprintf("%s/%s", endpointUserTransaction, transactionID)

	var resp models.TransactionListResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, apperrors.NewBackendError(endpointUserTransaction, resp.FailureMessage(), http.StatusOK)
	}
	if len(resp.Transactions) == 0 {
		return nil, apperrors.NewBackendError(endpointUserTransaction, "transaction not found", http.StatusOK)
	}
	return &resp.Transactions[0], nil
}

// AuthenticationSetup performs 3DS authentication setup
func (c *Client) AuthenticationSetup(ctx context.Context, req *models.AuthSetupRequest) (*models.AuthenticationSetup, error) {
	var resp models.AuthSetupResponse
	if err := c.post(ctx, endpointAuthSetup, req, &resp); err != nil {
		return nil, apperrors.NewAuthSetupError("", err)
	}
	if !resp.IsSuccess() {
		return nil, apperrors.NewAuthSetupError(resp.FailureMessage(), nil)
	}
	if resp.AuthenticationSetup == nil || resp.AuthenticationSetup.ConsumerAuthenticationInformation == nil {
		return nil, apperrors.NewAuthSetupError("response missing consumer authentication information", nil)
	}
	return resp.AuthenticationSetup, nil
}

// SubmitPayment submits the combined payment request
func (c *Client) SubmitPayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	var resp models.PaymentSubmitResponse
	if err := c.post(ctx, endpointSubmit, req, &resp); err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, apperrors.NewBackendError(endpointSubmit, resp.FailureMessage(), http.StatusOK)
	}
	if resp.PaymentResponse == nil {
		return nil, apperrors.NewBackendError(endpointSubmit, "response missing payment payload", http.StatusOK)
	}
	return resp.PaymentResponse, nil
}

// CompletePayment finishes a challenged payment
func (c *Client) CompletePayment(ctx context.Context, req *models.CompletionRequest) (*models.PaymentResponse, error) {
	var resp models.PaymentSubmitResponse
	if err := c.post(ctx, endpointCompletion, req, &resp); err != nil {
		return nil, apperrors.NewCompletionError("", err)
	}
	if !resp.IsSuccess() {
		return nil, apperrors.NewCompletionError(resp.FailureMessage(), nil)
	}
	if resp.PaymentResponse == nil {
		return nil, apperrors.NewCompletionError("response missing payment payload", nil)
	}
	return resp.PaymentResponse, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", endpoint, err)
	}
	return c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), out)
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, out interface{}) error {
	callCtx, cancel := c.timeouts.BackendAPIContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.ObserveBackendRequest(endpoint, time.Since(start))
	if err != nil {
		c.logger.Error("payment api request failed",
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID),
			zap.Error(err))
		return apperrors.NewBackendError(endpoint, err.Error(), 0)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewBackendError(endpoint, "reading response body", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := backendErrorMessage(raw)
		c.logger.Error("payment api returned error status",
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		return apperrors.NewBackendError(endpoint, message, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewBackendError(endpoint, "malformed response body", resp.StatusCode)
	}

	c.logger.Debug("payment api request completed",
		zap.String("endpoint", endpoint),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// backendErrorMessage pulls a usable message out of a non-2xx body when the
// backend sent its usual envelope; otherwise the status alone is surfaced.
func backendErrorMessage(raw []byte) string {
	var envelope models.ResultEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.FailureMessage()
}
