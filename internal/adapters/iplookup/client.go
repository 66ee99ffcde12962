package iplookup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	httppkg "github.com/lakiremit/checkout-service/pkg/http"
	"go.uber.org/zap"
)

// Default lookup services, tried in order. Best-effort: if all fail the
// payment proceeds without a client IP.
var DefaultProviders = []Provider{
	{URL: "https://api.ipify.org?format=json", JSONField: "ip"},
	{URL: "https://api64.ipify.org?format=json", JSONField: "ip"},
	{URL: "https://icanhazip.com", JSONField: ""},
}

// Provider is one IP lookup endpoint. JSONField names the field carrying the
// address; empty means the body is the bare address.
type Provider struct {
	URL       string
	JSONField string
}

// Client resolves the public client IP through a fallback chain of lookup
// services.
type Client struct {
	httpClient *http.Client
	providers  []Provider
	logger     *zap.Logger
}

// NewClient creates a lookup client over the default provider chain
func NewClient(logger *zap.Logger) *Client {
	return &Client{
		httpClient: httppkg.NewHTTPClient(httppkg.LookupClientConfig(), 5*time.Second),
		providers:  DefaultProviders,
		logger:     logger,
	}
}

// PublicIP tries each provider in order and returns the first address
// resolved. Returns "" when every provider fails; callers treat that as
// "unknown", never as an error.
func (c *Client) PublicIP(ctx context.Context) string {
	for _, provider := range c.providers {
		ip, err := c.lookup(ctx, provider)
		if err != nil {
			c.logger.Debug("ip lookup provider failed",
				zap.String("url", provider.URL),
				zap.Error(err))
			continue
		}
		if ip != "" {
			return ip
		}
	}

	c.logger.Warn("all ip lookup providers failed, proceeding without client ip")
	return ""
}

func (c *Client) lookup(ctx context.Context, provider Provider) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}

	if provider.JSONField == "" {
		return strings.TrimSpace(string(body)), nil
	}

	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	return payload[provider.JSONField], nil
}
