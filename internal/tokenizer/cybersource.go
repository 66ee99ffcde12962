package tokenizer

import (
	"context"
	"sync"

	"github.com/lakiremit/checkout-service/internal/domain/ports"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	"go.uber.org/zap"
)

// CybersourceTokenizer drives the Cybersource Microform hosted fields: it
// fetches a capture context, loads the vendor client library with integrity
// verification, mounts the secure fields, and exchanges their contents for a
// transient token.
type CybersourceTokenizer struct {
	api           ports.PaymentAPI
	loader        ports.ScriptLoader
	fields        ports.HostedFields
	transactionID string
	logger        *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// NewCybersourceTokenizer creates a tokenizer bound to one transaction
func NewCybersourceTokenizer(
	api ports.PaymentAPI,
	loader ports.ScriptLoader,
	fields ports.HostedFields,
	transactionID string,
	logger *zap.Logger,
) *CybersourceTokenizer {
	return &CybersourceTokenizer{
		api:           api,
		loader:        loader,
		fields:        fields,
		transactionID: transactionID,
		logger:        logger,
	}
}

// Initialize fetches the capture context, loads the vendor library named in
// it, and mounts the hosted fields.
func (t *CybersourceTokenizer) Initialize(ctx context.Context) error {
	resp, err := t.api.CheckoutToken(ctx, t.transactionID, ProviderCybersource)
	if err != nil {
		return apperrors.NewTokenizationError("checkout token fetch failed", err)
	}
	if resp.Token == "" {
		return apperrors.NewTokenizationError("empty capture context", nil)
	}

	libraryURL, integrity, err := captureContextLibrary(resp.Token)
	if err != nil {
		return apperrors.NewTokenizationError("capture context decode failed", err)
	}

	if err := t.loader.Load(ctx, libraryURL, integrity); err != nil {
		return apperrors.NewTokenizationError("vendor script load failed", err)
	}

	if err := t.fields.Mount(ctx, resp.Token); err != nil {
		return apperrors.NewTokenizationError("hosted field mount failed", err)
	}

	t.mu.Lock()
	t.initialized = true
	t.mu.Unlock()

	t.logger.Info("hosted fields initialized",
		zap.String("transaction_id", t.transactionID),
		zap.String("client_library", libraryURL))
	return nil
}

// TokenizeCard exchanges the mounted field contents plus expiry for a
// transient token. The brand code is read from the token when present.
func (t *CybersourceTokenizer) TokenizeCard(ctx context.Context, expirationMonth, expirationYear string) (*ports.TokenizationResult, error) {
	if !t.Initialized() {
		return nil, apperrors.NewTokenizationError("hosted fields not initialized", nil)
	}

	token, err := t.fields.CreateToken(ctx, expirationMonth, expirationYear)
	if err != nil {
		return nil, apperrors.NewTokenizationError("card entry rejected", err)
	}
	if token == "" {
		return nil, apperrors.NewTokenizationError("empty transient token", nil)
	}

	return &ports.TokenizationResult{
		Token:     token,
		BrandCode: transientTokenBrand(token),
	}, nil
}

// Initialized reports whether the hosted fields are mounted
func (t *CybersourceTokenizer) Initialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized
}

// Cleanup unmounts the vendor frames
func (t *CybersourceTokenizer) Cleanup() {
	t.mu.Lock()
	wasInitialized := t.initialized
	t.initialized = false
	t.mu.Unlock()

	if wasInitialized {
		t.fields.Teardown()
	}
}
