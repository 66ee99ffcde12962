package tokenizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/lakiremit/checkout-service/internal/domain/ports"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	"go.uber.org/zap"
)

// MastercardTokenizer drives the Mastercard Gateway hosted session: the
// gateway issues a session id up front, the hosted fields write the card data
// into that session, and the session id itself is the token submitted with
// the payment.
type MastercardTokenizer struct {
	api           ports.PaymentAPI
	loader        ports.ScriptLoader
	fields        ports.HostedFields
	transactionID string
	gatewayHost   string
	logger        *zap.Logger

	mu          sync.Mutex
	initialized bool
	sessionID   string
}

// NewMastercardTokenizer creates a tokenizer bound to one transaction.
// gatewayHost is the Mastercard Gateway host serving the session script.
func NewMastercardTokenizer(
	api ports.PaymentAPI,
	loader ports.ScriptLoader,
	fields ports.HostedFields,
	transactionID, gatewayHost string,
	logger *zap.Logger,
) *MastercardTokenizer {
	return &MastercardTokenizer{
		api:           api,
		loader:        loader,
		fields:        fields,
		transactionID: transactionID,
		gatewayHost:   gatewayHost,
		logger:        logger,
	}
}

// Initialize fetches the hosted session, loads the gateway session script
// for the issuing merchant, and mounts the hosted fields against the session.
func (t *MastercardTokenizer) Initialize(ctx context.Context) error {
	resp, err := t.api.CheckoutToken(ctx, t.transactionID, ProviderMastercard)
	if err != nil {
		return apperrors.NewTokenizationError("checkout token fetch failed", err)
	}
	if resp.SessionID == "" || resp.MerchantID == "" {
		return apperrors.NewTokenizationError("hosted session response incomplete", nil)
	}

	scriptURL := fmt.Sprintf("https://%s/form/version/100/merchant/%s/session.js", t.gatewayHost, resp.MerchantID)
	// The gateway does not publish an integrity hash for session.js
	if err := t.loader.Load(ctx, scriptURL, ""); err != nil {
		return apperrors.NewTokenizationError("gateway script load failed", err)
	}

	if err := t.fields.Mount(ctx, resp.SessionID); err != nil {
		return apperrors.NewTokenizationError("hosted field mount failed", err)
	}

	t.mu.Lock()
	t.initialized = true
	t.sessionID = resp.SessionID
	t.mu.Unlock()

	t.logger.Info("hosted session initialized",
		zap.String("transaction_id", t.transactionID),
		zap.String("merchant_id", resp.MerchantID))
	return nil
}

// TokenizeCard updates the hosted session with the field contents plus
// expiry. The session id is the token; the gateway does not report a
// detected brand.
func (t *MastercardTokenizer) TokenizeCard(ctx context.Context, expirationMonth, expirationYear string) (*ports.TokenizationResult, error) {
	t.mu.Lock()
	initialized := t.initialized
	sessionID := t.sessionID
	t.mu.Unlock()

	if !initialized {
		return nil, apperrors.NewTokenizationError("hosted session not initialized", nil)
	}

	token, err := t.fields.CreateToken(ctx, expirationMonth, expirationYear)
	if err != nil {
		return nil, apperrors.NewTokenizationError("card entry rejected", err)
	}
	if token == "" {
		// A successful session update keeps the original session id
		token = sessionID
	}

	return &ports.TokenizationResult{Token: token}, nil
}

// Initialized reports whether the hosted session is mounted
func (t *MastercardTokenizer) Initialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized
}

// Cleanup unmounts the gateway frames
func (t *MastercardTokenizer) Cleanup() {
	t.mu.Lock()
	wasInitialized := t.initialized
	t.initialized = false
	t.mu.Unlock()

	if wasInitialized {
		t.fields.Teardown()
	}
}
