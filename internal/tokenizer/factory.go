package tokenizer

import (
	"fmt"

	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"go.uber.org/zap"
)

// Supported payment providers
const (
	ProviderCybersource = "cybersource"
	ProviderMastercard  = "mastercard"
)

// Config carries the provider-independent inputs of a tokenizer
type Config struct {
	API           ports.PaymentAPI
	Loader        ports.ScriptLoader
	Fields        ports.HostedFields
	TransactionID string

	// GatewayHost is only consulted for the Mastercard provider
	GatewayHost string

	Logger *zap.Logger
}

// New builds the tokenizer for the named provider. The rest of the flow
// depends only on ports.CardTokenizer; provider differences end here.
func New(provider string, cfg Config) (ports.CardTokenizer, error) {
	switch provider {
	case ProviderCybersource:
		return NewCybersourceTokenizer(cfg.API, cfg.Loader, cfg.Fields, cfg.TransactionID, cfg.Logger), nil
	case ProviderMastercard:
		return NewMastercardTokenizer(cfg.API, cfg.Loader, cfg.Fields, cfg.TransactionID, cfg.GatewayHost, cfg.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider: %q", provider)
	}
}
