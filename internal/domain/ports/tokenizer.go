package ports

import (
	"context"
)

// TokenizationResult is the opaque transient token (or hosted-session id)
// produced by one tokenization attempt, plus the optional detected card
// brand code. Discarded once the payment request consuming it completes or
// fails.
type TokenizationResult struct {
	Token     string
	BrandCode string
}

// CardTokenizer is the per-provider capability interface wrapping a
// hosted-fields SDK. Raw PAN/CVV never reaches this process; the vendor's
// frames hold the card data and exchange it for the transient token.
type CardTokenizer interface {
	// Initialize obtains a capture context from the backend, loads the
	// vendor script, and mounts the hosted fields.
	Initialize(ctx context.Context) error

	// TokenizeCard exchanges the hosted field contents plus expiry for a
	// transient token. Never returns an empty token without an error.
	TokenizeCard(ctx context.Context, expirationMonth, expirationYear string) (*TokenizationResult, error)

	// Initialized reports whether the hosted fields are mounted and ready
	Initialized() bool

	// Cleanup releases vendor resources on teardown
	Cleanup()
}

// ScriptLoader loads a vendor script into the hosting page and reports when
// its global is callable. Implementations verify the subresource integrity
// hash when one is supplied.
type ScriptLoader interface {
	Load(ctx context.Context, url, integrity string) error
}

// HostedFields is the vendor SDK surface the tokenizer drives once its
// script is loaded: mounting secure input frames and exchanging their
// contents for a token.
type HostedFields interface {
	// Mount renders the number and security-code fields into the hosting
	// page's containers
	Mount(ctx context.Context, captureContext string) error

	// CreateToken exchanges the mounted fields plus expiry for a transient
	// token via the vendor callback
	CreateToken(ctx context.Context, expirationMonth, expirationYear string) (string, error)

	// Teardown unmounts the vendor frames
	Teardown()
}
