package ports

import (
	"context"

	"github.com/lakiremit/checkout-service/internal/domain/models"
)

// PaymentAPI is the opaque backend payment service consumed over JSON/HTTPS
type PaymentAPI interface {
	// CheckoutToken obtains the provider capture context (Cybersource) or
	// hosted session (Mastercard) for a transaction
	CheckoutToken(ctx context.Context, transactionID, provider string) (*models.CheckoutTokenResponse, error)

	// UserTransaction fetches the read-only transaction snapshot by id
	UserTransaction(ctx context.Context, transactionID string) (*models.TransactionSnapshot, error)

	// AuthenticationSetup performs 3DS authentication setup, yielding the
	// device-data-collection access token and URL
	AuthenticationSetup(ctx context.Context, req *models.AuthSetupRequest) (*models.AuthenticationSetup, error)

	// SubmitPayment submits the combined payment request. A nil error with
	// status PENDING_AUTHENTICATION means a step-up challenge is required.
	SubmitPayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error)

	// CompletePayment finishes a challenged payment using the post-challenge
	// authentication transaction id
	CompletePayment(ctx context.Context, req *models.CompletionRequest) (*models.PaymentResponse, error)
}
