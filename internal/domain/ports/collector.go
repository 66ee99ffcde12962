package ports

import (
	"context"

	"github.com/lakiremit/checkout-service/internal/domain/models"
)

// DeviceCollector drives the hidden device-data-collection frame and waits
// for the fraud-detection provider's completion signal.
type DeviceCollector interface {
	// SessionID returns the fingerprint session id for this form session.
	// Stable once emitted to the collection frame.
	SessionID() string

	// Collect submits the collection form and blocks until the provider
	// confirms, the bound expires, or ctx is done. Expiry is not an error:
	// the returned fingerprint has Confirmed=false and the payment proceeds
	// best-effort.
	Collect(ctx context.Context, accessToken, collectionURL string) (*models.DeviceFingerprint, error)

	// Collected reports whether a confirmed fingerprint already exists for
	// this form session
	Collected() bool

	// SetTelemetry records the browser telemetry to attach to collected
	// fingerprints
	SetTelemetry(info models.DeviceInfo)

	// Fingerprint returns the current fingerprint snapshot without running
	// collection
	Fingerprint() *models.DeviceFingerprint
}

// ChallengePresenter renders the step-up challenge and resolves on either
// of its redundant completion signals.
type ChallengePresenter interface {
	// Present submits the step-up form once and blocks until the challenge
	// resolves or ctx/the resolution bound expires
	Present(ctx context.Context) (*models.ChallengeOutcome, error)
}

// PresenterFactory builds a presenter for one challenge context
type PresenterFactory func(challenge *models.ChallengeContext) ChallengePresenter
