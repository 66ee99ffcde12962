package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the checkout flow's timeout
// hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	Checkout submission (5m, dominated by the optional step-up challenge)
//	  ↓
//	Challenge resolution (4m - cardholder interaction with the bank page)
//	  ↓
//	Device data collection (10s - best-effort, flow proceeds on expiry)
//	  ↓
//	Backend API call (30s)
//
// Each inner layer completes before its parent times out, so a stuck vendor
// frame can never leave a session in processing forever.
type TimeoutConfig struct {
	// Overall submission timeout, challenge included
	Submission time.Duration

	// Challenge resolution bound: no postMessage or URL-poll signal within
	// this window fails the challenge
	ChallengeResolution time.Duration

	// Device data collection bound. Expiry is not fatal; the payment is
	// submitted without a confirmed fingerprint.
	DeviceCollection time.Duration

	// Backend API calls (auth-setup, submission, completion)
	BackendAPI time.Duration

	// HTTP handler timeout for the relay endpoints
	HTTPHandler time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Submission:          5 * time.Minute,
		ChallengeResolution: 4 * time.Minute,
		DeviceCollection:    10 * time.Second,
		BackendAPI:          30 * time.Second,
		HTTPHandler:         60 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Submission:          5 * time.Second,
		ChallengeResolution: 2 * time.Second,
		DeviceCollection:    200 * time.Millisecond,
		BackendAPI:          1 * time.Second,
		HTTPHandler:         5 * time.Second,
	}
}

// SubmissionContext creates a context covering one full submission attempt
func (tc *TimeoutConfig) SubmissionContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Submission)
}

// ChallengeContext creates a context bounding challenge resolution
func (tc *TimeoutConfig) ChallengeContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ChallengeResolution)
}

// DeviceCollectionContext creates a context bounding device data collection
func (tc *TimeoutConfig) DeviceCollectionContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.DeviceCollection)
}

// BackendAPIContext creates a context for backend API calls
func (tc *TimeoutConfig) BackendAPIContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.BackendAPI)
}
