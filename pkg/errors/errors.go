package errors

import (
	"fmt"
	"strings"
	"time"
)

// TokenizationError is returned when the hosted-fields vendor rejects the
// card entry (invalid field, vendor error payload, empty token).
type TokenizationError struct {
	Reason string
	Err    error
}

func (e *TokenizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tokenization failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("tokenization failed: %s", e.Reason)
}

func (e *TokenizationError) Unwrap() error { return e.Err }

// NewTokenizationError creates a new tokenization error
func NewTokenizationError(reason string, err error) *TokenizationError {
	return &TokenizationError{Reason: reason, Err: err}
}

// AuthSetupError is returned when the backend authentication-setup call
// reports non-success or omits the consumer authentication payload.
type AuthSetupError struct {
	Message string
	Err     error
}

func (e *AuthSetupError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication setup failed: %s", e.Message)
	}
	return fmt.Sprintf("authentication setup failed: %v", e.Err)
}

func (e *AuthSetupError) Unwrap() error { return e.Err }

// NewAuthSetupError creates a new auth setup error
func NewAuthSetupError(message string, err error) *AuthSetupError {
	return &AuthSetupError{Message: message, Err: err}
}

// MissingChallengeDataError is returned when a submission response reports
// PENDING_AUTHENTICATION but omits one or more of the fields required to
// present the step-up challenge.
type MissingChallengeDataError struct {
	Missing []string
}

func (e *MissingChallengeDataError) Error() string {
	return fmt.Sprintf("missing challenge data from payment response: %s", strings.Join(e.Missing, ", "))
}

// NewMissingChallengeDataError creates an error naming the absent fields
func NewMissingChallengeDataError(missing ...string) *MissingChallengeDataError {
	return &MissingChallengeDataError{Missing: missing}
}

// ChallengeDeliveryError is returned when the step-up form cannot be
// delivered into the challenge frame.
type ChallengeDeliveryError struct {
	Err error
}

func (e *ChallengeDeliveryError) Error() string {
	return fmt.Sprintf("challenge delivery failed: %v", e.Err)
}

func (e *ChallengeDeliveryError) Unwrap() error { return e.Err }

// ChallengeTimeoutError is returned when neither resolution signal arrives
// within the configured bound.
type ChallengeTimeoutError struct {
	After time.Duration
}

func (e *ChallengeTimeoutError) Error() string {
	return fmt.Sprintf("challenge did not resolve within %s", e.After)
}

// CompletionError is returned when the post-challenge completion call fails
// or reports non-success.
type CompletionError struct {
	Message string
	Err     error
}

func (e *CompletionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment completion failed: %s", e.Message)
	}
	return fmt.Sprintf("payment completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// NewCompletionError creates a new completion error
func NewCompletionError(message string, err error) *CompletionError {
	return &CompletionError{Message: message, Err: err}
}

// StaleChallengeStateError is returned when a challenge resolves but no
// persisted pending payment data exists to complete it with.
type StaleChallengeStateError struct{}

func (e *StaleChallengeStateError) Error() string {
	return "payment data not found for resolved challenge"
}

// BackendError carries a backend-supplied error message verbatim alongside
// the endpoint that produced it.
type BackendError struct {
	Endpoint string
	Message  string
	Status   int
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s: request failed with status %d", e.Endpoint, e.Status)
}

// NewBackendError creates a new backend error
func NewBackendError(endpoint, message string, status int) *BackendError {
	return &BackendError{Endpoint: endpoint, Message: message, Status: status}
}
