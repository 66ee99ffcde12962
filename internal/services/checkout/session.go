package checkout

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/pkg/observability"
)

// Session states. failed and success are terminal for one attempt; failed
// returns the session to the form for another try.
const (
	StateForm                  = "form"
	StateProcessing            = "processing"
	StatePendingAuthentication = "pending-authentication"
	StateSuccess               = "success"
	StateFailed                = "failed"
)

// Sub-phases surfaced as status while processing
const (
	PhaseIdle                 = ""
	PhaseInitializing         = "initializing"
	PhaseCollectingDeviceData = "collecting-device-data"
)

// deepLinkBase is the app return URL scheme for terminal results
const deepLinkBase = "lakiremit://payment-result"

// Session is one checkout form session: the state machine's mutable half.
// All transitions go through its methods so state and phase stay consistent
// under the concurrent resolution paths.
type Session struct {
	mu sync.Mutex

	id          string
	state       string
	phase       string
	attemptID   string
	transaction *models.TransactionSnapshot

	failureMessage string
	paymentID      string
	returnURL      string

	redirectConsumed bool
}

// NewSession creates a session in the form state
func NewSession(id string) *Session {
	return &Session{id: id, state: StateForm}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current state
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the current processing sub-phase
func (s *Session) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// AttemptID returns the id of the submission attempt in flight, or ""
func (s *Session) AttemptID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptID
}

// Transaction returns the loaded snapshot, or nil
func (s *Session) Transaction() *models.TransactionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transaction
}

// FailureMessage returns the message of the last failure, or ""
func (s *Session) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failureMessage
}

// PaymentID returns the gateway payment id of a successful checkout
func (s *Session) PaymentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentID
}

// ReturnURL returns the app deep link recorded on a terminal state, or ""
func (s *Session) ReturnURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.returnURL
}

func (s *Session) setTransaction(tx *models.TransactionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transaction = tx
}

func (s *Session) setPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// beginAttempt moves form|failed into processing and stamps a fresh attempt
// id. Returns "" when the session is not in a submittable state.
func (s *Session) beginAttempt(attemptID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateForm && s.state != StateFailed {
		return ""
	}
	s.state = StateProcessing
	s.phase = PhaseIdle
	s.attemptID = attemptID
	s.failureMessage = ""
	s.redirectConsumed = false
	return attemptID
}

// attemptCurrent reports whether the given attempt is still the one in
// flight; responses of superseded attempts are discarded.
func (s *Session) attemptCurrent(attemptID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptID == attemptID
}

func (s *Session) toPendingAuthentication() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StatePendingAuthentication
	s.phase = PhaseIdle
}

func (s *Session) toSuccess(paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateSuccess
	s.phase = PhaseIdle
	s.attemptID = ""
	s.paymentID = paymentID
	s.returnURL = fmt.Sprintf("%s?status=success&transactionId=%s", deepLinkBase, url.QueryEscape(paymentID))
	observability.RecordCheckoutState(StateSuccess)
}

func (s *Session) toFailed(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateFailed
	s.phase = PhaseIdle
	s.attemptID = ""
	s.failureMessage = message
	s.returnURL = fmt.Sprintf("%s?status=failed&message=%s", deepLinkBase, url.QueryEscape(message))
	observability.RecordCheckoutState(StateFailed)
}

// backToForm returns a failed or pending session to the form, keeping the
// failure message for display.
func (s *Session) backToForm(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateForm
	s.phase = PhaseIdle
	s.attemptID = ""
	s.failureMessage = message
}

// consumeRedirect marks the redirect query params consumed; only the first
// call per attempt returns true. beginAttempt re-arms the guard so a retried
// attempt can complete through a redirect of its own.
func (s *Session) consumeRedirect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redirectConsumed {
		return false
	}
	s.redirectConsumed = true
	return true
}
