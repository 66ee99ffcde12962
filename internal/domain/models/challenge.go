package models

// ChallengeContext holds everything needed to present a step-up challenge.
// Created when a submission reports PENDING_AUTHENTICATION; destroyed when
// the challenge resolves or the flow is abandoned.
type ChallengeContext struct {
	// StepUpURL is the issuing bank's challenge page
	StepUpURL string

	// AccessToken is the one-time JWT posted into the step-up form
	AccessToken string

	// Pareq is used only to derive the challenge window size
	Pareq string

	// AuthenticationTransactionID correlates the eventual outcome
	AuthenticationTransactionID string

	// TransactionID is the gateway payment id at submission time
	TransactionID string
}

// ChallengeOutcome is what a resolved challenge reports back: the
// post-challenge authentication transaction id and the optional session
// correlator.
type ChallengeOutcome struct {
	TransactionID string
	MD            string
	Status        string
}

// Challenge outcome statuses
const (
	ChallengeStatusSuccess = "success"
	ChallengeStatusError   = "error"
)

// PendingChallengeData is the accumulated payment payload persisted to
// durable storage immediately before the browser may navigate away to the
// bank's step-up page. It must be removed from storage exactly once, after
// either success or terminal failure.
type PendingChallengeData struct {
	AuthenticationTransactionID string `json:"authenticationTransactionId,omitempty"`
	TransactionID               string `json:"transactionID,omitempty"`
	Currency                    string `json:"currency"`
	TotalAmount                 string `json:"totalAmount"`
	TransientToken              string `json:"transientToken"`
	MerchantReference           string `json:"merchantReference"`
	EcommerceIndicatorAuth      string `json:"ecommerceIndicatorAuth"`
	FirstName                   string `json:"firstName"`
	LastName                    string `json:"lastName"`
	Email                       string `json:"email"`
	BillingAddress
	DeviceInfo
}

// PendingChallengeKey is the single durable-storage slot holding pending
// challenge data; one challenge can be in flight per session at a time.
const PendingChallengeKey = "challengeData"

// DeviceFingerprint is the device-collection result attached to payment
// requests. SessionID is generated locally once per form session and must
// not change after it has been emitted to the collection frame.
type DeviceFingerprint struct {
	SessionID string
	DeviceInfo
	// Confirmed is false when collection timed out and the flow proceeded
	// best-effort
	Confirmed bool
}
