package models

// BillingAddress carries the billing fields of a payment request, using the
// payment API's billTo naming.
type BillingAddress struct {
	Address1   string `json:"billToAddress1"`
	Address2   string `json:"billToAddress2,omitempty"`
	City       string `json:"billToCity"`
	State      string `json:"billToState,omitempty"`
	PostalCode string `json:"billToPostalCode"`
	Country    string `json:"billToCountry"`
}

// DeviceInfo is the browser/device telemetry block attached to payment
// requests. The fingerprint session id is aliased across the legacy field
// names the backend accepts.
type DeviceInfo struct {
	IPAddress             string `json:"ipAddress"`
	DeviceIPAddress       string `json:"deviceIpAddress"`
	FingerprintSessionID  string `json:"fingerprintSessionId"`
	DeviceFingerprintID   string `json:"deviceFingerprintId"`
	CardinalSessionID     string `json:"cardinalSessionId"`
	DeviceSessionID       string `json:"deviceSessionId"`
	HTTPAcceptBrowser     string `json:"httpAcceptBrowserValue,omitempty"`
	HTTPAcceptContent     string `json:"httpAcceptContent,omitempty"`
	BrowserLanguage       string `json:"httpBrowserLanguage,omitempty"`
	BrowserJavaEnabled    bool   `json:"httpBrowserJavaEnabled"`
	BrowserJSEnabled      bool   `json:"httpBrowserJavaScriptEnabled"`
	BrowserColorDepth     string `json:"httpBrowserColorDepth,omitempty"`
	BrowserScreenHeight   string `json:"httpBrowserScreenHeight,omitempty"`
	BrowserScreenWidth    string `json:"httpBrowserScreenWidth,omitempty"`
	BrowserTimeDifference string `json:"httpBrowserTimeDifference,omitempty"`
	UserAgentBrowserValue string `json:"userAgentBrowserValue,omitempty"`
	DeviceUserAgent       string `json:"deviceUserAgent,omitempty"`
}

// AliasSessionID sets the fingerprint session id across every accepted field
// name.
func (d *DeviceInfo) AliasSessionID(sessionID string) {
	d.FingerprintSessionID = sessionID
	d.DeviceFingerprintID = sessionID
	d.CardinalSessionID = sessionID
	d.DeviceSessionID = sessionID
}

// AuthSetupRequest is the body of POST /payment/combined-init
type AuthSetupRequest struct {
	TransientToken         string `json:"transientToken"`
	CardHolder             string `json:"cardHolder"`
	Currency               string `json:"currency"`
	TotalAmount            string `json:"totalAmount"`
	PAReference            string `json:"paReference,omitempty"`
	ReturnURL              string `json:"returnUrl"`
	MerchantReference      string `json:"merchantReference"`
	EcommerceIndicatorAuth string `json:"ecommerceIndicatorAuth"`
	IsSaveCard             bool   `json:"isSaveCard"`
	CardType               string `json:"cardType,omitempty"`
	CardTypeName           string `json:"cardTypeName,omitempty"`
	FirstName              string `json:"firstName"`
	LastName               string `json:"lastName"`
	Email                  string `json:"email"`
	BillingAddress
}

// ConsumerAuthenticationInformation is the nested 3DS block the payment API
// returns from both auth setup and payment submission.
type ConsumerAuthenticationInformation struct {
	AccessToken                 string `json:"accessToken,omitempty"`
	DeviceDataCollectionURL     string `json:"deviceDataCollectionUrl,omitempty"`
	ReferenceID                 string `json:"referenceId,omitempty"`
	StepUpURL                   string `json:"stepUpUrl,omitempty"`
	Pareq                       string `json:"pareq,omitempty"`
	AuthenticationTransactionID string `json:"authenticationTransactionId,omitempty"`
}

// ClientReferenceInformation carries the merchant reference code
type ClientReferenceInformation struct {
	Code string `json:"code,omitempty"`
}

// AuthenticationSetup is the payload of a successful combined-init call
type AuthenticationSetup struct {
	Status                            string                             `json:"status,omitempty"`
	ConsumerAuthenticationInformation *ConsumerAuthenticationInformation `json:"consumerAuthenticationInformation,omitempty"`
	ClientReferenceInformation        *ClientReferenceInformation        `json:"clientReferenceInformation,omitempty"`
}

// AuthSetupResponse is the envelope of POST /payment/combined-init
type AuthSetupResponse struct {
	ResultEnvelope
	AuthenticationSetup *AuthenticationSetup `json:"authenticationSetup,omitempty"`
}

// PaymentRequest is the body of POST /payment/combined
type PaymentRequest struct {
	TransientToken         string `json:"transientToken,omitempty"`
	FlexResponse           string `json:"flexResponse,omitempty"`
	SessionID              string `json:"sessionId,omitempty"`
	CardHolder             string `json:"cardHolder"`
	Currency               string `json:"currency"`
	TotalAmount            string `json:"totalAmount"`
	ReturnURL              string `json:"returnUrl"`
	MerchantReference      string `json:"merchantReference"`
	EcommerceIndicatorAuth string `json:"ecommerceIndicatorAuth"`
	FirstName              string `json:"firstName"`
	LastName               string `json:"lastName"`
	Email                  string `json:"email"`
	SaveCard               bool   `json:"saveCard"`
	BillingAddress
	DeviceInfo
}

// PaymentStatusPendingAuthentication is the submission status requiring a
// step-up challenge before the payment can complete.
const PaymentStatusPendingAuthentication = "PENDING_AUTHENTICATION"

// PaymentResponse is the paymentResponse payload of submission and
// completion calls.
type PaymentResponse struct {
	ID                                string                             `json:"id,omitempty"`
	TransactionID                     string                             `json:"transactionId,omitempty"`
	Status                            string                             `json:"status,omitempty"`
	ConsumerAuthenticationInformation *ConsumerAuthenticationInformation `json:"consumerAuthenticationInformation,omitempty"`
	ClientReferenceInformation        *ClientReferenceInformation        `json:"clientReferenceInformation,omitempty"`
}

// ResolvedID returns the transaction identifier to display, preferring the
// gateway id.
func (p *PaymentResponse) ResolvedID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.TransactionID
}

// PaymentSubmitResponse is the envelope of POST /payment/combined
type PaymentSubmitResponse struct {
	ResultEnvelope
	PaymentResponse *PaymentResponse `json:"paymentResponse,omitempty"`
}

// CompletionRequest is the body of POST /payment/combined-after-challenge.
// The authentication transaction id is the post-challenge id returned by the
// access control server, replacing the pre-challenge id as the backend's
// lookup key.
type CompletionRequest struct {
	PendingChallengeData
	AuthenticationTransactionID string `json:"authenticationTransactionId"`
	TransactionID               string `json:"transactionId"`
	MD                          string `json:"md,omitempty"`
	SessionID                   string `json:"sessionId,omitempty"`
}
