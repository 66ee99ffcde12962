package models

import (
	"github.com/shopspring/decimal"
)

// TransactionSnapshot is the read-only transaction view fetched from the
// payment API before checkout begins. It is never mutated locally.
type TransactionSnapshot struct {
	ID                  string          `json:"id"`
	TransactionID       string          `json:"transactionId"`
	ReceiverFullName    string          `json:"receiverFullName"`
	ReceiverPhoneNumber string          `json:"receiverPhoneNumber"`
	ReceiverBankAccount string          `json:"receiverBankAccount"`
	BankName            string          `json:"bankName"`
	SenderFullName      string          `json:"senderFullName"`
	SenderCountryCode   string          `json:"senderCountryCode"`
	Currency            string          `json:"currency"`
	SentAmount          decimal.Decimal `json:"sentAmount"`
	ExchangeRate        decimal.Decimal `json:"exchangeRate"`
	ReceivableAmount    decimal.Decimal `json:"receivableAmount"`
	TransactionFee      decimal.Decimal `json:"transactionFee"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	TransferType        string          `json:"transferType"`
	Reason              string          `json:"reason"`
	PaymentStatus       string          `json:"paymentStatus"`
	Status              string          `json:"status"`
	TransactionType     string          `json:"transactionType"`
	SettlementStatus    string          `json:"settlementStatus"`
	CreatedAt           string          `json:"createdAt"`
	UpdatedAt           string          `json:"updatedAt"`
}

// ResultEnvelope is the common response wrapper of the payment API.
// result == "SUCCESS" signals success; everything else is a failure whose
// message is surfaced verbatim.
type ResultEnvelope struct {
	Result                string   `json:"result"`
	Errors                []string `json:"errors,omitempty"`
	ErrorCodes            []string `json:"errorCodes,omitempty"`
	ReadableErrorMessages []string `json:"readableErrorMessages,omitempty"`
	ErrorMessage          string   `json:"error,omitempty"`
	Message               string   `json:"message,omitempty"`
}

// ResultSuccess is the envelope value reporting success
const ResultSuccess = "SUCCESS"

// IsSuccess reports whether the envelope signals success
func (e *ResultEnvelope) IsSuccess() bool {
	return e.Result == ResultSuccess
}

// FailureMessage returns the backend-supplied error message to surface,
// preferring the explicit error field, then readable messages, then the
// generic message field.
func (e *ResultEnvelope) FailureMessage() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	if len(e.ReadableErrorMessages) > 0 {
		msg := e.ReadableErrorMessages[0]
		for _, m := range e.ReadableErrorMessages[1:] {
			msg += ", " + m
		}
		return msg
	}
	return e.Message
}

// TransactionListResponse is the envelope of GET /transaction/user/{id}
type TransactionListResponse struct {
	ResultEnvelope
	TotalItems   *int                  `json:"totalItems"`
	TotalPage    int                   `json:"totalPage"`
	PageSize     int                   `json:"pageSize"`
	Transactions []TransactionSnapshot `json:"transactions"`
}

// CheckoutTokenResponse is the envelope of POST /payment/checkout-token.
// Cybersource returns a capture-context token; Mastercard returns a hosted
// session id plus merchant id.
type CheckoutTokenResponse struct {
	ResultEnvelope
	Token      string `json:"token,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	MerchantID string `json:"merchantId,omitempty"`
}
