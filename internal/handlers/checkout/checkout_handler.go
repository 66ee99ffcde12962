package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	checkoutService "github.com/lakiremit/checkout-service/internal/services/checkout"
	"go.uber.org/zap"
)

// Orchestrator is the slice of the checkout service the HTTP surface drives
type Orchestrator interface {
	LoadTransaction(ctx context.Context, transactionID string) (*models.TransactionSnapshot, error)
	InitializeCardEntry(ctx context.Context) error
	SetDeviceTelemetry(info models.DeviceInfo)
	Submit(ctx context.Context, card checkoutService.CardDetails) (*models.PaymentResponse, error)
	Session() *checkoutService.Session
}

// IPResolver resolves the public client address when the request address is
// not routable. May be nil.
type IPResolver interface {
	PublicIP(ctx context.Context) string
}

// Handler exposes the checkout flow to the hosting page
type Handler struct {
	service Orchestrator
	ips     IPResolver
	logger  *zap.Logger
}

// NewHandler creates the checkout HTTP handler
func NewHandler(service Orchestrator, ips IPResolver, logger *zap.Logger) *Handler {
	return &Handler{service: service, ips: ips, logger: logger}
}

type loadTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type submitRequest struct {
	CardHolder      string                `json:"cardHolder"`
	FirstName       string                `json:"firstName"`
	LastName        string                `json:"lastName"`
	Email           string                `json:"email"`
	ExpirationMonth string                `json:"expirationMonth"`
	ExpirationYear  string                `json:"expirationYear"`
	SaveCard        bool                  `json:"saveCard"`
	Billing         models.BillingAddress `json:"billingAddress"`
	Device          deviceTelemetry       `json:"device"`
}

// deviceTelemetry is the browser-reported half of the device info; the rest
// comes from the request itself.
type deviceTelemetry struct {
	Language       string `json:"language"`
	ColorDepth     string `json:"colorDepth"`
	ScreenHeight   string `json:"screenHeight"`
	ScreenWidth    string `json:"screenWidth"`
	TimezoneOffset string `json:"timezoneOffset"`
	JavaEnabled    bool   `json:"javaEnabled"`
}

type statusResponse struct {
	SessionID      string                      `json:"sessionId"`
	State          string                      `json:"state"`
	Phase          string                      `json:"phase,omitempty"`
	FailureMessage string                      `json:"failureMessage,omitempty"`
	PaymentID      string                      `json:"paymentId,omitempty"`
	ReturnURL      string                      `json:"returnUrl,omitempty"`
	Transaction    *models.TransactionSnapshot `json:"transaction,omitempty"`
}

// LoadTransaction fetches the transaction snapshot the session will pay for
func (h *Handler) LoadTransaction(w http.ResponseWriter, r *http.Request) {
	var req loadTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		http.Error(w, "transactionId is required", http.StatusBadRequest)
		return
	}

	tx, err := h.service.LoadTransaction(r.Context(), req.TransactionID)
	if err != nil {
		h.logger.Error("transaction load failed",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		http.Error(w, "transaction could not be loaded", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// InitializeCardEntry mounts the provider's hosted card fields
func (h *Handler) InitializeCardEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.service.InitializeCardEntry(r.Context()); err != nil {
		h.logger.Error("card entry initialization failed", zap.Error(err))
		http.Error(w, "card entry could not be initialized", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submit runs one full payment attempt. Blocks until a terminal state, which
// includes the cardholder's step-up challenge when the issuer demands one.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed submit request", http.StatusBadRequest)
		return
	}

	h.service.SetDeviceTelemetry(h.deviceInfo(r, req.Device))

	_, err := h.service.Submit(r.Context(), checkoutService.CardDetails{
		CardHolder:      req.CardHolder,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		ExpirationMonth: req.ExpirationMonth,
		ExpirationYear:  req.ExpirationYear,
		SaveCard:        req.SaveCard,
		Billing:         req.Billing,
	})

	switch {
	case errors.Is(err, checkoutService.ErrNotReady):
		http.Error(w, "transaction not loaded or card fields not initialized", http.StatusConflict)
		return
	case errors.Is(err, checkoutService.ErrStaleAttempt):
		http.Error(w, "submission superseded by a newer attempt", http.StatusConflict)
		return
	case err != nil:
		// The session carries the user-facing failure; surface it with the
		// terminal status payload
		writeJSON(w, http.StatusUnprocessableEntity, h.status())
		return
	}

	writeJSON(w, http.StatusOK, h.status())
}

// Status reports the session's state machine position
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *Handler) status() statusResponse {
	session := h.service.Session()
	return statusResponse{
		SessionID:      session.ID(),
		State:          session.State(),
		Phase:          session.Phase(),
		FailureMessage: session.FailureMessage(),
		PaymentID:      session.PaymentID(),
		ReturnURL:      session.ReturnURL(),
		Transaction:    session.Transaction(),
	}
}

// deviceInfo assembles the telemetry block attached to the payment request.
// The client address prefers the request's own, falls back to a public IP
// lookup for non-routable addresses, and bottoms out at loopback.
func (h *Handler) deviceInfo(r *http.Request, device deviceTelemetry) models.DeviceInfo {
	info := models.DeviceInfo{
		HTTPAcceptBrowser:     r.Header.Get("Accept"),
		HTTPAcceptContent:     r.Header.Get("Accept"),
		BrowserLanguage:       device.Language,
		BrowserJavaEnabled:    device.JavaEnabled,
		BrowserJSEnabled:      true,
		BrowserColorDepth:     device.ColorDepth,
		BrowserScreenHeight:   device.ScreenHeight,
		BrowserScreenWidth:    device.ScreenWidth,
		BrowserTimeDifference: device.TimezoneOffset,
		UserAgentBrowserValue: r.UserAgent(),
		DeviceUserAgent:       r.UserAgent(),
	}
	if info.BrowserLanguage == "" {
		info.BrowserLanguage = r.Header.Get("Accept-Language")
	}

	ip := requestIP(r)
	if !routableIP(ip) && h.ips != nil {
		if resolved := h.ips.PublicIP(r.Context()); resolved != "" {
			ip = resolved
		}
	}
	if ip == "" {
		ip = "127.0.0.1"
	}
	info.IPAddress = ip
	info.DeviceIPAddress = ip
	return info
}

func requestIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func routableIP(addr string) bool {
	ip := net.ParseIP(addr)
	return ip != nil && !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
