package relay

import (
	"context"
	"net/http"
	"net/url"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	"go.uber.org/zap"
)

// RedirectCompleter drives the orchestrator's redirect-fallback completion
type RedirectCompleter interface {
	ResumeFromRedirect(ctx context.Context, query url.Values) (*models.PaymentResponse, error)
}

// ProcessingHandler is where the bank sends the top-level browser when the
// challenge ran as a full redirect instead of a frame. It completes the
// payment from the durable pending slot and sends the browser home with the
// result in the query string.
type ProcessingHandler struct {
	completer RedirectCompleter
	logger    *zap.Logger
}

// NewProcessingHandler creates the redirect-fallback handler
func NewProcessingHandler(completer RedirectCompleter, logger *zap.Logger) *ProcessingHandler {
	return &ProcessingHandler{completer: completer, logger: logger}
}

func (h *ProcessingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Normalize the ACS param casing to the orchestrator's redirect contract
	resume := url.Values{}
	resume.Set("status", "challenge_complete")
	resume.Set("transactionId", firstOf(query, "TransactionId", "transactionId"))
	resume.Set("md", firstOf(query, "MD", "md"))

	resp, err := h.completer.ResumeFromRedirect(r.Context(), resume)
	if err != nil {
		h.logger.Error("redirect completion failed", zap.Error(err))
		h.redirectHome(w, r, url.Values{
			"status":  []string{"error"},
			"message": []string{"payment could not be completed"},
		})
		return
	}
	if resp == nil {
		// Already consumed; a reload lands back on the form
		h.redirectHome(w, r, url.Values{})
		return
	}

	h.redirectHome(w, r, url.Values{
		"status":        []string{"success"},
		"transactionId": []string{resp.ResolvedID()},
	})
}

func (h *ProcessingHandler) redirectHome(w http.ResponseWriter, r *http.Request, params url.Values) {
	target := "/"
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func firstOf(query url.Values, keys ...string) string {
	for _, key := range keys {
		if v := query.Get(key); v != "" {
			return v
		}
	}
	return ""
}
