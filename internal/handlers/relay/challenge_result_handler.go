package relay

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/lakiremit/checkout-service/internal/challenge"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	"go.uber.org/zap"
)

// relayPage is served into the step-up frame when the access control server
// posts the challenge result back. It forwards the outcome to the parent
// window at the exact application origin and nothing else.
var relayPage = template.Must(template.New("relay").Parse(`<!DOCTYPE html>
<html>
<head><title>Processing authentication</title></head>
<body>
<p>Completing your payment, please wait...</p>
<script>
(function () {
    var payload = {{.PayloadJSON}};
    if (window.parent && window.parent !== window) {
        window.parent.postMessage(payload, {{.AppOrigin}});
    }
})();
</script>
</body>
</html>`))

// challengeResultPayload is the message posted to the parent window
type challengeResultPayload struct {
	Type          string `json:"type"`
	TransactionID string `json:"transactionId"`
	MD            string `json:"md,omitempty"`
	Status        string `json:"status"`
	Response      string `json:"response,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// ChallengeResultHandler terminates the ACS return post. The bank's page
// posts TransactionId/Response/MD/Status here; the handler renders the relay
// page that signals the waiting presenter.
type ChallengeResultHandler struct {
	appOrigin string
	logger    *zap.Logger
}

// NewChallengeResultHandler creates the handler for the given application
// origin.
func NewChallengeResultHandler(appOrigin string, logger *zap.Logger) *ChallengeResultHandler {
	return &ChallengeResultHandler{appOrigin: appOrigin, logger: logger}
}

func (h *ChallengeResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("challenge result form unparseable", zap.Error(err))
		h.render(w, http.StatusBadRequest, challengeResultPayload{
			Type:      challenge.MessageChallengeComplete,
			Status:    models.ChallengeStatusError,
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	transactionID := r.PostFormValue("TransactionId")
	md := r.PostFormValue("MD")
	status := r.PostFormValue("Status")
	response := r.PostFormValue("Response")

	if status == "" {
		status = models.ChallengeStatusSuccess
		if transactionID == "" {
			status = models.ChallengeStatusError
		}
	}

	h.logger.Info("challenge result received",
		zap.String("transaction_id", transactionID),
		zap.String("md", md),
		zap.String("status", status))

	h.render(w, http.StatusOK, challengeResultPayload{
		Type:          challenge.MessageChallengeComplete,
		TransactionID: transactionID,
		MD:            md,
		Status:        status,
		Response:      response,
		Timestamp:     time.Now().UnixMilli(),
	})
}

func (h *ChallengeResultHandler) render(w http.ResponseWriter, code int, payload challengeResultPayload) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// The relay page may only ever be framed by this application
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)

	err = relayPage.Execute(w, map[string]interface{}{
		"PayloadJSON": template.JS(encoded),
		"AppOrigin":   h.appOrigin,
	})
	if err != nil {
		h.logger.Error("relay page render failed", zap.Error(err))
	}
}
