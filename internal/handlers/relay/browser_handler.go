package relay

import (
	"encoding/json"
	"net/http"

	"github.com/lakiremit/checkout-service/internal/adapters/browser"
	"github.com/lakiremit/checkout-service/internal/frames"
	"go.uber.org/zap"
)

// ChallengeMessageSink receives decoded messages from the application's own
// origin; everything else goes through the bus allow-lists.
type ChallengeMessageSink func(origin string, message map[string]interface{})

// BrowserChannelHandler is the hosting page's side of the directive hub: the
// page long-polls for directives, acknowledges them, and reports frame state
// and cross-frame messages back.
type BrowserChannelHandler struct {
	hub       *browser.Hub
	bus       *frames.Bus
	appOrigin string
	sink      ChallengeMessageSink
	logger    *zap.Logger
}

// NewBrowserChannelHandler creates the page channel handler. sink may be nil
// when no challenge resolution path is wired.
func NewBrowserChannelHandler(hub *browser.Hub, bus *frames.Bus, appOrigin string, sink ChallengeMessageSink, logger *zap.Logger) *BrowserChannelHandler {
	return &BrowserChannelHandler{hub: hub, bus: bus, appOrigin: appOrigin, sink: sink, logger: logger}
}

// Directives long-polls for pending page directives
func (h *BrowserChannelHandler) Directives(w http.ResponseWriter, r *http.Request) {
	directives, err := h.hub.Pull(r.Context())
	if err != nil {
		// Poll window elapsed without work; the page polls again
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"directives": directives}); err != nil {
		h.logger.Error("directive encode failed", zap.Error(err))
	}
}

// Ack receives one directive completion report
func (h *BrowserChannelHandler) Ack(w http.ResponseWriter, r *http.Request) {
	var ack browser.Ack
	if err := json.NewDecoder(r.Body).Decode(&ack); err != nil {
		http.Error(w, "malformed ack", http.StatusBadRequest)
		return
	}

	h.hub.Acknowledge(ack)
	w.WriteHeader(http.StatusAccepted)
}

// pageReport is the page's periodic state report: observed frame URLs,
// scripts whose globals became callable, and inbound cross-frame messages.
type pageReport struct {
	FrameURLs    map[string]string `json:"frameUrls,omitempty"`
	ScriptsReady []string          `json:"scriptsReady,omitempty"`
	Messages     []struct {
		Origin string      `json:"origin"`
		Data   interface{} `json:"data"`
	} `json:"messages,omitempty"`
}

// Report ingests one page state report. Frame messages go through the bus,
// which enforces the origin allow-lists.
func (h *BrowserChannelHandler) Report(w http.ResponseWriter, r *http.Request) {
	var report pageReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		http.Error(w, "malformed report", http.StatusBadRequest)
		return
	}

	for frame, url := range report.FrameURLs {
		h.hub.ReportFrameURL(frame, url)
	}
	for _, url := range report.ScriptsReady {
		h.hub.ReportScriptReady(url)
	}
	for _, message := range report.Messages {
		if h.sink != nil && message.Origin == h.appOrigin {
			if decoded, ok := frames.Decode(message.Data); ok {
				h.sink(message.Origin, decoded)
			}
			continue
		}
		h.bus.Dispatch(frames.Event{Origin: message.Origin, Data: message.Data})
	}

	w.WriteHeader(http.StatusAccepted)
}
