package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lakiremit/checkout-service/pkg/resilience"
	"go.uber.org/zap"
)

// Directive types executed by the hosting page
const (
	DirectiveSubmitForm  = "submit-form"
	DirectiveLoadScript  = "load-script"
	DirectiveMountFields = "mount-fields"
	DirectiveCreateToken = "create-token"
	DirectiveTeardown    = "teardown"
)

// Directive is one command for the hosting page: render a hidden form into a
// frame, load a vendor script, drive the hosted fields.
type Directive struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Ack is the page's completion report for one directive
type Ack struct {
	DirectiveID string `json:"directiveId"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`

	// Result carries directive-specific output, e.g. the transient token
	// from create-token
	Result string `json:"result,omitempty"`
}

// Hub bridges the checkout flow to the hosting page. The flow enqueues
// directives and blocks on their acks; the page long-polls for directives,
// executes them, and reports acks plus frame state back.
//
// Hub implements ports.FormSubmitter, ports.FramePeek, ports.ScriptLoader
// and ports.HostedFields.
type Hub struct {
	mu           sync.Mutex
	queue        []Directive
	notify       chan struct{}
	waiters      map[string]chan Ack
	frameURLs    map[string]string
	scriptsReady map[string]bool
	logger       *zap.Logger
}

// NewHub creates an empty hub for one page session
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		notify:       make(chan struct{}, 1),
		waiters:      make(map[string]chan Ack),
		frameURLs:    make(map[string]string),
		scriptsReady: make(map[string]bool),
		logger:       logger,
	}
}

// Pull returns queued directives, waiting until at least one is available or
// ctx is done. The page long-polls this.
func (h *Hub) Pull(ctx context.Context) ([]Directive, error) {
	for {
		h.mu.Lock()
		if len(h.queue) > 0 {
			directives := h.queue
			h.queue = nil
			h.mu.Unlock()
			return directives, nil
		}
		h.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-h.notify:
		}
	}
}

// Acknowledge delivers the page's completion report to the waiting caller.
// Acks for unknown directives are logged and dropped.
func (h *Hub) Acknowledge(ack Ack) {
	h.mu.Lock()
	waiter, ok := h.waiters[ack.DirectiveID]
	delete(h.waiters, ack.DirectiveID)
	h.mu.Unlock()

	if !ok {
		h.logger.Warn("ack for unknown directive dropped",
			zap.String("directive_id", ack.DirectiveID))
		return
	}
	waiter <- ack
}

// ReportFrameURL records a frame's current navigated URL as observed by the
// page.
func (h *Hub) ReportFrameURL(frame, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frameURLs[frame] = url
}

// ReportScriptReady records that a loaded script's global became callable
func (h *Hub) ReportScriptReady(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scriptsReady[url] = true
}

// SubmitForm delivers a hidden POST form into the named frame. The frame's
// last observed URL is invalidated first so callers watching FrameURL only
// see navigations that happen after this delivery.
func (h *Hub) SubmitForm(ctx context.Context, target, action string, fields map[string]string) error {
	h.mu.Lock()
	delete(h.frameURLs, target)
	h.mu.Unlock()

	payload := map[string]interface{}{
		"target": target,
		"action": action,
		"fields": fields,
	}
	ack, err := h.dispatch(ctx, DirectiveSubmitForm, payload)
	if err != nil {
		return err
	}
	if !ack.OK {
		return fmt.Errorf("form submit into %s failed: %s", target, ack.Error)
	}
	return nil
}

// FrameURL returns the frame's last reported URL. Unreported frames fail;
// that is the normal case while the frame sits on a cross-origin page.
func (h *Hub) FrameURL(target string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	url, ok := h.frameURLs[target]
	if !ok || url == "" {
		return "", fmt.Errorf("frame %s url not observable", target)
	}
	return url, nil
}

// Load loads a vendor script and waits for its global to become callable.
// The script element's load event fires before the global is installed, so
// readiness is polled separately.
func (h *Hub) Load(ctx context.Context, url, integrity string) error {
	payload := map[string]interface{}{
		"url":       url,
		"integrity": integrity,
	}
	ack, err := h.dispatch(ctx, DirectiveLoadScript, payload)
	if err != nil {
		return err
	}
	if !ack.OK {
		return fmt.Errorf("script load failed: %s", ack.Error)
	}

	err = resilience.Poll(ctx, resilience.ScriptReadyPoll(), func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.scriptsReady[url]
	})
	if err != nil {
		return fmt.Errorf("script global never became callable: %w", err)
	}
	return nil
}

// Mount renders the hosted fields into the page's containers
func (h *Hub) Mount(ctx context.Context, captureContext string) error {
	ack, err := h.dispatch(ctx, DirectiveMountFields, map[string]interface{}{
		"captureContext": captureContext,
	})
	if err != nil {
		return err
	}
	if !ack.OK {
		return fmt.Errorf("hosted field mount failed: %s", ack.Error)
	}
	return nil
}

// CreateToken exchanges the mounted fields plus expiry for a transient token
func (h *Hub) CreateToken(ctx context.Context, expirationMonth, expirationYear string) (string, error) {
	ack, err := h.dispatch(ctx, DirectiveCreateToken, map[string]interface{}{
		"expirationMonth": expirationMonth,
		"expirationYear":  expirationYear,
	})
	if err != nil {
		return "", err
	}
	if !ack.OK {
		return "", fmt.Errorf("token creation failed: %s", ack.Error)
	}
	return ack.Result, nil
}

// Teardown asks the page to unmount the vendor frames. Fire and forget; the
// page may already be navigating away.
func (h *Hub) Teardown() {
	h.enqueue(Directive{
		ID:   uuid.New().String(),
		Type: DirectiveTeardown,
	})
}

func (h *Hub) dispatch(ctx context.Context, directiveType string, payload map[string]interface{}) (Ack, error) {
	directive := Directive{
		ID:      uuid.New().String(),
		Type:    directiveType,
		Payload: payload,
	}

	waiter := make(chan Ack, 1)
	h.mu.Lock()
	h.waiters[directive.ID] = waiter
	h.mu.Unlock()

	h.enqueue(directive)

	select {
	case ack := <-waiter:
		return ack, nil
	case <-ctx.Done():
		h.mu.Lock()
		delete(h.waiters, directive.ID)
		h.mu.Unlock()
		return Ack{}, ctx.Err()
	}
}

func (h *Hub) enqueue(directive Directive) {
	h.mu.Lock()
	h.queue = append(h.queue, directive)
	h.mu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}
}
