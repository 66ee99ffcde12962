package frames

import (
	"encoding/json"
	"sync"

	"github.com/lakiremit/checkout-service/pkg/observability"
	"go.uber.org/zap"
)

// Trusted origins of the fraud-detection collection frames
var CollectorOrigins = []string{
	"https://centinelapistag.cardinalcommerce.com", // test
	"https://centinelapi.cardinalcommerce.com",     // production
}

// Trusted origins of the card-network hosted-field frames
var HostedFieldOrigins = []string{
	"https://testflex.cybersource.com", // test
	"https://flex.cybersource.com",     // production
}

// Event is one inbound cross-frame message envelope: the sender origin plus
// the raw payload, which may be a decoded object or a JSON string.
type Event struct {
	Origin string
	Data   interface{}
}

// Handler receives decoded collector messages
type Handler func(message map[string]interface{})

// Bus is the process-wide cross-frame message listener. At most one handler
// is active at a time; events from origins outside the allow-lists are
// logged and dropped, never dispatched.
type Bus struct {
	mu        sync.Mutex
	listening bool
	handler   Handler

	collectorOrigins   map[string]struct{}
	hostedFieldOrigins map[string]struct{}
	logger             *zap.Logger
}

// NewBus creates a bus trusting the given origin allow-lists. Matching is
// exact.
func NewBus(collectorOrigins, hostedFieldOrigins []string, logger *zap.Logger) *Bus {
	b := &Bus{
		collectorOrigins:   make(map[string]struct{}, len(collectorOrigins)),
		hostedFieldOrigins: make(map[string]struct{}, len(hostedFieldOrigins)),
		logger:             logger,
	}
	for _, o := range collectorOrigins {
		b.collectorOrigins[o] = struct{}{}
	}
	for _, o := range hostedFieldOrigins {
		b.hostedFieldOrigins[o] = struct{}{}
	}
	return b
}

// StartListening registers the handler. Calling it while already listening
// is a no-op, not an error; the original handler stays registered.
func (b *Bus) StartListening(onMessage Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listening {
		b.logger.Warn("frame message listener already active")
		return
	}

	b.handler = onMessage
	b.listening = true
	b.logger.Info("frame message listener started")
}

// StopListening deregisters the handler. Idempotent; nils the stored handler
// reference so a stale closure cannot be dispatched after remount.
func (b *Bus) StopListening() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.listening {
		return
	}

	b.listening = false
	b.handler = nil
	b.logger.Info("frame message listener stopped")
}

// Listening reports whether a handler is registered
func (b *Bus) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

// Dispatch routes one inbound event. Collector-origin messages go to the
// active handler; hosted-field messages are logged only; everything else is
// dropped.
func (b *Bus) Dispatch(ev Event) {
	b.mu.Lock()
	handler := b.handler
	_, fromCollector := b.collectorOrigins[ev.Origin]
	_, fromHostedFields := b.hostedFieldOrigins[ev.Origin]
	b.mu.Unlock()

	switch {
	case fromCollector:
		message, ok := decodePayload(ev.Data)
		if !ok {
			b.logger.Error("failed to parse collector frame message",
				zap.String("origin", ev.Origin))
			observability.RecordDroppedFrameMessage("unparseable")
			return
		}
		if handler != nil {
			handler(message)
		}
	case fromHostedFields:
		// Hosted-field frames emit field telemetry we do not act on
		b.logger.Debug("hosted-field frame message received",
			zap.String("origin", ev.Origin))
	default:
		b.logger.Warn("frame message from untrusted origin dropped",
			zap.String("origin", ev.Origin))
		observability.RecordDroppedFrameMessage("untrusted_origin")
	}
}

// Decode exposes payload decoding for callers routing messages outside the
// bus, e.g. the application-origin challenge completion path.
func Decode(data interface{}) (map[string]interface{}, bool) {
	return decodePayload(data)
}

// decodePayload accepts either an already-decoded object or a JSON string.
// Anything else, or an unparseable string, is dropped.
func decodePayload(data interface{}) (map[string]interface{}, bool) {
	switch v := data.(type) {
	case map[string]interface{}:
		return v, true
	case string:
		var message map[string]interface{}
		if err := json.Unmarshal([]byte(v), &message); err != nil {
			return nil, false
		}
		return message, true
	default:
		return nil, false
	}
}
