package fingerprint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"github.com/lakiremit/checkout-service/pkg/observability"
	"go.uber.org/zap"
)

// Collection frame and form element names
const (
	CollectionFrameName = "collectionIframe"
	jwtFieldName        = "JWT"
)

// Message types emitted by the fraud-detection provider
const (
	messageProfileCompleted = "profile.completed"
	messageProfileError     = "profile.error"
)

// Collector drives the hidden device-data-collection frame. One collector
// serves one form session; its session id is generated once and never
// changes after it has been emitted to the collection frame.
//
// Collection is best-effort: a timeout or a provider error leaves the
// fingerprint unconfirmed but never blocks the payment.
type Collector struct {
	submitter ports.FormSubmitter
	orgID     string
	timeout   time.Duration
	logger    *zap.Logger

	sessionID string

	mu        sync.Mutex
	telemetry models.DeviceInfo
	confirmed bool

	resolveOnce sync.Once
	done        chan struct{}
	failed      bool
}

// NewCollector creates a collector for one form session. orgID is the
// fraud-detection organization id appended to the collection URL.
func NewCollector(submitter ports.FormSubmitter, orgID string, timeout time.Duration, logger *zap.Logger) *Collector {
	return &Collector{
		submitter: submitter,
		orgID:     orgID,
		timeout:   timeout,
		logger:    logger,
		sessionID: uuid.New().String(),
		done:      make(chan struct{}),
	}
}

// SessionID returns the fingerprint session id for this form session
func (c *Collector) SessionID() string {
	return c.sessionID
}

// Collected reports whether the provider confirmed collection
func (c *Collector) Collected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// SetTelemetry records the browser telemetry to attach to the fingerprint
func (c *Collector) SetTelemetry(info models.DeviceInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.telemetry = info
}

// Collect submits the hidden collection form and waits for the provider's
// completion signal, the collection bound, or ctx. The returned fingerprint
// always carries the session id; Confirmed is false when collection did not
// positively complete.
func (c *Collector) Collect(ctx context.Context, accessToken, collectionURL string) (*models.DeviceFingerprint, error) {
	if c.Collected() {
		return c.Fingerprint(), nil
	}

	action := fmt.Sprintf("%s?orgId=%s&sessionId=%s", collectionURL, c.orgID, c.sessionID)
	fields := map[string]string{jwtFieldName: accessToken}

	if err := c.submitter.SubmitForm(ctx, CollectionFrameName, action, fields); err != nil {
		// Deliberately downgraded: the payment proceeds without a confirmed
		// fingerprint
		c.logger.Warn("device collection form submit failed",
			zap.String("session_id", c.sessionID),
			zap.Error(err))
		observability.RecordFingerprintOutcome("error")
		return c.Fingerprint(), nil
	}

	c.logger.Info("device collection form submitted",
		zap.String("session_id", c.sessionID))

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		c.mu.Lock()
		failed := c.failed
		c.mu.Unlock()
		if failed {
			observability.RecordFingerprintOutcome("error")
		} else {
			observability.RecordFingerprintOutcome("completed")
		}
	case <-timer.C:
		c.logger.Warn("device collection timed out, proceeding without confirmation",
			zap.String("session_id", c.sessionID),
			zap.Duration("timeout", c.timeout))
		observability.RecordFingerprintOutcome("timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return c.Fingerprint(), nil
}

// HandleMessage is the frames bus handler for collector-origin messages.
// The completion latch guarantees a duplicate profile.completed delivery
// resolves collection only once.
func (c *Collector) HandleMessage(message map[string]interface{}) {
	messageType, _ := message["MessageType"].(string)

	switch messageType {
	case messageProfileCompleted:
		status, _ := message["Status"].(bool)
		if !status {
			return
		}
		c.resolveOnce.Do(func() {
			c.mu.Lock()
			c.confirmed = true
			c.mu.Unlock()
			close(c.done)
			c.logger.Info("device fingerprinting completed",
				zap.String("session_id", c.sessionID))
		})
	case messageProfileError:
		c.resolveOnce.Do(func() {
			c.mu.Lock()
			c.failed = true
			c.mu.Unlock()
			close(c.done)
			c.logger.Warn("device fingerprinting failed, payment can still proceed",
				zap.String("session_id", c.sessionID))
		})
	default:
		c.logger.Debug("unknown collector message type",
			zap.String("message_type", messageType))
	}
}

// Fingerprint returns the current fingerprint snapshot: session id,
// recorded telemetry, and confirmation status.
func (c *Collector) Fingerprint() *models.DeviceFingerprint {
	c.mu.Lock()
	defer c.mu.Unlock()

	fp := &models.DeviceFingerprint{
		SessionID:  c.sessionID,
		DeviceInfo: c.telemetry,
		Confirmed:  c.confirmed,
	}
	fp.AliasSessionID(c.sessionID)
	return fp
}
