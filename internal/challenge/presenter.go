package challenge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	"github.com/lakiremit/checkout-service/pkg/observability"
	"github.com/lakiremit/checkout-service/pkg/resilience"
	"go.uber.org/zap"
)

// Step-up frame and form element names
const (
	StepUpFrameName = "step-up-iframe"
	jwtFieldName    = "JWT"
	mdFieldName     = "MD"
)

// Message type posted by the relay page when the bank redirects back
const MessageChallengeComplete = "3ds-challenge-complete"

// Relay path the challenge frame lands on after the bank redirect. Watching
// for it is the polling half of the dual resolution signal.
const relayResultPath = "/api/payment/challenge-result"

// Resolution signal paths, recorded in metrics
const (
	resolutionPathMessage = "message"
	resolutionPathPoll    = "poll"
)

// Presenter runs one step-up challenge: it submits the access token into the
// challenge frame exactly once, then waits for either resolution signal. The
// two signals are redundant; whichever fires first wins and the loser is
// ignored.
type Presenter struct {
	submitter ports.FormSubmitter
	peek      ports.FramePeek
	appOrigin string
	challenge *models.ChallengeContext
	bound     time.Duration
	pollCfg   *resilience.PollConfig
	logger    *zap.Logger

	md string

	submitOnce  sync.Once
	resolveOnce sync.Once
	resolved    chan *models.ChallengeOutcome
}

// NewPresenter creates a presenter for one challenge context. appOrigin is
// the exact origin trusted to post the completion message; bound caps how
// long the cardholder gets to finish the bank's challenge.
func NewPresenter(
	submitter ports.FormSubmitter,
	peek ports.FramePeek,
	appOrigin string,
	challenge *models.ChallengeContext,
	bound time.Duration,
	logger *zap.Logger,
) *Presenter {
	return &Presenter{
		submitter: submitter,
		peek:      peek,
		appOrigin: appOrigin,
		challenge: challenge,
		bound:     bound,
		pollCfg:   resilience.FrameURLPoll(),
		logger:    logger,
		md:        fmt.Sprintf("session_%d", time.Now().Unix()),
		resolved:  make(chan *models.ChallengeOutcome, 1),
	}
}

// MD returns the session correlator posted with the step-up form
func (p *Presenter) MD() string {
	return p.md
}

// Present delivers the step-up form and blocks until the challenge resolves,
// the resolution bound expires, or ctx is done.
func (p *Presenter) Present(ctx context.Context) (*models.ChallengeOutcome, error) {
	size := WindowSizeFromPareq(p.challenge.Pareq)
	p.logger.Info("presenting step-up challenge",
		zap.String("window_size", size.Code),
		zap.Bool("fullscreen", size.Fullscreen),
		zap.String("md", p.md))

	var submitErr error
	p.submitOnce.Do(func() {
		submitErr = p.submitter.SubmitForm(ctx, StepUpFrameName, p.challenge.StepUpURL, map[string]string{
			jwtFieldName: p.challenge.AccessToken,
			mdFieldName:  p.md,
		})
	})
	if submitErr != nil {
		return nil, &apperrors.ChallengeDeliveryError{Err: submitErr}
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	go p.pollFrameURL(pollCtx)

	timer := time.NewTimer(p.bound)
	defer timer.Stop()

	select {
	case outcome := <-p.resolved:
		return outcome, nil
	case <-timer.C:
		observability.RecordChallengeResolution("none", "timeout")
		return nil, &apperrors.ChallengeTimeoutError{After: p.bound}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HandleFrameMessage is the message half of the resolution pair. Only the
// configured application origin is trusted, matched exactly.
func (p *Presenter) HandleFrameMessage(origin string, message map[string]interface{}) {
	if origin != p.appOrigin {
		p.logger.Warn("challenge message from untrusted origin dropped",
			zap.String("origin", origin))
		return
	}

	messageType, _ := message["type"].(string)
	if messageType != MessageChallengeComplete {
		return
	}

	status, _ := message["status"].(string)
	if status != models.ChallengeStatusError {
		status = models.ChallengeStatusSuccess
	}
	transactionID, _ := message["transactionId"].(string)
	md, _ := message["md"].(string)

	p.resolve(resolutionPathMessage, &models.ChallengeOutcome{
		TransactionID: transactionID,
		MD:            md,
		Status:        status,
	})
}

// pollFrameURL is the polling half: watch the challenge frame's URL for the
// relay landing page. Peek errors are the normal case while the frame sits
// on the bank's origin and are swallowed.
func (p *Presenter) pollFrameURL(ctx context.Context) {
	ticker := time.NewTicker(p.pollCfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frameURL, err := p.peek.FrameURL(StepUpFrameName)
			if err != nil {
				continue
			}
			if !strings.Contains(frameURL, relayResultPath) {
				continue
			}

			outcome := outcomeFromRelayURL(frameURL)
			p.resolve(resolutionPathPoll, outcome)
			return
		}
	}
}

// resolve delivers the outcome exactly once; late arrivals from the losing
// signal path are dropped.
func (p *Presenter) resolve(path string, outcome *models.ChallengeOutcome) {
	p.resolveOnce.Do(func() {
		observability.RecordChallengeResolution(path, outcome.Status)
		p.logger.Info("challenge resolved",
			zap.String("path", path),
			zap.String("status", outcome.Status),
			zap.String("transaction_id", outcome.TransactionID))
		p.resolved <- outcome
	})
}

func outcomeFromRelayURL(frameURL string) *models.ChallengeOutcome {
	outcome := &models.ChallengeOutcome{Status: models.ChallengeStatusSuccess}

	parsed, err := url.Parse(frameURL)
	if err != nil {
		return outcome
	}
	query := parsed.Query()
	outcome.TransactionID = query.Get("TransactionId")
	outcome.MD = query.Get("MD")
	if query.Get("Status") == models.ChallengeStatusError {
		outcome.Status = models.ChallengeStatusError
	}
	return outcome
}
