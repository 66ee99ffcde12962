package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	"github.com/lakiremit/checkout-service/pkg/resilience"
)

// ecommerce indicator values sent to the payment API
const (
	indicatorInternet = "internet"

	// indicatorSPA is forced on post-challenge completion; the backend keys
	// its completion path on it
	indicatorSPA = "spa"
)

// relayResultPath is the return URL handed to the access control server
const relayResultPath = "/api/payment/challenge-result"

var (
	// ErrNotReady is returned when submission preconditions are not met; no
	// network call is made
	ErrNotReady = errors.New("transaction not loaded or card fields not initialized")

	// ErrStaleAttempt is returned when a response arrives for a superseded
	// submission attempt
	ErrStaleAttempt = errors.New("stale submission attempt discarded")
)

// CardDetails is the non-sensitive half of the card entry; the PAN and CVV
// stay inside the vendor's hosted fields.
type CardDetails struct {
	CardHolder      string
	FirstName       string
	LastName        string
	Email           string
	ExpirationMonth string
	ExpirationYear  string
	SaveCard        bool
	Billing         models.BillingAddress
}

// CheckoutEvent is the terminal event published to the event stream
type CheckoutEvent struct {
	SessionID     string    `json:"sessionId"`
	TransactionID string    `json:"transactionId"`
	State         string    `json:"state"`
	PaymentID     string    `json:"paymentId,omitempty"`
	Message       string    `json:"message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Config carries the orchestrator's static settings
type Config struct {
	// AppOrigin is this application's exact origin, used to build the
	// challenge return URL
	AppOrigin string

	// EventsTopic receives terminal checkout events
	EventsTopic string
}

// Service is the payment orchestrator: the explicit state machine driving
// tokenize, authentication setup, device collection, submission, the
// optional step-up challenge, and completion. One service instance serves
// one checkout session.
type Service struct {
	api              ports.PaymentAPI
	tokenizer        ports.CardTokenizer
	collector        ports.DeviceCollector
	presenterFactory ports.PresenterFactory
	store            ports.ChallengeStore
	publisher        ports.EventPublisher
	timeouts         *resilience.TimeoutConfig
	logger           ports.Logger
	cfg              Config

	session *Session
}

// NewService creates an orchestrator for one checkout session
func NewService(
	session *Session,
	api ports.PaymentAPI,
	tokenizer ports.CardTokenizer,
	collector ports.DeviceCollector,
	presenterFactory ports.PresenterFactory,
	store ports.ChallengeStore,
	publisher ports.EventPublisher,
	timeouts *resilience.TimeoutConfig,
	cfg Config,
	logger ports.Logger,
) *Service {
	return &Service{
		api:              api,
		tokenizer:        tokenizer,
		collector:        collector,
		presenterFactory: presenterFactory,
		store:            store,
		publisher:        publisher,
		timeouts:         timeouts,
		cfg:              cfg,
		logger:           logger,
		session:          session,
	}
}

// Session exposes the session for status reads
func (s *Service) Session() *Session {
	return s.session
}

// LoadTransaction fetches the read-only transaction snapshot the checkout
// will pay for.
func (s *Service) LoadTransaction(ctx context.Context, transactionID string) (*models.TransactionSnapshot, error) {
	tx, err := s.api.UserTransaction(ctx, transactionID)
	if err != nil {
		s.logger.Error("transaction fetch failed",
			ports.String("transaction_id", transactionID),
			ports.Err(err))
		return nil, err
	}

	s.session.setTransaction(tx)
	s.logger.Info("transaction loaded",
		ports.String("transaction_id", tx.TransactionID),
		ports.String("currency", tx.Currency))
	return tx, nil
}

// InitializeCardEntry mounts the provider's hosted fields
func (s *Service) InitializeCardEntry(ctx context.Context) error {
	s.session.setPhase(PhaseInitializing)
	defer s.session.setPhase(PhaseIdle)

	if err := s.tokenizer.Initialize(ctx); err != nil {
		s.logger.Error("card entry initialization failed", ports.Err(err))
		return err
	}
	return nil
}

// Submit runs one full payment attempt: tokenize, authentication setup,
// device collection, submission, and, when the issuer demands it, the
// step-up challenge plus completion. Blocks until a terminal state.
func (s *Service) Submit(ctx context.Context, card CardDetails) (*models.PaymentResponse, error) {
	tx := s.session.Transaction()
	if tx == nil || !s.tokenizer.Initialized() {
		return nil, ErrNotReady
	}

	attemptID := uuid.New().String()
	if s.session.beginAttempt(attemptID) == "" {
		return nil, ErrNotReady
	}

	subCtx, cancel := s.timeouts.SubmissionContext(ctx)
	defer cancel()

	s.logger.Info("payment attempt started",
		ports.String("attempt_id", attemptID),
		ports.String("transaction_id", tx.TransactionID))

	tokenized, err := s.tokenizer.TokenizeCard(subCtx, card.ExpirationMonth, card.ExpirationYear)
	if err != nil {
		// Tokenization failures happen before anything reaches the gateway;
		// the session stays on the form with the rejection surfaced.
		s.logger.Error("card tokenization failed",
			ports.String("transaction_id", tx.TransactionID),
			ports.Err(err))
		s.session.backToForm(failureText(err))
		return nil, err
	}

	setup, err := s.api.AuthenticationSetup(subCtx, s.buildAuthSetup(tx, card, tokenized))
	if err != nil {
		s.fail(ctx, tx.TransactionID, failureText(err))
		return nil, err
	}
	if !s.session.attemptCurrent(attemptID) {
		return nil, ErrStaleAttempt
	}

	fingerprint := s.collectFingerprint(subCtx, setup.ConsumerAuthenticationInformation)

	paymentReq := s.buildPayment(tx, card, tokenized.Token, fingerprint)
	resp, err := s.api.SubmitPayment(subCtx, paymentReq)
	if err != nil {
		s.fail(ctx, tx.TransactionID, failureText(err))
		return nil, err
	}
	if !s.session.attemptCurrent(attemptID) {
		return nil, ErrStaleAttempt
	}

	if resp.Status == models.PaymentStatusPendingAuthentication {
		return s.runChallenge(subCtx, tx, paymentReq, resp)
	}

	// Immediate frictionless success
	if err := s.store.ClearPending(ctx, s.session.ID()); err != nil {
		s.logger.Warn("pending slot clear failed", ports.Err(err))
	}
	s.succeed(ctx, tx.TransactionID, resp.ResolvedID())
	return resp, nil
}

// ResumeFromRedirect consumes the query params of a full top-level redirect
// back from the bank. Only the first call per session acts; later calls are
// no-ops so a reload cannot complete twice.
func (s *Service) ResumeFromRedirect(ctx context.Context, query url.Values) (*models.PaymentResponse, error) {
	switch query.Get("status") {
	case "challenge_complete":
		if !s.session.consumeRedirect() {
			return nil, nil
		}
		outcome := &models.ChallengeOutcome{
			TransactionID: query.Get("transactionId"),
			MD:            query.Get("md"),
			Status:        models.ChallengeStatusSuccess,
		}
		s.logger.Info("resuming payment from challenge redirect",
			ports.String("transaction_id", outcome.TransactionID),
			ports.String("md", outcome.MD))
		return s.completeWithOutcome(ctx, outcome)

	case "error":
		if !s.session.consumeRedirect() {
			return nil, nil
		}
		message := query.Get("message")
		if message == "" {
			message = "payment failed"
		}
		s.session.backToForm(message)
		if err := s.store.ClearPending(ctx, s.session.ID()); err != nil {
			s.logger.Warn("pending slot clear failed", ports.Err(err))
		}
		return nil, nil
	}

	return nil, nil
}

// SetDeviceTelemetry records the browser telemetry attached to submitted
// payments
func (s *Service) SetDeviceTelemetry(info models.DeviceInfo) {
	s.collector.SetTelemetry(info)
}

// Cleanup releases vendor resources on session teardown
func (s *Service) Cleanup() {
	s.tokenizer.Cleanup()
}

// collectFingerprint runs device data collection when auth setup provided
// the collection inputs and no confirmed fingerprint exists yet. Never
// fatal: the fallback is an unconfirmed fingerprint carrying the session id.
func (s *Service) collectFingerprint(ctx context.Context, info *models.ConsumerAuthenticationInformation) *models.DeviceFingerprint {
	if info != nil && info.AccessToken != "" && info.DeviceDataCollectionURL != "" && !s.collector.Collected() {
		s.session.setPhase(PhaseCollectingDeviceData)
		defer s.session.setPhase(PhaseIdle)

		fingerprint, err := s.collector.Collect(ctx, info.AccessToken, info.DeviceDataCollectionURL)
		if err == nil {
			return fingerprint
		}
		s.logger.Warn("device collection aborted, submitting without confirmation", ports.Err(err))
	}

	return s.collector.Fingerprint()
}

// runChallenge persists the pending payload, presents the step-up challenge,
// and completes the payment with its outcome. The payload is persisted
// BEFORE the required-field check so the durable slot exists even when the
// response turns out unusable.
func (s *Service) runChallenge(ctx context.Context, tx *models.TransactionSnapshot, paymentReq *models.PaymentRequest, resp *models.PaymentResponse) (*models.PaymentResponse, error) {
	info := resp.ConsumerAuthenticationInformation

	pending := pendingFromPayment(paymentReq)
	if info != nil {
		pending.AuthenticationTransactionID = info.AuthenticationTransactionID
	}
	pending.TransactionID = resp.ResolvedID()

	if err := s.store.SavePending(ctx, s.session.ID(), pending); err != nil {
		s.fail(ctx, tx.TransactionID, "could not persist payment state for authentication")
		return nil, err
	}

	var missing []string
	if info == nil || info.StepUpURL == "" {
		missing = append(missing, "stepUpUrl")
	}
	if info == nil || info.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	if info == nil || info.Pareq == "" {
		missing = append(missing, "pareq")
	}
	if len(missing) > 0 {
		err := apperrors.NewMissingChallengeDataError(missing...)
		s.clearPending(ctx)
		s.fail(ctx, tx.TransactionID, err.Error())
		return nil, err
	}

	s.session.toPendingAuthentication()
	s.logger.Info("step-up challenge required",
		ports.String("transaction_id", tx.TransactionID),
		ports.String("auth_transaction_id", info.AuthenticationTransactionID))

	presenter := s.presenterFactory(&models.ChallengeContext{
		StepUpURL:                   info.StepUpURL,
		AccessToken:                 info.AccessToken,
		Pareq:                       info.Pareq,
		AuthenticationTransactionID: info.AuthenticationTransactionID,
		TransactionID:               resp.ResolvedID(),
	})

	challengeCtx, cancel := s.timeouts.ChallengeContext(ctx)
	defer cancel()

	outcome, err := presenter.Present(challengeCtx)
	if err != nil {
		s.clearPending(ctx)
		s.fail(ctx, tx.TransactionID, failureText(err))
		return nil, err
	}
	if outcome.Status == models.ChallengeStatusError {
		s.clearPending(ctx)
		s.fail(ctx, tx.TransactionID, "card authentication failed")
		return nil, fmt.Errorf("challenge reported error status")
	}

	return s.completeWithOutcome(ctx, outcome)
}

// completeWithOutcome finishes a challenged payment. The pending slot is
// consumed exactly once; the post-challenge authentication transaction id
// replaces the pre-challenge one as the backend's lookup key.
func (s *Service) completeWithOutcome(ctx context.Context, outcome *models.ChallengeOutcome) (*models.PaymentResponse, error) {
	data, err := s.store.ConsumePending(ctx, s.session.ID())
	if errors.Is(err, ports.ErrNoPendingChallenge) {
		staleErr := &apperrors.StaleChallengeStateError{}
		s.fail(ctx, "", staleErr.Error())
		return nil, staleErr
	}
	if err != nil {
		s.fail(ctx, "", "could not recover payment state")
		return nil, err
	}

	// Slot cleared and challenge state reset whatever the outcome
	defer s.clearPending(ctx)

	data.EcommerceIndicatorAuth = indicatorSPA

	authTransactionID := outcome.TransactionID
	if authTransactionID == "" {
		authTransactionID = data.AuthenticationTransactionID
	}

	req := &models.CompletionRequest{
		PendingChallengeData:        *data,
		AuthenticationTransactionID: authTransactionID,
		TransactionID:               data.TransactionID,
		MD:                          outcome.MD,
		SessionID:                   data.DeviceSessionID,
	}

	callCtx, cancel := s.timeouts.BackendAPIContext(ctx)
	defer cancel()

	resp, err := s.api.CompletePayment(callCtx, req)
	if err != nil {
		s.fail(ctx, data.TransactionID, failureText(err))
		return nil, err
	}

	s.succeed(ctx, data.TransactionID, resp.ResolvedID())
	return resp, nil
}

func (s *Service) buildAuthSetup(tx *models.TransactionSnapshot, card CardDetails, tokenized *ports.TokenizationResult) *models.AuthSetupRequest {
	return &models.AuthSetupRequest{
		TransientToken:         tokenized.Token,
		CardHolder:             card.CardHolder,
		Currency:               tx.Currency,
		TotalAmount:            tx.TotalAmount.StringFixed(2),
		ReturnURL:              s.cfg.AppOrigin + relayResultPath,
		MerchantReference:      tx.TransactionID,
		EcommerceIndicatorAuth: indicatorInternet,
		IsSaveCard:             card.SaveCard,
		CardType:               tokenized.BrandCode,
		CardTypeName:           models.CardBrandName(tokenized.BrandCode),
		FirstName:              card.FirstName,
		LastName:               card.LastName,
		Email:                  card.Email,
		BillingAddress:         card.Billing,
	}
}

func (s *Service) buildPayment(tx *models.TransactionSnapshot, card CardDetails, token string, fingerprint *models.DeviceFingerprint) *models.PaymentRequest {
	return &models.PaymentRequest{
		TransientToken:         token,
		SessionID:              fingerprint.SessionID,
		CardHolder:             card.CardHolder,
		Currency:               tx.Currency,
		TotalAmount:            tx.TotalAmount.StringFixed(2),
		ReturnURL:              s.cfg.AppOrigin + relayResultPath,
		MerchantReference:      tx.TransactionID,
		EcommerceIndicatorAuth: indicatorInternet,
		FirstName:              card.FirstName,
		LastName:               card.LastName,
		Email:                  card.Email,
		SaveCard:               card.SaveCard,
		BillingAddress:         card.Billing,
		DeviceInfo:             fingerprint.DeviceInfo,
	}
}

func pendingFromPayment(req *models.PaymentRequest) *models.PendingChallengeData {
	return &models.PendingChallengeData{
		Currency:               req.Currency,
		TotalAmount:            req.TotalAmount,
		TransientToken:         req.TransientToken,
		MerchantReference:      req.MerchantReference,
		EcommerceIndicatorAuth: req.EcommerceIndicatorAuth,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		Email:                  req.Email,
		BillingAddress:         req.BillingAddress,
		DeviceInfo:             req.DeviceInfo,
	}
}

func (s *Service) clearPending(ctx context.Context) {
	if err := s.store.ClearPending(ctx, s.session.ID()); err != nil {
		s.logger.Warn("pending slot clear failed", ports.Err(err))
	}
}

func (s *Service) succeed(ctx context.Context, transactionID, paymentID string) {
	s.session.toSuccess(paymentID)
	s.logger.Info("payment succeeded",
		ports.String("transaction_id", transactionID),
		ports.String("payment_id", paymentID))
	s.publish(ctx, transactionID, "", paymentID, StateSuccess)
}

func (s *Service) fail(ctx context.Context, transactionID, message string) {
	s.session.toFailed(message)
	s.logger.Error("payment failed",
		ports.String("transaction_id", transactionID),
		ports.String("message", message))
	s.publish(ctx, transactionID, message, "", StateFailed)
}

// publish emits the terminal event best-effort; a broker outage never
// changes the checkout outcome.
func (s *Service) publish(ctx context.Context, transactionID, message, paymentID, state string) {
	if s.publisher == nil || s.cfg.EventsTopic == "" {
		return
	}

	event := CheckoutEvent{
		SessionID:     s.session.ID(),
		TransactionID: transactionID,
		State:         state,
		PaymentID:     paymentID,
		Message:       message,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, s.cfg.EventsTopic, event); err != nil {
		s.logger.Warn("checkout event publish failed", ports.Err(err))
	}
}

// failureText surfaces backend-supplied messages verbatim and keeps
// internal error text out of the user-facing message.
func failureText(err error) string {
	var tokenErr *apperrors.TokenizationError
	if errors.As(err, &tokenErr) && tokenErr.Reason != "" {
		return tokenErr.Reason
	}
	var backendErr *apperrors.BackendError
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return backendErr.Message
	}
	var setupErr *apperrors.AuthSetupError
	if errors.As(err, &setupErr) && setupErr.Message != "" {
		return setupErr.Message
	}
	var completionErr *apperrors.CompletionError
	if errors.As(err, &completionErr) && completionErr.Message != "" {
		return completionErr.Message
	}
	var timeoutErr *apperrors.ChallengeTimeoutError
	if errors.As(err, &timeoutErr) {
		return "card authentication timed out"
	}
	return "payment could not be processed"
}
