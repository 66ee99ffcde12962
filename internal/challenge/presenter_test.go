package challenge_test

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/lakiremit/checkout-service/internal/challenge"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const appOrigin = "https://checkout.example.com"

type fakeSubmitter struct {
	mu     sync.Mutex
	calls  int
	target string
	action string
	fields map[string]string
	err    error
}

func (f *fakeSubmitter) SubmitForm(_ context.Context, target, action string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.target = target
	f.action = action
	f.fields = fields
	return f.err
}

type fakePeek struct {
	mu  sync.Mutex
	url string
	err error
}

func (f *fakePeek) set(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
	f.err = nil
}

func (f *fakePeek) FrameURL(string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, f.err
}

func testContext() *models.ChallengeContext {
	return &models.ChallengeContext{
		StepUpURL:                   "https://bank.example.com/stepup",
		AccessToken:                 "access-jwt",
		Pareq:                       "",
		AuthenticationTransactionID: "auth-pre",
		TransactionID:               "TX300",
	}
}

func newPresenter(submitter *fakeSubmitter, peek *fakePeek) *challenge.Presenter {
	return challenge.NewPresenter(submitter, peek, appOrigin, testContext(), time.Second, zap.NewNop())
}

func TestPresenter_ResolvesOnTrustedMessage(t *testing.T) {
	submitter := &fakeSubmitter{}
	presenter := newPresenter(submitter, &fakePeek{err: assert.AnError})

	go func() {
		time.Sleep(20 * time.Millisecond)
		presenter.HandleFrameMessage(appOrigin, map[string]interface{}{
			"type":          "3ds-challenge-complete",
			"status":        "success",
			"transactionId": "auth-post",
			"md":            "MD1",
		})
	}()

	outcome, err := presenter.Present(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "auth-post", outcome.TransactionID)
	assert.Equal(t, "MD1", outcome.MD)
	assert.Equal(t, models.ChallengeStatusSuccess, outcome.Status)

	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, "step-up-iframe", submitter.target)
	assert.Equal(t, "https://bank.example.com/stepup", submitter.action)
	assert.Equal(t, "access-jwt", submitter.fields["JWT"])
	assert.Equal(t, presenter.MD(), submitter.fields["MD"])
}

func TestPresenter_IgnoresUntrustedOrigin(t *testing.T) {
	presenter := newPresenter(&fakeSubmitter{}, &fakePeek{err: assert.AnError})

	go func() {
		time.Sleep(20 * time.Millisecond)
		presenter.HandleFrameMessage("https://evil.example.com", map[string]interface{}{
			"type":          "3ds-challenge-complete",
			"transactionId": "forged",
		})
		presenter.HandleFrameMessage(appOrigin, map[string]interface{}{
			"type":          "3ds-challenge-complete",
			"transactionId": "auth-post",
		})
	}()

	outcome, err := presenter.Present(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "auth-post", outcome.TransactionID)
}

func TestPresenter_FirstSignalWins(t *testing.T) {
	presenter := newPresenter(&fakeSubmitter{}, &fakePeek{err: assert.AnError})

	go func() {
		time.Sleep(20 * time.Millisecond)
		presenter.HandleFrameMessage(appOrigin, map[string]interface{}{
			"type":          "3ds-challenge-complete",
			"transactionId": "first",
			"md":            "MD1",
		})
		presenter.HandleFrameMessage(appOrigin, map[string]interface{}{
			"type":          "3ds-challenge-complete",
			"transactionId": "second",
			"md":            "MD2",
		})
	}()

	outcome, err := presenter.Present(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", outcome.TransactionID)
	assert.Equal(t, "MD1", outcome.MD)
}

func TestPresenter_TimesOutWithoutSignal(t *testing.T) {
	submitter := &fakeSubmitter{}
	presenter := challenge.NewPresenter(submitter, &fakePeek{err: assert.AnError},
		appOrigin, testContext(), 50*time.Millisecond, zap.NewNop())

	_, err := presenter.Present(context.Background())

	var timeoutErr *apperrors.ChallengeTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.After)
}

func TestPresenter_DeliveryFailureReturnsError(t *testing.T) {
	submitter := &fakeSubmitter{err: assert.AnError}
	presenter := newPresenter(submitter, &fakePeek{err: assert.AnError})

	_, err := presenter.Present(context.Background())

	var deliveryErr *apperrors.ChallengeDeliveryError
	assert.ErrorAs(t, err, &deliveryErr)
}

func TestPresenter_ErrorStatusMessagePropagates(t *testing.T) {
	presenter := newPresenter(&fakeSubmitter{}, &fakePeek{err: assert.AnError})

	go func() {
		time.Sleep(20 * time.Millisecond)
		presenter.HandleFrameMessage(appOrigin, map[string]interface{}{
			"type":   "3ds-challenge-complete",
			"status": "error",
		})
	}()

	outcome, err := presenter.Present(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeStatusError, outcome.Status)
}

func b64JSON(t *testing.T, payload string) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestWindowSizeFromPareq(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		width  int
		height int
	}{
		{"bare payload 01", "01", 250, 400},
		{"bare payload 03", "03", 500, 600},
		{"bare payload 04", "04", 600, 400},
		{"unknown code falls back", "99", 390, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pareq := b64JSON(t, `{"challengeWindowSize":"`+tt.code+`"}`)
			size := challenge.WindowSizeFromPareq(pareq)
			if tt.code == "99" {
				assert.Equal(t, challenge.DefaultWindowSize(), size)
				return
			}
			assert.Equal(t, tt.width, size.Width)
			assert.Equal(t, tt.height, size.Height)
		})
	}
}

func TestWindowSizeFromPareq_JWTPayloadSegment(t *testing.T) {
	pareq := "header." + b64JSON(t, `{"challengeWindowSize":"05"}`) + ".signature"
	size := challenge.WindowSizeFromPareq(pareq)
	assert.True(t, size.Fullscreen)
}

func TestWindowSizeFromPareq_GarbageFallsBack(t *testing.T) {
	assert.Equal(t, challenge.DefaultWindowSize(), challenge.WindowSizeFromPareq("%%%not-base64%%%"))
	assert.Equal(t, challenge.DefaultWindowSize(), challenge.WindowSizeFromPareq("a.b"))
	assert.Equal(t, challenge.DefaultWindowSize(), challenge.WindowSizeFromPareq(""))
}

func TestPresenter_ResolvesFromFrameURLPoll(t *testing.T) {
	// Poll interval is 2s, so allow a generous bound
	peek := &fakePeek{err: assert.AnError}
	presenter := challenge.NewPresenter(&fakeSubmitter{}, peek,
		appOrigin, testContext(), 10*time.Second, zap.NewNop())

	go func() {
		time.Sleep(50 * time.Millisecond)
		peek.set("https://checkout.example.com/api/payment/challenge-result?TransactionId=auth-post&MD=MD1")
	}()

	outcome, err := presenter.Present(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "auth-post", outcome.TransactionID)
	assert.Equal(t, "MD1", outcome.MD)
	assert.Equal(t, models.ChallengeStatusSuccess, outcome.Status)
}
