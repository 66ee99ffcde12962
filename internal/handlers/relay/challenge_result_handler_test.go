package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/handlers/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const appOrigin = "https://checkout.example.com"

func postChallengeResult(t *testing.T, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	handler := relay.NewChallengeResultHandler(appOrigin, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/payment/challenge-result",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChallengeResult_RendersRelayPage(t *testing.T) {
	form := url.Values{}
	form.Set("TransactionId", "auth-post")
	form.Set("MD", "MD1")
	form.Set("Status", "success")

	rec := postChallengeResult(t, form)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "3ds-challenge-complete")
	assert.Contains(t, body, "auth-post")
	assert.Contains(t, body, "MD1")
	assert.Contains(t, body, appOrigin)

	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "frame-ancestors 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestChallengeResult_DefaultsStatusFromTransactionID(t *testing.T) {
	form := url.Values{}
	form.Set("TransactionId", "auth-post")

	rec := postChallengeResult(t, form)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)

	rec = postChallengeResult(t, url.Values{})
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestChallengeResult_GetIsMethodNotAllowed(t *testing.T) {
	handler := relay.NewChallengeResultHandler(appOrigin, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/api/payment/challenge-result", nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

type stubCompleter struct {
	resp  *models.PaymentResponse
	err   error
	query url.Values
}

func (s *stubCompleter) ResumeFromRedirect(_ context.Context, query url.Values) (*models.PaymentResponse, error) {
	s.query = query
	return s.resp, s.err
}

func TestProcessing_RedirectsWithSuccess(t *testing.T) {
	completer := &stubCompleter{resp: &models.PaymentResponse{ID: "PAY300"}}
	handler := relay.NewProcessingHandler(completer, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/challenge-processing?TransactionId=auth-post&MD=MD1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "status=success")
	assert.Contains(t, location, "transactionId=PAY300")

	assert.Equal(t, "challenge_complete", completer.query.Get("status"))
	assert.Equal(t, "auth-post", completer.query.Get("transactionId"))
	assert.Equal(t, "MD1", completer.query.Get("md"))
}

func TestProcessing_RedirectsWithErrorOnFailure(t *testing.T) {
	completer := &stubCompleter{err: assert.AnError}
	handler := relay.NewProcessingHandler(completer, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/challenge-processing?TransactionId=auth-post", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "status=error")
}

func TestProcessing_ConsumedRedirectGoesHome(t *testing.T) {
	completer := &stubCompleter{}
	handler := relay.NewProcessingHandler(completer, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/challenge-processing?TransactionId=auth-post", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
