package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lakiremit/checkout-service/internal/adapters/backend"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	"github.com/lakiremit/checkout-service/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return backend.NewClient(server.URL, "test-token", resilience.TestTimeoutConfig(), zap.NewNop())
}

func TestClient_CheckoutTokenSendsCorrelationHeaders(t *testing.T) {
	var gotRequestID, gotAuth string
	var gotBody map[string]string

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/payment/checkout-token", r.URL.Path)
		gotRequestID = r.Header.Get("X-Request-Id")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(models.CheckoutTokenResponse{
			ResultEnvelope: models.ResultEnvelope{Result: "SUCCESS"},
			Token:          "capture-jwt",
		})
	})

	resp, err := client.CheckoutToken(context.Background(), "TX100", "cybersource")
	require.NoError(t, err)

	assert.Equal(t, "capture-jwt", resp.Token)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "TX100", gotBody["transactionId"])
	assert.Equal(t, "cybersource", gotBody["provider"])
}

func TestClient_FreshRequestIDPerCall(t *testing.T) {
	var ids []string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-Id"))
		json.NewEncoder(w).Encode(models.CheckoutTokenResponse{
			ResultEnvelope: models.ResultEnvelope{Result: "SUCCESS"},
			Token:          "t",
		})
	})

	_, err := client.CheckoutToken(context.Background(), "TX100", "cybersource")
	require.NoError(t, err)
	_, err = client.CheckoutToken(context.Background(), "TX100", "cybersource")
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestClient_UserTransactionReturnsFirstSnapshot(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/transaction/user/TX100", r.URL.Path)
		json.NewEncoder(w).Encode(models.TransactionListResponse{
			ResultEnvelope: models.ResultEnvelope{Result: "SUCCESS"},
			Transactions: []models.TransactionSnapshot{
				{TransactionID: "TX100", Currency: "USD"},
			},
		})
	})

	snapshot, err := client.UserTransaction(context.Background(), "TX100")
	require.NoError(t, err)
	assert.Equal(t, "TX100", snapshot.TransactionID)
	assert.Equal(t, "USD", snapshot.Currency)
}

func TestClient_UserTransactionEmptyListIsError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.TransactionListResponse{
			ResultEnvelope: models.ResultEnvelope{Result: "SUCCESS"},
		})
	})

	_, err := client.UserTransaction(context.Background(), "TX404")

	var backendErr *apperrors.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Contains(t, backendErr.Message, "not found")
}

func TestClient_AuthenticationSetupSurfacesBackendMessage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.AuthSetupResponse{
			ResultEnvelope: models.ResultEnvelope{
				Result:       "FAILURE",
				ErrorMessage: "card not enrolled",
			},
		})
	})

	_, err := client.AuthenticationSetup(context.Background(), &models.AuthSetupRequest{})

	var setupErr *apperrors.AuthSetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, setupErr.Error(), "card not enrolled")
}

func TestClient_AuthenticationSetupRequiresConsumerAuthBlock(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.AuthSetupResponse{
			ResultEnvelope: models.ResultEnvelope{Result: "SUCCESS"},
		})
	})

	_, err := client.AuthenticationSetup(context.Background(), &models.AuthSetupRequest{})

	var setupErr *apperrors.AuthSetupError
	assert.ErrorAs(t, err, &setupErr)
}

func TestClient_SubmitPaymentPendingAuthentication(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/payment/combined", r.URL.Path)
		json.NewEncoder(w).Encode(models.PaymentSubmitResponse{
			ResultEnvelope: models.ResultEnvelope{Result: "SUCCESS"},
			PaymentResponse: &models.PaymentResponse{
				Status: models.PaymentStatusPendingAuthentication,
				ConsumerAuthenticationInformation: &models.ConsumerAuthenticationInformation{
					StepUpURL:                   "https://bank.example.com/stepup",
					AccessToken:                 "jwt",
					Pareq:                       "pareq",
					AuthenticationTransactionID: "auth-pre",
				},
			},
		})
	})

	resp, err := client.SubmitPayment(context.Background(), &models.PaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPendingAuthentication, resp.Status)
	assert.Equal(t, "auth-pre", resp.ConsumerAuthenticationInformation.AuthenticationTransactionID)
}

func TestClient_CompletePaymentFailureIsCompletionError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/payment/combined-after-challenge", r.URL.Path)
		json.NewEncoder(w).Encode(models.PaymentSubmitResponse{
			ResultEnvelope: models.ResultEnvelope{
				Result:  "FAILURE",
				Message: "authentication declined",
			},
		})
	})

	_, err := client.CompletePayment(context.Background(), &models.CompletionRequest{})

	var completionErr *apperrors.CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Contains(t, completionErr.Error(), "authentication declined")
}

func TestClient_NonSuccessStatusCodeIsBackendError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(models.ResultEnvelope{Message: "upstream unavailable"})
	})

	_, err := client.SubmitPayment(context.Background(), &models.PaymentRequest{})

	var backendErr *apperrors.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusBadGateway, backendErr.Status)
	assert.Equal(t, "upstream unavailable", backendErr.Message)
}
