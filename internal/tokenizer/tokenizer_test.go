package tokenizer_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"github.com/lakiremit/checkout-service/internal/tokenizer"
	apperrors "github.com/lakiremit/checkout-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unsignedJWT builds header.payload.signature with an arbitrary claims body
func unsignedJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(body) + ".sig"
}

func captureContextJWT(t *testing.T, clientLibrary, integrity string) string {
	return unsignedJWT(t, map[string]interface{}{
		"ctx": []interface{}{
			map[string]interface{}{
				"data": map[string]interface{}{
					"clientLibrary":          clientLibrary,
					"clientLibraryIntegrity": integrity,
				},
			},
		},
	})
}

func transientTokenJWT(t *testing.T, brand string) string {
	return unsignedJWT(t, map[string]interface{}{
		"content": map[string]interface{}{
			"paymentInformation": map[string]interface{}{
				"card": map[string]interface{}{
					"number": map[string]interface{}{
						"detectedCardTypes": []interface{}{brand},
					},
				},
			},
		},
	})
}

type stubAPI struct {
	ports.PaymentAPI
	checkoutResp *models.CheckoutTokenResponse
	checkoutErr  error
	provider     string
}

func (s *stubAPI) CheckoutToken(_ context.Context, _, provider string) (*models.CheckoutTokenResponse, error) {
	s.provider = provider
	return s.checkoutResp, s.checkoutErr
}

type stubLoader struct {
	url       string
	integrity string
	err       error
}

func (s *stubLoader) Load(_ context.Context, url, integrity string) error {
	s.url = url
	s.integrity = integrity
	return s.err
}

type stubFields struct {
	mounted        string
	token          string
	createErr      error
	teardownCalled bool
}

func (s *stubFields) Mount(_ context.Context, captureContext string) error {
	s.mounted = captureContext
	return nil
}

func (s *stubFields) CreateToken(_ context.Context, _, _ string) (string, error) {
	return s.token, s.createErr
}

func (s *stubFields) Teardown() { s.teardownCalled = true }

func TestCybersource_InitializeLoadsLibraryFromCaptureContext(t *testing.T) {
	capture := captureContextJWT(t, "https://flex.example.com/microform.js", "sha256-abc")
	api := &stubAPI{checkoutResp: &models.CheckoutTokenResponse{Token: capture}}
	loader := &stubLoader{}
	fields := &stubFields{}

	tk := tokenizer.NewCybersourceTokenizer(api, loader, fields, "TX100", zap.NewNop())
	require.NoError(t, tk.Initialize(context.Background()))

	assert.Equal(t, "cybersource", api.provider)
	assert.Equal(t, "https://flex.example.com/microform.js", loader.url)
	assert.Equal(t, "sha256-abc", loader.integrity)
	assert.Equal(t, capture, fields.mounted)
	assert.True(t, tk.Initialized())
}

func TestCybersource_InitializeRejectsEmptyCaptureContext(t *testing.T) {
	api := &stubAPI{checkoutResp: &models.CheckoutTokenResponse{}}
	tk := tokenizer.NewCybersourceTokenizer(api, &stubLoader{}, &stubFields{}, "TX100", zap.NewNop())

	err := tk.Initialize(context.Background())

	var tokErr *apperrors.TokenizationError
	require.ErrorAs(t, err, &tokErr)
	assert.False(t, tk.Initialized())
}

func TestCybersource_TokenizeCardExtractsBrand(t *testing.T) {
	capture := captureContextJWT(t, "https://flex.example.com/microform.js", "")
	transient := transientTokenJWT(t, "001")
	api := &stubAPI{checkoutResp: &models.CheckoutTokenResponse{Token: capture}}
	fields := &stubFields{token: transient}

	tk := tokenizer.NewCybersourceTokenizer(api, &stubLoader{}, fields, "TX100", zap.NewNop())
	require.NoError(t, tk.Initialize(context.Background()))

	result, err := tk.TokenizeCard(context.Background(), "12", "2030")
	require.NoError(t, err)
	assert.Equal(t, transient, result.Token)
	assert.Equal(t, "001", result.BrandCode)
}

func TestCybersource_TokenizeCardNeverReturnsEmptyToken(t *testing.T) {
	capture := captureContextJWT(t, "https://flex.example.com/microform.js", "")
	api := &stubAPI{checkoutResp: &models.CheckoutTokenResponse{Token: capture}}
	fields := &stubFields{token: ""}

	tk := tokenizer.NewCybersourceTokenizer(api, &stubLoader{}, fields, "TX100", zap.NewNop())
	require.NoError(t, tk.Initialize(context.Background()))

	result, err := tk.TokenizeCard(context.Background(), "12", "2030")
	assert.Nil(t, result)

	var tokErr *apperrors.TokenizationError
	assert.ErrorAs(t, err, &tokErr)
}

func TestCybersource_TokenizeCardBeforeInitializeFails(t *testing.T) {
	tk := tokenizer.NewCybersourceTokenizer(&stubAPI{}, &stubLoader{}, &stubFields{}, "TX100", zap.NewNop())

	_, err := tk.TokenizeCard(context.Background(), "12", "2030")

	var tokErr *apperrors.TokenizationError
	assert.ErrorAs(t, err, &tokErr)
}

func TestCybersource_CleanupTearsDownOnce(t *testing.T) {
	capture := captureContextJWT(t, "https://flex.example.com/microform.js", "")
	api := &stubAPI{checkoutResp: &models.CheckoutTokenResponse{Token: capture}}
	fields := &stubFields{}

	tk := tokenizer.NewCybersourceTokenizer(api, &stubLoader{}, fields, "TX100", zap.NewNop())
	require.NoError(t, tk.Initialize(context.Background()))

	tk.Cleanup()
	assert.True(t, fields.teardownCalled)
	assert.False(t, tk.Initialized())

	fields.teardownCalled = false
	tk.Cleanup()
	assert.False(t, fields.teardownCalled)
}

func TestMastercard_SessionIDIsTheToken(t *testing.T) {
	api := &stubAPI{checkoutResp: &models.CheckoutTokenResponse{SessionID: "SESSION1", MerchantID: "M123"}}
	loader := &stubLoader{}
	fields := &stubFields{}

	tk := tokenizer.NewMastercardTokenizer(api, loader, fields, "TX100", "gateway.example.com", zap.NewNop())
	require.NoError(t, tk.Initialize(context.Background()))

	assert.Equal(t, "mastercard", api.provider)
	assert.Equal(t, "https://gateway.example.com/form/version/100/merchant/M123/session.js", loader.url)
	assert.Equal(t, "SESSION1", fields.mounted)

	result, err := tk.TokenizeCard(context.Background(), "12", "2030")
	require.NoError(t, err)
	assert.Equal(t, "SESSION1", result.Token)
	assert.Empty(t, result.BrandCode)
}

func TestMastercard_IncompleteSessionResponseFails(t *testing.T) {
	api := &stubAPI{checkoutResp: &models.CheckoutTokenResponse{SessionID: "SESSION1"}}
	tk := tokenizer.NewMastercardTokenizer(api, &stubLoader{}, &stubFields{}, "TX100", "gateway.example.com", zap.NewNop())

	err := tk.Initialize(context.Background())

	var tokErr *apperrors.TokenizationError
	assert.ErrorAs(t, err, &tokErr)
}

func TestFactory_BuildsByProvider(t *testing.T) {
	cfg := tokenizer.Config{
		API:           &stubAPI{},
		Loader:        &stubLoader{},
		Fields:        &stubFields{},
		TransactionID: "TX100",
		GatewayHost:   "gateway.example.com",
		Logger:        zap.NewNop(),
	}

	cyber, err := tokenizer.New(tokenizer.ProviderCybersource, cfg)
	require.NoError(t, err)
	assert.IsType(t, &tokenizer.CybersourceTokenizer{}, cyber)

	mc, err := tokenizer.New(tokenizer.ProviderMastercard, cfg)
	require.NoError(t, err)
	assert.IsType(t, &tokenizer.MastercardTokenizer{}, mc)

	_, err = tokenizer.New("stripe", cfg)
	assert.Error(t, err)
}
