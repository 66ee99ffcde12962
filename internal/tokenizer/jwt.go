package tokenizer

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// decodeClaims extracts the claims of a vendor-issued JWT without verifying
// its signature. The capture context and transient token are produced and
// verified server-side; this process only reads routing metadata out of them.
func decodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decoding vendor token: %w", err)
	}
	return claims, nil
}

// captureContextLibrary extracts the vendor client library URL and its
// subresource integrity hash from a capture context JWT
// (ctx[0].data.clientLibrary / clientLibraryIntegrity).
func captureContextLibrary(captureContext string) (url, integrity string, err error) {
	claims, err := decodeClaims(captureContext)
	if err != nil {
		return "", "", err
	}

	ctxList, ok := claims["ctx"].([]interface{})
	if !ok || len(ctxList) == 0 {
		return "", "", fmt.Errorf("capture context missing ctx block")
	}
	entry, ok := ctxList[0].(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("capture context ctx block malformed")
	}
	data, ok := entry["data"].(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("capture context missing data block")
	}

	url, _ = data["clientLibrary"].(string)
	integrity, _ = data["clientLibraryIntegrity"].(string)
	if url == "" {
		return "", "", fmt.Errorf("capture context missing client library url")
	}
	return url, integrity, nil
}

// transientTokenBrand extracts the detected card brand code from a transient
// token JWT (content.paymentInformation.card.number.detectedCardTypes[0]).
// Best-effort: returns "" when the token does not carry one.
func transientTokenBrand(transientToken string) string {
	claims, err := decodeClaims(transientToken)
	if err != nil {
		return ""
	}

	content, ok := claims["content"].(map[string]interface{})
	if !ok {
		return ""
	}
	paymentInfo, ok := content["paymentInformation"].(map[string]interface{})
	if !ok {
		return ""
	}
	card, ok := paymentInfo["card"].(map[string]interface{})
	if !ok {
		return ""
	}
	number, ok := card["number"].(map[string]interface{})
	if !ok {
		return ""
	}
	detected, ok := number["detectedCardTypes"].([]interface{})
	if !ok || len(detected) == 0 {
		return ""
	}
	brand, _ := detected[0].(string)
	return brand
}
