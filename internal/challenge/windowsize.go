package challenge

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// WindowSize is the challenge frame geometry requested by the access control
// server via the pareq challengeWindowSize code.
type WindowSize struct {
	Code       string
	Width      int
	Height     int
	Fullscreen bool
}

var windowSizes = map[string]WindowSize{
	"01": {Code: "01", Width: 250, Height: 400},
	"02": {Code: "02", Width: 390, Height: 400},
	"03": {Code: "03", Width: 500, Height: 600},
	"04": {Code: "04", Width: 600, Height: 400},
	"05": {Code: "05", Fullscreen: true},
}

// DefaultWindowSize is used whenever the pareq cannot be decoded or carries
// an unknown size code.
func DefaultWindowSize() WindowSize {
	return windowSizes["02"]
}

// WindowSizeFromPareq derives the challenge window geometry from the pareq
// token. The pareq may be a bare base64 blob or a three-segment JWT; any
// decode failure falls back to the default size rather than failing the
// challenge.
func WindowSizeFromPareq(pareq string) WindowSize {
	segments := strings.Split(pareq, ".")

	var payload string
	switch len(segments) {
	case 1:
		payload = segments[0]
	case 3:
		payload = segments[1]
	default:
		return DefaultWindowSize()
	}

	decoded, err := decodeBase64Segment(payload)
	if err != nil {
		return DefaultWindowSize()
	}

	var body struct {
		ChallengeWindowSize string `json:"challengeWindowSize"`
	}
	if err := json.Unmarshal(decoded, &body); err != nil {
		return DefaultWindowSize()
	}

	size, ok := windowSizes[body.ChallengeWindowSize]
	if !ok {
		return DefaultWindowSize()
	}
	return size
}

// decodeBase64Segment accepts both standard and URL-safe alphabets with or
// without padding.
func decodeBase64Segment(segment string) ([]byte, error) {
	normalized := strings.NewReplacer("-", "+", "_", "/").Replace(segment)
	normalized = strings.TrimRight(normalized, "=")
	return base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(normalized)
}
