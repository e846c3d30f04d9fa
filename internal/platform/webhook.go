package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// verifySignature checks a Meta X-Hub-Signature-256 header byte for byte
// against the lowercase "sha256=<hex>" digest of payload.
func verifySignature(appSecret string, payload []byte, signature string) bool {
	if appSecret == "" || !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}

	expected := SignPayload(appSecret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignPayload produces the header value Meta would send for payload.
func SignPayload(appSecret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
