package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns hex(HMAC-SHA256(secret, intentID + "|" + paymentID)), the
// signature the gateway hands to the client after a successful payment.
func Sign(secret, intentID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a client-supplied signature in constant time.
func Verify(secret, intentID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, intentID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
