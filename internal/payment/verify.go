// Package payment wraps the Razorpay checkout flow: order creation before
// payment and signature verification after the gateway redirects back.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Signature computes the expected checkout signature for an order/payment
// pair: hex-encoded HMAC-SHA256 over "<orderID>|<paymentID>".
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the gateway-supplied signature matches the
// expected one. The comparison is constant-time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Signature(secret, orderID, paymentID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
