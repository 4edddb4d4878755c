package presentation

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/phygital-labs/shopify-lukso-bridge/internal/logger"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/presentation/helpers"
)

// maxWebhookBody caps what we are willing to buffer for HMAC verification.
const maxWebhookBody = 2 << 20

// VerifyWebhookHMAC authenticates a delivery against the app's API secret:
// base64(HMAC-SHA256(secret, raw body)) must equal the signature header.
func VerifyWebhookHMAC(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
			if err != nil {
				helpers.HttpError(w, http.StatusBadRequest, "unreadable body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			signature := r.Header.Get("X-Shopify-Hmac-Sha256")
			if signature == "" || !validSignature(secret, body, signature) {
				logger.Warn("webhook signature rejected", "remote", r.RemoteAddr)
				helpers.HttpError(w, http.StatusUnauthorized, "invalid webhook signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
