package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries base64(HMAC-SHA512(clientToken, body)).
const SignatureHeader = "X-Goog-Signature"

// maxCallbackBody bounds how much of a callback body is buffered.
const maxCallbackBody = 1 << 20

// SignatureMiddleware rejects callbacks whose signature does not match the
// partner client token. With an empty token verification is disabled.
// The body is restored so handlers can read it again.
func SignatureMiddleware(clientToken string) gin.HandlerFunc {
	clientToken = strings.TrimSpace(clientToken)
	return func(c *gin.Context) {
		if clientToken == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !ValidSignature(clientToken, body, c.GetHeader(SignatureHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

// Sign computes the signature header value for body.
func Sign(clientToken string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(clientToken))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidSignature reports whether signature matches body in constant time.
func ValidSignature(clientToken string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha512.New, []byte(clientToken))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
