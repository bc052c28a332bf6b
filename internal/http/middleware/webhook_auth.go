package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SecretHeader carries the shared secret the hub presents on every delivery.
const SecretHeader = "X-Webhook-Secret"

// WebhookAuth rejects deliveries whose secret header does not match the
// configured shared secret. This runs before any body parsing; a rejected
// request leaves no trace in the ledger. An empty configured secret rejects
// everything — /health reports that misconfiguration.
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader(SecretHeader)
		if supplied == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing webhook secret"})
			return
		}

		if secret == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}

		c.Next()
	}
}
