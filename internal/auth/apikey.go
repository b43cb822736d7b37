package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	HeaderName = "X-API-Key"
	// QueryParam carries the key for browser WebSocket clients, which cannot
	// set request headers.
	QueryParam = "api_key"
)

// APIKeyMiddleware validates the API key from the X-API-Key header, falling
// back to the api_key query parameter. An empty apiKey disables the check.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(HeaderName)
		if provided == "" {
			provided = c.Query(QueryParam)
		}
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		if !Matches(provided, apiKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}

// Matches compares keys in constant time.
func Matches(provided, apiKey string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) == 1
}
