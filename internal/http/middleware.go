package http

import (
	"strings"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDMiddleware assigns each request a correlation ID, honoring one
// supplied by the caller.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// IdentityMiddleware resolves the caller identity once per request and
// stores it in the gin context. Resolution never fails; anonymous callers
// without a valid cookie get a fresh one set on the response.
func IdentityMiddleware(resolver *identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolver.Resolve(c)
		c.Set("identity", id)
		c.Set("identityKey", id.Key)
		c.Next()
	}
}

// AccessLogMiddleware logs one line per completed request with enough
// context to correlate against the request log.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if requestID := c.GetString("requestID"); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		if identityKey := c.GetString("identityKey"); identityKey != "" {
			entry = entry.WithField("identity", identityKey)
		}
		entry.Info("request")
	}
}
