package handlers

import (
	"context"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/httpapi"
	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
)

// getIdentity extracts the resolved identity from gin context.
func getIdentity(c *gin.Context) identity.Identity {
	val, exists := c.Get("identity")
	if !exists {
		return identity.Identity{Kind: identity.KindAnonymous}
	}
	id, ok := val.(identity.Identity)
	if !ok {
		return identity.Identity{Kind: identity.KindAnonymous}
	}
	return id
}

// budgetUser returns the upstream budgeting hint for an identity. Only
// accounts are attributed; anonymous keys rotate daily and would pollute
// the upstream's budget table.
func budgetUser(id identity.Identity) string {
	if id.IsAccount() {
		return id.Key
	}
	return ""
}

// recordRelay appends a request log entry for a relay call. Recording
// outlives the request context so a caller abort still gets logged.
func recordRelay(c *gin.Context, recorder *usage.Recorder, kind, model string, id identity.Identity, start time.Time, apiErr *httpapi.Error) {
	entry := usage.Entry{
		RequestID:   c.GetString("requestID"),
		Kind:        kind,
		Model:       model,
		Identity:    id,
		RequestedAt: start,
		Duration:    time.Since(start),
	}
	if apiErr != nil {
		entry.Failed = true
		entry.StatusCode = apiErr.Status
		entry.ErrorDetail = map[string]string{"code": apiErr.Code, "message": apiErr.Message}
	}
	recorder.Record(context.WithoutCancel(c.Request.Context()), entry)
}
