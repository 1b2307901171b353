package handlers

import (
	"net/http"

	"github.com/anayy09/Navigator-AI-Console/internal/httpapi"
	"github.com/anayy09/Navigator-AI-Console/internal/quota"
	"github.com/gin-gonic/gin"
)

// UsageHandler reports the caller's quota consumption.
type UsageHandler struct {
	gate *quota.Gate
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(gate *quota.Gate) *UsageHandler {
	return &UsageHandler{gate: gate}
}

// Get returns the current day's usage and limit for the resolved identity
// without incrementing anything.
func (h *UsageHandler) Get(c *gin.Context) {
	id := getIdentity(c)

	used, limit, errUsage := h.gate.Usage(c.Request.Context(), id)
	if errUsage != nil {
		httpapi.Write(c, httpapi.Internal(errUsage))
		return
	}

	c.JSON(http.StatusOK, gin.H{"used": used, "limit": limit})
}
