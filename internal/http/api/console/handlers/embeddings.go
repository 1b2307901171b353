package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/config"
	"github.com/anayy09/Navigator-AI-Console/internal/httpapi"
	"github.com/anayy09/Navigator-AI-Console/internal/quota"
	"github.com/anayy09/Navigator-AI-Console/internal/relay"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
)

// EmbeddingsHandler relays embedding requests.
type EmbeddingsHandler struct {
	gate     *quota.Gate
	relay    *relay.Client
	recorder *usage.Recorder
	model    config.ModelConfig
}

// NewEmbeddingsHandler constructs an EmbeddingsHandler.
func NewEmbeddingsHandler(gate *quota.Gate, relayClient *relay.Client, recorder *usage.Recorder, model config.ModelConfig) *EmbeddingsHandler {
	return &EmbeddingsHandler{gate: gate, relay: relayClient, recorder: recorder, model: model}
}

// embeddingsRequest defines the request body for embeddings.
type embeddingsRequest struct {
	Input any    `json:"input"`
	Model string `json:"model"`
}

// Create gates the request and relays it upstream, returning the upstream
// JSON payload unchanged.
func (h *EmbeddingsHandler) Create(c *gin.Context) {
	id := getIdentity(c)

	var body embeddingsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		httpapi.Write(c, httpapi.Validation("invalid json body"))
		return
	}
	if emptyInput(body.Input) {
		httpapi.Write(c, httpapi.Validation("input text is required"))
		return
	}
	model := h.model.Resolve(body.Model)
	if !h.model.Allows(model) {
		httpapi.Write(c, httpapi.Validation("unsupported model: "+model))
		return
	}

	decision, errCheck := h.gate.CheckAndIncrement(c.Request.Context(), id)
	if errCheck != nil {
		httpapi.Write(c, httpapi.Internal(errCheck))
		return
	}
	if !decision.Allowed {
		httpapi.Write(c, httpapi.QuotaExceeded())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), relay.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, errRelay := h.relay.Embeddings(ctx, relay.EmbeddingRequest{
		Model: model,
		Input: body.Input,
		User:  budgetUser(id),
	})
	if errRelay != nil {
		mapped := relay.MapError(errRelay)
		recordRelay(c, h.recorder, "embeddings", model, id, start, mapped)
		httpapi.Write(c, mapped)
		return
	}

	recordRelay(c, h.recorder, "embeddings", model, id, start, nil)
	c.JSON(http.StatusOK, resp)
}

// emptyInput reports whether the embeddings input is missing or blank.
func emptyInput(input any) bool {
	switch v := input.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
