package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/config"
	"github.com/anayy09/Navigator-AI-Console/internal/httpapi"
	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/anayy09/Navigator-AI-Console/internal/quota"
	"github.com/anayy09/Navigator-AI-Console/internal/relay"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// doneSentinel terminates every successful event stream.
const doneSentinel = "data: [DONE]\n\n"

// ChatHandler relays chat completions as a server-sent event stream.
type ChatHandler struct {
	gate     *quota.Gate
	relay    *relay.Client
	recorder *usage.Recorder
	model    config.ModelConfig
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(gate *quota.Gate, relayClient *relay.Client, recorder *usage.Recorder, model config.ModelConfig) *ChatHandler {
	return &ChatHandler{gate: gate, relay: relayClient, recorder: recorder, model: model}
}

// chatRequest defines the request body for chat completions.
type chatRequest struct {
	Messages []relay.Message `json:"messages"`
	Model    string          `json:"model"`
}

// Completions gates the request, relays it upstream, and re-emits each
// upstream chunk verbatim as "data: <json>\n\n" followed by the [DONE]
// sentinel.
func (h *ChatHandler) Completions(c *gin.Context) {
	id := getIdentity(c)

	var body chatRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		httpapi.Write(c, httpapi.Validation("invalid json body"))
		return
	}
	if len(body.Messages) == 0 {
		httpapi.Write(c, httpapi.Validation("messages array is required"))
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
	stream, errStream := h.relay.ChatStream(ctx, relay.ChatRequest{
		Model:    model,
		Messages: body.Messages,
		User:     budgetUser(id),
	})
	if errStream != nil {
		mapped := relay.MapError(errStream)
		h.record(c, id, model, start, mapped)
		httpapi.Write(c, mapped)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for {
		chunk, errRecv := stream.Recv()
		if errors.Is(errRecv, io.EOF) {
			if _, errWrite := c.Writer.WriteString(doneSentinel); errWrite == nil {
				c.Writer.Flush()
			}
			h.record(c, id, model, start, nil)
			return
		}
		if errRecv != nil {
			// Headers are already out; the stream simply ends. A canceled
			// context here means the caller went away, which closes the
			// upstream connection through ctx.
			mapped := relay.MapError(errRecv)
			h.record(c, id, model, start, mapped)
			if ctx.Err() == nil {
				log.WithError(errRecv).WithField("identity", id.Key).Warn("chat stream interrupted")
			}
			return
		}

		data, errMarshal := json.Marshal(chunk)
		if errMarshal != nil {
			continue
		}
		if _, errWrite := c.Writer.WriteString("data: " + string(data) + "\n\n"); errWrite != nil {
			h.record(c, id, model, start, nil)
			return
		}
		c.Writer.Flush()
	}
}

// record appends a request log entry for the relay call.
func (h *ChatHandler) record(c *gin.Context, id identity.Identity, model string, start time.Time, apiErr *httpapi.Error) {
	recordRelay(c, h.recorder, "chat", model, id, start, apiErr)
}
