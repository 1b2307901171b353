package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/config"
	"github.com/anayy09/Navigator-AI-Console/internal/httpapi"
	"github.com/anayy09/Navigator-AI-Console/internal/quota"
	"github.com/anayy09/Navigator-AI-Console/internal/relay"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
)

// TranscribeHandler relays audio transcription requests.
type TranscribeHandler struct {
	gate     *quota.Gate
	relay    *relay.Client
	recorder *usage.Recorder
	model    config.ModelConfig
}

// NewTranscribeHandler constructs a TranscribeHandler.
func NewTranscribeHandler(gate *quota.Gate, relayClient *relay.Client, recorder *usage.Recorder, model config.ModelConfig) *TranscribeHandler {
	return &TranscribeHandler{gate: gate, relay: relayClient, recorder: recorder, model: model}
}

// Create accepts a multipart form with a "file" field and an optional
// "model" field, gates the request, and relays it upstream.
func (h *TranscribeHandler) Create(c *gin.Context) {
	id := getIdentity(c)

	fileHeader, errFile := c.FormFile("file")
	if errFile != nil {
		httpapi.Write(c, httpapi.Validation("audio file is required"))
		return
	}
	model := h.model.Resolve(c.PostForm("model"))
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

	file, errOpen := fileHeader.Open()
	if errOpen != nil {
		httpapi.Write(c, httpapi.Internal(errOpen))
		return
	}
	defer func() { _ = file.Close() }()

	ctx, cancel := context.WithTimeout(c.Request.Context(), relay.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, errRelay := h.relay.Transcribe(ctx, relay.TranscribeRequest{
		Model:    model,
		Reader:   file,
		Filename: fileHeader.Filename,
	})
	if errRelay != nil {
		mapped := relay.MapError(errRelay)
		recordRelay(c, h.recorder, "transcribe", model, id, start, mapped)
		httpapi.Write(c, mapped)
		return
	}

	recordRelay(c, h.recorder, "transcribe", model, id, start, nil)
	c.JSON(http.StatusOK, resp)
}
