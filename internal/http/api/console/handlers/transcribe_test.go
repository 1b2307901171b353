package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anayy09/Navigator-AI-Console/internal/config"
	"github.com/anayy09/Navigator-AI-Console/internal/relay"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
)

func newTranscribeEngine(t *testing.T, handler *TranscribeHandler, mw gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/api/transcribe", mw, handler.Create)
	return engine
}

// multipartAudio builds a multipart body with a "file" part and optional
// "model" field.
func multipartAudio(t *testing.T, filename, model string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, errPart := writer.CreateFormFile("file", filename)
	if errPart != nil {
		t.Fatalf("create form file: %v", errPart)
	}
	_, _ = part.Write([]byte("fake audio bytes"))
	if model != "" {
		_ = writer.WriteField("model", model)
	}
	if errClose := writer.Close(); errClose != nil {
		t.Fatalf("close writer: %v", errClose)
	}
	return &buf, writer.FormDataContentType()
}

func TestTranscribeRequiresFile(t *testing.T) {
	gate, conn, _ := newTestGate(t)
	handler := NewTranscribeHandler(gate, relay.New("http://127.0.0.1:0", "k"), usage.NewRecorder(conn), config.ModelConfig{Default: "whisper-large-v3"})
	engine := newTranscribeEngine(t, handler, withIdentity(anonIdentity("tok-t")))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("model", "whisper-large-v3")
	_ = writer.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "invalid_request") {
		t.Fatalf("expected invalid_request code, got %s", w.Body.String())
	}
}

func TestTranscribeRelaysUpstreamText(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if errParse := r.ParseMultipartForm(1 << 20); errParse != nil {
			http.Error(w, errParse.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"text":"hello world"}`)
	}))
	defer upstream.Close()

	gate, conn, counters := newTestGate(t)
	handler := NewTranscribeHandler(gate, relay.New(upstream.URL, "k"), usage.NewRecorder(conn), config.ModelConfig{Default: "whisper-large-v3"})
	engine := newTranscribeEngine(t, handler, withIdentity(anonIdentity("tok-t2")))

	body, contentType := multipartAudio(t, "clip.wav", "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Text string `json:"text"`
	}
	decodeJSONBody(t, w, &resp)
	if resp.Text != "hello world" {
		t.Fatalf("expected transcription text, got %s", w.Body.String())
	}
	if counters.counts["anon:tok-t2"] != 1 {
		t.Fatalf("expected one quota hit, got %d", counters.counts["anon:tok-t2"])
	}
}

func TestTranscribeQuotaExceeded(t *testing.T) {
	gate, conn, counters := newTestGate(t)
	counters.counts["anon:tok-t3"] = 2
	handler := NewTranscribeHandler(gate, relay.New("http://127.0.0.1:0", "k"), usage.NewRecorder(conn), config.ModelConfig{Default: "whisper-large-v3"})
	engine := newTranscribeEngine(t, handler, withIdentity(anonIdentity("tok-t3")))

	body, contentType := multipartAudio(t, "clip.wav", "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", w.Code, w.Body.String())
	}
}
