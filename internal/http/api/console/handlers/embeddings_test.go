package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anayy09/Navigator-AI-Console/internal/config"
	"github.com/anayy09/Navigator-AI-Console/internal/models"
	"github.com/anayy09/Navigator-AI-Console/internal/relay"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
)

func newEmbeddingsEngine(t *testing.T, handler *EmbeddingsHandler, mw gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/api/embeddings", mw, handler.Create)
	return engine
}

func newEmbeddingsUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2]}],"model":"nomic-embed-text-v1.5","usage":{"prompt_tokens":2,"total_tokens":2}}`)
	}))
}

func TestEmbeddingsRejectsEmptyInput(t *testing.T) {
	gate, conn, _ := newTestGate(t)
	handler := NewEmbeddingsHandler(gate, relay.New("http://127.0.0.1:0", "k"), usage.NewRecorder(conn), config.ModelConfig{Default: "nomic-embed-text-v1.5"})
	engine := newEmbeddingsEngine(t, handler, withIdentity(anonIdentity("tok-e")))

	for _, body := range []string{`{}`, `{"input":""}`, `{"input":"   "}`, `{"input":[]}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/embeddings", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestEmbeddingsRelaysUpstreamResponse(t *testing.T) {
	upstream := newEmbeddingsUpstream(t)
	defer upstream.Close()

	gate, conn, counters := newTestGate(t)
	handler := NewEmbeddingsHandler(gate, relay.New(upstream.URL, "k"), usage.NewRecorder(conn), config.ModelConfig{Default: "nomic-embed-text-v1.5"})
	engine := newEmbeddingsEngine(t, handler, withIdentity(anonIdentity("tok-e2")))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/embeddings", strings.NewReader(`{"input":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	decodeJSONBody(t, w, &resp)
	if len(resp.Data) != 1 || len(resp.Data[0].Embedding) != 2 {
		t.Fatalf("unexpected embeddings payload: %s", w.Body.String())
	}
	if counters.counts["anon:tok-e2"] != 1 {
		t.Fatalf("expected one quota hit, got %d", counters.counts["anon:tok-e2"])
	}

	var logRow models.RequestLog
	if errFind := conn.Where("kind = ?", "embeddings").First(&logRow).Error; errFind != nil {
		t.Fatalf("read request log: %v", errFind)
	}
	if logRow.Failed {
		t.Fatalf("successful relay must not be logged as failed")
	}
}

func TestEmbeddingsQuotaExceeded(t *testing.T) {
	gate, conn, counters := newTestGate(t)
	counters.counts["anon:tok-e3"] = 2
	handler := NewEmbeddingsHandler(gate, relay.New("http://127.0.0.1:0", "k"), usage.NewRecorder(conn), config.ModelConfig{Default: "nomic-embed-text-v1.5"})
	engine := newEmbeddingsEngine(t, handler, withIdentity(anonIdentity("tok-e3")))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/embeddings", strings.NewReader(`{"input":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", w.Code, w.Body.String())
	}
}
