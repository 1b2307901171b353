package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Relay limits applied to every upstream call.
const (
	// RequestTimeout bounds a single upstream call, streaming included.
	RequestTimeout = 30 * time.Second
	// MaxHistoryMessages caps the conversation context sent upstream.
	MaxHistoryMessages = 20
	// MaxOutputTokens caps completion length.
	MaxOutputTokens = 2000
	// Temperature used for chat completions.
	Temperature = 0.7
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a normalized chat relay request.
type ChatRequest struct {
	Model    string    // Resolved model id.
	Messages []Message // Full conversation, oldest first.
	User     string    // Identity key forwarded for upstream budgeting.
}

// EmbeddingRequest is a normalized embedding relay request.
type EmbeddingRequest struct {
	Model string // Resolved model id.
	Input any    // String or list of strings.
	User  string // Identity key forwarded for upstream budgeting.
}

// TranscribeRequest is a normalized transcription relay request.
type TranscribeRequest struct {
	Model    string    // Resolved model id.
	Reader   io.Reader // Audio payload.
	Filename string    // Original filename, used for format detection upstream.
}

// Client relays requests to the upstream OpenAI-compatible gateway.
type Client struct {
	api     *openai.Client
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New constructs a relay client for the upstream gateway.
func New(baseURL, apiKey string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 5 * time.Second},
	}
}

// ChatStream opens a streaming chat completion. The caller owns the returned
// stream and must Close it; canceling ctx aborts the upstream read.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (*openai.ChatCompletionStream, error) {
	messages := boundHistory(req.Messages)
	upstream := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		upstream = append(upstream, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    upstream,
		Stream:      true,
		MaxTokens:   MaxOutputTokens,
		Temperature: Temperature,
		User:        req.User,
	})
}

// Embeddings relays a buffered embedding request.
func (c *Client) Embeddings(ctx context.Context, req EmbeddingRequest) (openai.EmbeddingResponse, error) {
	return c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(req.Model),
		Input: req.Input,
		User:  req.User,
	})
}

// Transcribe relays a buffered audio transcription request.
func (c *Client) Transcribe(ctx context.Context, req TranscribeRequest) (openai.AudioResponse, error) {
	return c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    req.Model,
		Reader:   req.Reader,
		FilePath: req.Filename,
	})
}

// Health probes the upstream /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if errReq != nil {
		return errReq
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, errDo := c.httpc.Do(req)
	if errDo != nil {
		return errDo
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("relay: upstream health status %d", resp.StatusCode)
	}
	return nil
}

// boundHistory keeps the most recent turns within the context window.
func boundHistory(messages []Message) []Message {
	if len(messages) <= MaxHistoryMessages {
		return messages
	}
	return messages[len(messages)-MaxHistoryMessages:]
}
