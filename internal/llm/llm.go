// Package llm forwards chat and completion requests to an OpenAI-compatible
// provider. The decoded envelope covers only the fields the dispatcher
// needs; the raw upstream body is kept so unknown fields survive the trip.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds one provider call unless configured otherwise.
const DefaultTimeout = 30 * time.Second

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the provider-facing chat payload.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// CompletionRequest is the provider-facing completion payload.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Usage is the token accounting block providers return.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one generated alternative. Message is set for chat, Text for
// completions.
type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message,omitempty"`
	Text         string   `json:"text,omitempty"`
	FinishReason string   `json:"finish_reason"`
}

// Response is the minimal typed view of a provider response. Raw holds the
// upstream body verbatim; handlers write it through unchanged.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`

	Raw json.RawMessage `json:"-"`
}

// UpstreamError carries a provider's non-2xx reply so the dispatcher can
// propagate the original status and body where practical.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, firstLine(e.Body))
}

// JSONBody returns the upstream body when it is a JSON object, nil
// otherwise.
func (e *UpstreamError) JSONBody() json.RawMessage {
	trimmed := bytes.TrimSpace(e.Body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return nil
}

func firstLine(body []byte) string {
	text := strings.TrimSpace(string(body))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// Client talks to one OpenAI-compatible endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds a Client. The base URL is normalized to end in /v1 whatever
// variant the operator configured; a timeout of 0 selects DefaultTimeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		apiKey:  apiKey,
		client:  client,
	}
}

// NormalizeBaseURL strips any accidentally included operation suffix and
// guarantees a single trailing /v1 segment.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/completions")
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}

// Chat sends a chat request and returns the typed envelope plus the
// verbatim body.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*Response, error) {
	return c.post(ctx, c.baseURL+"/chat/completions", req)
}

// Complete sends a plain completion request.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Response, error) {
	return c.post(ctx, c.baseURL+"/completions", req)
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) (*Response, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding provider request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrap(err, "building provider request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling provider")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading provider response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}
	decoded := &Response{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, decoded); err != nil {
		return nil, errors.Wrap(err, "decoding provider response")
	}
	return decoded, nil
}
