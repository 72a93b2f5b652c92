// Package llm implements the language-model decision provider. It speaks
// the Ollama-compatible /api/chat protocol to a locally hosted model and
// adapts free-form model output into validated game decisions.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	// Some servers put the text at the top level instead.
	Content string `json:"content"`
}

// Client is an HTTP client for an Ollama-compatible chat endpoint.
type Client struct {
	host   string
	model  string
	http   *http.Client
	logger *log.Logger
}

// NewClient creates a chat client. The timeout bounds the full request;
// the dispatcher applies its own, shorter decision deadline on top.
func NewClient(host, model string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithPrefix("llm"),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// ModelName returns a display-friendly model name with any ":tag" size or
// version suffix stripped.
func (c *Client) ModelName() string {
	name, _, _ := strings.Cut(c.model, ":")
	return strings.ToUpper(name)
}

// Chat sends a non-streaming chat request and returns the model's full
// text reply.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	url := c.host + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request to %s: unexpected status %s", url, resp.Status)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}

	content := parsed.Message.Content
	if content == "" {
		content = parsed.Content
	}
	c.logger.Debug("Chat completed", "model", c.model, "chars", len(content))
	return strings.TrimSpace(content), nil
}
