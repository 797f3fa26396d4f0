// Package llm holds the remote advisor path: provider clients, the session
// abstraction, the prompt builder, the five-stage response parser, and the
// fallback chain that guarantees a valid Intent no matter how the advisor
// misbehaves.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"arbiter/internal/logging"
)

// Client is the narrow request/response contract to the advisor: prompt in,
// completion text out. The model's reasoning is opaque to this system.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// =============================================================================
// MOCK CLIENT - deterministic advisor for tests and offline runs
// =============================================================================

// MockClient returns canned responses in order, then repeats the last one.
// A nil response list fails every call, which exercises the fallback chain.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Delay     time.Duration
	calls     int
}

// Complete returns the next canned response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock advisor has no responses")
	}
	idx := m.calls - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

// Calls returns how many completions were requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// =============================================================================
// HTTP CLIENT - OpenAI-compatible chat completion endpoint
// =============================================================================

// HTTPConfig configures the OpenAI-compatible client.
type HTTPConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// HTTPClient talks to any OpenAI-compatible chat completion endpoint.
type HTTPClient struct {
	cfg        HTTPConfig
	httpClient *http.Client
}

// NewHTTPClient creates a client for the configured endpoint.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt as a single user message.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.LLMError("HTTPClient: request failed after %v: %v", time.Since(start), err)
		return "", fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logging.LLMError("HTTPClient: status %d: %s", resp.StatusCode, truncate(string(body), 200))
		return "", fmt.Errorf("advisor returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("advisor error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("advisor returned no choices")
	}

	logging.LLMDebug("HTTPClient: completion in %v (%d bytes)", time.Since(start), len(body))
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
