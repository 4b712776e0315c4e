package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client handles communication with OpenAI-compatible APIs. It speaks
// both request dialects: the structured /v1/responses shape for
// providers that enforce the JSON schema server-side, and the legacy
// chat-completions shape for everything else.
type Client struct {
	config Config
	http   *http.Client
}

// responsesRequest is the /v1/responses body.
type responsesRequest struct {
	Model string         `json:"model"`
	Input []Message      `json:"input"`
	Text  map[string]any `json:"text"`
}

// chatRequest is the legacy chat-completions body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// HTTPError carries the status and body of a failed API call, plus the
// Retry-After hint when the server sends one.
type HTTPError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a client for the given provider configuration.
func NewClient(config *Config) *Client {
	return &Client{
		config: *config,
		http: &http.Client{
			Timeout: time.Duration(config.TimeoutSecs) * time.Second,
		},
	}
}

// Complete sends one extraction attempt and returns the assistant text
// and the responding model name. Transport and 5xx/429 failures are
// retried with exponential backoff up to the configured limit.
func (c *Client) Complete(ctx context.Context, messages []Message) (text, model string, err error) {
	body, err := c.buildRequestBody(messages)
	if err != nil {
		return "", "", err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		text, model, err := c.send(ctx, body)
		if err == nil {
			return text, model, nil
		}
		lastErr = err

		if !retryable(err) || attempt == c.config.MaxRetries {
			break
		}

		// Exponential backoff: 1s, 2s, 4s.
		backoff := time.Duration(1<<attempt) * time.Second
		if httpErr, ok := err.(*HTTPError); ok && httpErr.StatusCode == 429 && httpErr.RetryAfter > 0 {
			backoff = httpErr.RetryAfter
		}

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", "", fmt.Errorf("model call failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) buildRequestBody(messages []Message) ([]byte, error) {
	var req any
	if c.config.UsesResponsesAPI() {
		req = responsesRequest{
			Model: c.config.Model,
			Input: messages,
			Text:  SchemaFormat(),
		}
	} else {
		req = chatRequest{
			Model:          c.config.Model,
			Messages:       messages,
			Temperature:    c.config.Temperature,
			ResponseFormat: &responseFormat{Type: "json_object"},
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, body []byte) (text, model string, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != 200 {
		var retryAfter time.Duration
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, err := strconv.Atoi(header); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return "", "", &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			RetryAfter: retryAfter,
		}
	}

	return DecodeEnvelope(respBody)
}

// retryable reports whether the error is worth another attempt:
// transport failures, rate limits, and server errors. 4xx other than
// 429 will not improve on retry.
func retryable(err error) bool {
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}
	return true
}
