package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// HTTPClient forwards completions to a chat-completion-compatible HTTP backend.
type HTTPClient struct {
	url    string
	client *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		url: strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/chat/completions",
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Complete POSTs the sanitized body and returns the decoded response. A single
// timeout bounds the call and there is no retry; retrying could double-consume
// backend capacity. Error values never include response bytes.
func (c *HTTPClient) Complete(ctx context.Context, body map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// Drain without surfacing: the body may echo structured content.
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		return nil, fmt.Errorf("%w: backend status %d", ErrUpstream, res.StatusCode)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: non-JSON response body", ErrUpstream)
	}
	if _, ok := obj["choices"].([]any); !ok {
		return nil, fmt.Errorf("%w: response missing choices", ErrUpstream)
	}
	return obj, nil
}
