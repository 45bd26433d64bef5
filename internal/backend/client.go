package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUpstream marks any backend-side failure: unreachable, non-success status,
// or a response that does not follow the chat-completion contract. Errors
// wrapping it carry status metadata only, never response content, so they are
// safe to log.
var ErrUpstream = errors.New("upstream failure")

// Client produces a chat completion for an already-sanitized request body.
type Client interface {
	Complete(ctx context.Context, body map[string]any) (map[string]any, error)
}

// Config controls client construction.
type Config struct {
	Mode    string
	BaseURL string
	Timeout time.Duration
}

// New selects a client implementation by mode.
func New(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.BaseURL) != "" {
			return NewHTTPClient(cfg.BaseURL, cfg.Timeout), nil
		}
		return NewMockClient(), nil
	case "http":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, errors.New("backend base URL is required for http mode")
		}
		return NewHTTPClient(cfg.BaseURL, cfg.Timeout), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported backend mode %q", cfg.Mode)
	}
}
