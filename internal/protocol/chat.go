package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks a request body that fails shape validation. The gateway
// maps it to a 400 without touching the backend.
var ErrMalformed = errors.New("malformed chat request")

// Roles the chat-completion contract defines.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one conversational turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a validated chat-completion request. Typed fields are views
// over the loose body; the body itself is kept so unknown fields survive the
// round trip to the backend untouched.
type ChatRequest struct {
	Messages    []ChatMessage
	Model       string
	Temperature *float64
	MaxTokens   *int

	body map[string]any
}

// ParseChatRequest decodes and shape-checks a request body: messages must be
// a non-empty sequence and every element must carry a text content field.
func ParseChatRequest(raw []byte) (*ChatRequest, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	rawMsgs, ok := body["messages"].([]any)
	if !ok || len(rawMsgs) == 0 {
		return nil, fmt.Errorf("%w: messages must be a non-empty array", ErrMalformed)
	}

	msgs := make([]ChatMessage, 0, len(rawMsgs))
	for i, rm := range rawMsgs {
		obj, ok := rm.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: messages[%d] is not an object", ErrMalformed, i)
		}
		content, ok := obj["content"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: messages[%d] has no text content", ErrMalformed, i)
		}
		role, _ := obj["role"].(string)
		msgs = append(msgs, ChatMessage{Role: role, Content: content})
	}

	req := &ChatRequest{
		Messages: msgs,
		body:     body,
	}
	req.Model, _ = body["model"].(string)

	if v, present := body["temperature"]; present {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: temperature is not a number", ErrMalformed)
		}
		req.Temperature = &f
	}
	if v, present := body["max_tokens"]; present {
		f, ok := v.(float64)
		if !ok || f != float64(int(f)) {
			return nil, fmt.Errorf("%w: max_tokens is not an integer", ErrMalformed)
		}
		n := int(f)
		req.MaxTokens = &n
	}

	return req, nil
}

// Body exposes the loose request body for masking and forwarding. Mutations
// (masked messages, clamped temperature) are intentional and visible here.
func (r *ChatRequest) Body() map[string]any {
	return r.body
}

// ClampTemperature caps temperature at ceiling, filling it in when absent.
// Biasing the backend toward deterministic output is policy, not correctness;
// the ceiling is configurable.
func (r *ChatRequest) ClampTemperature(ceiling float64) {
	t := ceiling
	if r.Temperature != nil && *r.Temperature < ceiling {
		t = *r.Temperature
	}
	r.Temperature = &t
	r.body["temperature"] = t
}
