package protocol

import (
	"errors"
	"testing"
)

func TestParseChatRequest(t *testing.T) {
	raw := []byte(`{
		"messages": [
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": "hello"}
		],
		"model": "local-chat",
		"temperature": 0.9,
		"max_tokens": 256,
		"vendor_extension": {"passthrough": true}
	}`)

	req, err := ParseChatRequest(raw)
	if err != nil {
		t.Fatalf("ParseChatRequest() error = %v", err)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != RoleSystem || req.Messages[1].Content != "hello" {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if req.Model != "local-chat" {
		t.Fatalf("model = %q", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != 0.9 {
		t.Fatalf("temperature = %v", req.Temperature)
	}
	if req.MaxTokens == nil || *req.MaxTokens != 256 {
		t.Fatalf("max_tokens = %v", req.MaxTokens)
	}
	if _, ok := req.Body()["vendor_extension"]; !ok {
		t.Fatalf("unknown field dropped from body")
	}
}

func TestParseChatRequestMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"invalid json", `{`},
		{"empty messages", `{"messages": []}`},
		{"messages wrong type", `{"messages": "hi"}`},
		{"element not object", `{"messages": ["hi"]}`},
		{"content missing", `{"messages": [{"role": "user"}]}`},
		{"content not text", `{"messages": [{"role": "user", "content": 42}]}`},
		{"temperature not number", `{"messages": [{"content": "x"}], "temperature": "hot"}`},
		{"max_tokens fractional", `{"messages": [{"content": "x"}], "max_tokens": 1.5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseChatRequest([]byte(tc.raw)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestClampTemperature(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"above ceiling", `{"messages":[{"content":"x"}], "temperature": 0.9}`, 0.3},
		{"below ceiling", `{"messages":[{"content":"x"}], "temperature": 0.1}`, 0.1},
		{"absent", `{"messages":[{"content":"x"}]}`, 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseChatRequest([]byte(tc.raw))
			if err != nil {
				t.Fatalf("ParseChatRequest() error = %v", err)
			}
			req.ClampTemperature(0.3)
			if req.Temperature == nil || *req.Temperature != tc.want {
				t.Fatalf("temperature = %v, want %v", req.Temperature, tc.want)
			}
			if req.Body()["temperature"] != tc.want {
				t.Fatalf("body temperature = %v, want %v", req.Body()["temperature"], tc.want)
			}
		})
	}
}
