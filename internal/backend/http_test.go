package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPClientComplete(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)
	resp, err := c.Complete(context.Background(), map[string]any{"model": "m", "messages": []any{}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q, want /chat/completions", gotPath)
	}
	if gotBody["model"] != "m" {
		t.Fatalf("forwarded body = %#v", gotBody)
	}
	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) != 1 {
		t.Fatalf("choices = %#v", resp["choices"])
	}
}

func TestHTTPClientNonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal: ssn 123-45-6789"}`, http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)
	_, err := c.Complete(context.Background(), map[string]any{})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
	// The upstream error body must never surface through the error value.
	if strings.Contains(err.Error(), "123-45-6789") {
		t.Fatalf("error leaks upstream body: %v", err)
	}
}

func TestHTTPClientMalformedResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"non-json", "not json at all"},
		{"missing choices", `{"object":"chat.completion"}`},
		{"choices wrong type", `{"choices":"nope"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			c := NewHTTPClient(ts.URL, time.Second)
			if _, err := c.Complete(context.Background(), map[string]any{}); !errors.Is(err, ErrUpstream) {
				t.Fatalf("error = %v, want ErrUpstream", err)
			}
		})
	}
}

func TestHTTPClientTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, 20*time.Millisecond)
	if _, err := c.Complete(context.Background(), map[string]any{}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream on timeout", err)
	}
}

func TestNewSelectsMode(t *testing.T) {
	if _, err := New(Config{Mode: "http"}); err == nil {
		t.Fatalf("http mode without URL should fail")
	}
	c, err := New(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("auto mode error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("auto without URL = %T, want *MockClient", c)
	}
	c, err = New(Config{Mode: "auto", BaseURL: "http://localhost:9999"})
	if err != nil {
		t.Fatalf("auto mode with URL error = %v", err)
	}
	if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("auto with URL = %T, want *HTTPClient", c)
	}
	if _, err := New(Config{Mode: "bogus"}); err == nil {
		t.Fatalf("bogus mode should fail")
	}
}

func TestMockClientShape(t *testing.T) {
	c := NewMockClient()
	resp, err := c.Complete(context.Background(), map[string]any{"model": "local"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	choices := resp["choices"].([]any)
	msg := choices[0].(map[string]any)["message"].(map[string]any)
	if msg["content"] == "" {
		t.Fatalf("mock content empty")
	}
	if resp["model"] != "local" {
		t.Fatalf("model = %v, want local", resp["model"])
	}
}
