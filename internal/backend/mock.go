package backend

import "context"

// MockClient returns a canned completion for local development and tests.
type MockClient struct {
	Content string
}

func NewMockClient() *MockClient {
	return &MockClient{Content: "This is a mock completion."}
}

func (c *MockClient) Complete(_ context.Context, body map[string]any) (map[string]any, error) {
	model, _ := body["model"].(string)
	if model == "" {
		model = "mock"
	}
	return map[string]any{
		"model": model,
		"choices": []any{
			map[string]any{
				"index": float64(0),
				"message": map[string]any{
					"role":    "assistant",
					"content": c.Content,
				},
				"finish_reason": "stop",
			},
		},
	}, nil
}
