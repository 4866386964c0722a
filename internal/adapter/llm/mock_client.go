package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient is a scriptable ChatClient for tests and offline mode. Queued
// responses are returned in order; once the queue is empty it falls back to
// an echo response.
type MockClient struct {
	mu       sync.Mutex
	queue    []*ChatCompletionResponse
	err      error
	Requests []*ChatCompletionRequest
}

var _ ChatClient = (*MockClient)(nil)

// NewMockClient creates an empty mock.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Enqueue appends scripted responses.
func (m *MockClient) Enqueue(resps ...*ChatCompletionResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resps...)
}

// Fail makes every subsequent call return err.
func (m *MockClient) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CreateChatCompletion records the request and pops the next scripted
// response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp, nil
	}

	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = req.Messages[i].Content
			break
		}
	}
	return TextResponse(fmt.Sprintf("[MOCK] Received your message: %q.", truncate(lastUser, 100))), nil
}

// TextResponse builds a plain assistant answer.
func TextResponse(content string) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "mock",
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
	}
}

// ToolCallResponse builds an assistant turn requesting the given tools.
func ToolCallResponse(calls ...ToolCall) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "mock",
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: "assistant", ToolCalls: calls},
				FinishReason: "tool_calls",
			},
		},
	}
}

// Call is a convenience constructor for a scripted tool call.
func Call(id, name, arguments string) ToolCall {
	return ToolCall{
		ID:   id,
		Type: "function",
		Function: ToolCallFunction{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
