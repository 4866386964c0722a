package llm

import "context"

// ChatClient defines the reasoning-engine boundary: full context in, text
// and zero or more tool-invocation requests out. A nil error does not
// guarantee a usable choice; callers must treat an empty Choices slice as an
// engine failure.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Ensure Client implements ChatClient.
var _ ChatClient = (*Client)(nil)
