package llm

import (
	"log/slog"
	"os"
	"time"
)

const (
	// EnvMode selects the client implementation.
	EnvMode = "TASKDECK_MODE"
	// ModeMock indicates the scriptable mock should be used.
	ModeMock = "MOCK"
)

// NewChatClient creates a ChatClient based on TASKDECK_MODE. MOCK returns
// the scriptable mock; anything else returns the real HTTP client.
func NewChatClient(baseURL, apiKey string, timeout time.Duration) ChatClient {
	if os.Getenv(EnvMode) == ModeMock {
		slog.Info("TASKDECK_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
