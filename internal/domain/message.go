package domain

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one durably stored conversation turn. Messages for a user form
// an append-only sequence ordered by commit order (Seq), never by
// client-supplied time. They are never updated or deleted.
type Message struct {
	MessageID string           `json:"message_id"`
	Seq       int64            `json:"-"`
	UserID    string           `json:"-"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ToolCallRecord `json:"tool_calls"`
	CreatedAt time.Time        `json:"created_at"`
}

// ToolCallRecord is the durable record of one tool invocation attempt,
// embedded in the assistant message that triggered it. Arguments are kept
// exactly as the reasoning engine submitted them, valid or not.
type ToolCallRecord struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    ToolResult      `json:"result"`
}

// ToolResult is the success-or-failure outcome of a tool invocation.
// The payload variants form a closed union matching the closed tool set.
type ToolResult struct {
	Success bool       `json:"success"`
	Task    *Task      `json:"task,omitempty"`
	Tasks   []*Task    `json:"tasks,omitempty"`
	Error   *ToolError `json:"error,omitempty"`
}

// ToolError describes a failed tool invocation in a form safe to surface
// back to the reasoning engine and the user.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatResponse is the fixed response payload of one chat cycle. ToolCalls is
// always present, empty when the cycle executed no tools.
type ChatResponse struct {
	MessageID string           `json:"message_id"`
	Content   string           `json:"content"`
	Role      Role             `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
	ToolCalls []ToolCallRecord `json:"tool_calls"`
}
