// Package tools holds the closed set of task tools the reasoning engine may
// invoke, and the executor that dispatches to them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/taskdeck/taskdeck/internal/adapter/llm"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// Tool is one registered capability. Parameters is a JSON-schema object sent
// to the reasoning engine verbatim. The handler receives the authenticated
// owner and the raw arguments; it must scope every store access to that owner.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Handler     func(ctx context.Context, userID string, args json.RawMessage) domain.ToolResult
}

// Registry is the fixed tool set. It is populated once at startup and only
// read afterwards, so it needs no locking.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names are a programming error.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("tool must have a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get returns the named tool, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns the tool declarations advertised to the reasoning
// engine, in registration order.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}

// Execute runs one tool invocation and returns its durable record. The name
// and arguments come from the reasoning engine and are untrusted: unknown
// names produce a failed record without touching any handler or store, and
// handler failures are folded into the record rather than escaping. The
// arguments are preserved verbatim, valid or not.
func (r *Registry) Execute(ctx context.Context, userID, name string, args json.RawMessage) domain.ToolCallRecord {
	record := domain.ToolCallRecord{
		ToolName:  name,
		Arguments: args,
	}

	t := r.Get(name)
	if t == nil {
		slog.Warn("rejected unknown tool", "tool", name, "user_id", userID)
		record.Result = Failure("unknown_tool", fmt.Sprintf("tool %q is not available", name))
		return record
	}

	record.Result = t.Handler(ctx, userID, args)
	if !record.Result.Success && record.Result.Error != nil {
		slog.Warn("tool execution failed",
			"tool", name, "user_id", userID,
			"code", record.Result.Error.Code, "error", record.Result.Error.Message)
	}
	return record
}

// Failure builds a failed tool result.
func Failure(code, message string) domain.ToolResult {
	return domain.ToolResult{
		Success: false,
		Error:   &domain.ToolError{Code: code, Message: message},
	}
}
