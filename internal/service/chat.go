package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck/internal/adapter/llm"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/tools"
)

const systemPrompt = `You are a task management assistant. You help the user track their to-do list through the available task tools. Use the tools to create, list, update, complete and delete tasks when the user asks for it; answer in plain language otherwise. Keep answers short and concrete. When a tool fails, explain the failure to the user instead of retrying blindly.`

// Chat runs one complete chat cycle for userID: gate the raw message, load
// history, persist the user turn, drive the reasoning engine with the tool
// registry, persist the assistant turn and return it.
//
// The user turn, once stored, is never retracted: later failures still
// return an error but the stored message stays queryable for the next
// attempt. The assistant turn is stored before it is returned.
func (s *Service) Chat(ctx context.Context, userID, rawMessage string) (*domain.ChatResponse, error) {
	content, err := s.gate.Admit(userID, rawMessage)
	if err != nil {
		return nil, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	history, err := s.store.ListMessages(ctx, userID, s.config.MaxHistoryMessages)
	if err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "failed to load conversation history", err)
	}

	now := time.Now().UTC()
	userMsg := &domain.Message{
		MessageID: newMessageID(),
		UserID:    userID,
		Role:      domain.RoleUser,
		Content:   content,
		ToolCalls: []domain.ToolCallRecord{},
		CreatedAt: now,
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "failed to store message", err)
	}

	// The user turn is durable now. Detach from the caller's cancellation so
	// a dropped connection cannot leave a task mutation without its stored
	// assistant explanation.
	ctx = context.WithoutCancel(ctx)

	finalContent, records, err := s.runAgentLoop(ctx, userID, history, content)
	if err != nil {
		return nil, err
	}

	assistantMsg := &domain.Message{
		MessageID: newMessageID(),
		UserID:    userID,
		Role:      domain.RoleAssistant,
		Content:   finalContent,
		ToolCalls: records,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "failed to store message", err)
	}

	slog.Info("chat cycle completed",
		"user_id", userID,
		"message_id", assistantMsg.MessageID,
		"tool_calls", len(records))

	return &domain.ChatResponse{
		MessageID: assistantMsg.MessageID,
		Content:   assistantMsg.Content,
		Role:      assistantMsg.Role,
		CreatedAt: assistantMsg.CreatedAt,
		ToolCalls: records,
	}, nil
}

// runAgentLoop drives the reasoning engine until it answers without
// requesting tools, or the round budget runs out. Tool failures are folded
// into their records and fed back to the engine; only engine-level failures
// abort the loop.
func (s *Service) runAgentLoop(ctx context.Context, userID string, history []domain.Message, userContent string) (string, []domain.ToolCallRecord, error) {
	convo := make([]llm.ChatMessage, 0, len(history)+2)
	convo = append(convo, llm.ChatMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		convo = append(convo, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	convo = append(convo, llm.ChatMessage{Role: string(domain.RoleUser), Content: userContent})

	defs := s.registry.Definitions()
	records := []domain.ToolCallRecord{}

	for round := 0; round < s.config.MaxAgentRounds; round++ {
		resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
			Model:    s.config.LLMModel,
			Messages: convo,
			Tools:    defs,
		})
		if err != nil {
			return "", nil, domain.Wrap(domain.KindUpstreamAgent, "assistant is temporarily unavailable", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
			return "", nil, domain.E(domain.KindUpstreamAgent, "assistant is temporarily unavailable")
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			return msg.Content, records, nil
		}

		convo = append(convo, *msg)
		// Duplicate tool-call ids are deduplicated within one engine
		// response; a fresh response may legitimately reuse an id.
		executed := map[string]bool{}
		for _, call := range msg.ToolCalls {
			record := s.executeCall(ctx, userID, call, executed)
			records = append(records, record)

			result, err := json.Marshal(record.Result)
			if err != nil {
				result = []byte(`{"success":false}`)
			}
			convo = append(convo, llm.ChatMessage{
				Role:       "tool",
				Content:    string(result),
				ToolCallID: call.ID,
			})
		}
	}

	slog.Warn("agent round budget exhausted", "user_id", userID, "rounds", s.config.MaxAgentRounds)
	return "I could not finish processing that request. The tool results so far are recorded; please try again.", records, nil
}

// executeCall runs one requested tool call through the policy guard and the
// registry, producing its durable record. Requests the engine resubmits under
// an id that already ran are not executed again.
func (s *Service) executeCall(ctx context.Context, userID string, call llm.ToolCall, executed map[string]bool) domain.ToolCallRecord {
	name := call.Function.Name
	args := json.RawMessage(call.Function.Arguments)
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	if call.ID != "" && executed[call.ID] {
		return domain.ToolCallRecord{
			ToolName:  name,
			Arguments: args,
			Result:    tools.Failure("duplicate_call", "tool call was already executed"),
		}
	}
	if call.ID != "" {
		executed[call.ID] = true
	}

	policyInput := map[string]interface{}{
		"tool_name": name,
		"user_id":   userID,
		"args":      map[string]interface{}{},
	}
	var argsMap map[string]interface{}
	if err := json.Unmarshal(args, &argsMap); err == nil {
		policyInput["args"] = argsMap
	}

	decision, reason, err := s.policyEngine.Evaluate(ctx, policyInput)
	if err != nil {
		slog.Error("policy evaluation failed", "tool", name, "user_id", userID, "error", err)
		return domain.ToolCallRecord{
			ToolName:  name,
			Arguments: args,
			Result:    tools.Failure("blocked", "tool call was not permitted"),
		}
	}
	if decision != "allow" {
		slog.Warn("policy blocked tool call", "tool", name, "user_id", userID, "reason", reason)
		return domain.ToolCallRecord{
			ToolName:  name,
			Arguments: args,
			Result:    tools.Failure("blocked", "tool call was not permitted"),
		}
	}

	return s.registry.Execute(ctx, userID, name, args)
}

func newMessageID() string {
	return "msg_" + uuid.New().String()[:8]
}
