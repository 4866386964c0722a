package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lithammer/shortuuid/v4"
	"github.com/taskdeck/taskdeck/internal/domain"
	store "github.com/taskdeck/taskdeck/internal/repository"
)

const (
	maxTitleChars       = 255
	maxDescriptionChars = 4000

	// notFoundMessage is deliberately identical for missing and non-owned
	// tasks so a caller cannot probe for other users' task ids.
	notFoundMessage = "task not found"
)

// NewTaskRegistry builds the registry with the five task tools bound to the
// given store.
func NewTaskRegistry(s store.Store) (*Registry, error) {
	r := NewRegistry()
	for _, t := range []*Tool{
		addTaskTool(s),
		listTasksTool(s),
		completeTaskTool(s),
		updateTaskTool(s),
		deleteTaskTool(s),
	} {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func addTaskTool(s store.Store) *Tool {
	return &Tool{
		Name:        "add_task",
		Description: "Create a new task for the current user.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Short task title, required, at most 255 characters.",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional longer description, at most 4000 characters.",
				},
			},
			"required": []string{"title"},
		},
		Handler: func(ctx context.Context, userID string, args json.RawMessage) domain.ToolResult {
			var in struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return Failure("invalid_arguments", "arguments must be a JSON object")
			}
			title := strings.TrimSpace(in.Title)
			if title == "" {
				return Failure("invalid_arguments", "title must not be empty")
			}
			if utf8.RuneCountInString(title) > maxTitleChars {
				return Failure("invalid_arguments", "title exceeds 255 characters")
			}
			if utf8.RuneCountInString(in.Description) > maxDescriptionChars {
				return Failure("invalid_arguments", "description exceeds 4000 characters")
			}

			now := time.Now().UTC()
			task := &domain.Task{
				UID:         shortuuid.New(),
				UserID:      userID,
				Title:       title,
				Description: strings.TrimSpace(in.Description),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.CreateTask(ctx, task); err != nil {
				return Failure("internal", "failed to create task")
			}
			return domain.ToolResult{Success: true, Task: task}
		},
	}
}

func listTasksTool(s store.Store) *Tool {
	return &Tool{
		Name:        "list_tasks",
		Description: "List the current user's tasks, optionally filtered by completion state.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"completed": map[string]interface{}{
					"type":        "boolean",
					"description": "When set, return only tasks matching this completion state.",
				},
			},
		},
		Handler: func(ctx context.Context, userID string, args json.RawMessage) domain.ToolResult {
			var in struct {
				Completed *bool `json:"completed"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return Failure("invalid_arguments", "arguments must be a JSON object")
				}
			}
			tasks, err := s.ListTasks(ctx, userID, &domain.FindTasks{Completed: in.Completed})
			if err != nil {
				return Failure("internal", "failed to list tasks")
			}
			return domain.ToolResult{Success: true, Tasks: tasks}
		},
	}
}

func completeTaskTool(s store.Store) *Tool {
	return &Tool{
		Name:        "complete_task",
		Description: "Mark one of the current user's tasks as completed.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the task to complete.",
				},
			},
			"required": []string{"id"},
		},
		Handler: func(ctx context.Context, userID string, args json.RawMessage) domain.ToolResult {
			var in struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return Failure("invalid_arguments", "arguments must be a JSON object")
			}
			if strings.TrimSpace(in.ID) == "" {
				return Failure("invalid_arguments", "id must not be empty")
			}

			completed := true
			task, err := s.UpdateTask(ctx, userID, in.ID, &domain.UpdateTask{Completed: &completed})
			if err != nil {
				return Failure("internal", "failed to complete task")
			}
			if task == nil {
				return Failure("not_found", notFoundMessage)
			}
			return domain.ToolResult{Success: true, Task: task}
		},
	}
}

func updateTaskTool(s store.Store) *Tool {
	return &Tool{
		Name:        "update_task",
		Description: "Update the title or description of one of the current user's tasks.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the task to update.",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "New title, at most 255 characters.",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "New description, at most 4000 characters.",
				},
			},
			"required": []string{"id"},
		},
		Handler: func(ctx context.Context, userID string, args json.RawMessage) domain.ToolResult {
			var in struct {
				ID          string  `json:"id"`
				Title       *string `json:"title"`
				Description *string `json:"description"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return Failure("invalid_arguments", "arguments must be a JSON object")
			}
			if strings.TrimSpace(in.ID) == "" {
				return Failure("invalid_arguments", "id must not be empty")
			}
			if in.Title == nil && in.Description == nil {
				return Failure("invalid_arguments", "nothing to update: provide title or description")
			}

			update := &domain.UpdateTask{}
			if in.Title != nil {
				title := strings.TrimSpace(*in.Title)
				if title == "" {
					return Failure("invalid_arguments", "title must not be empty")
				}
				if utf8.RuneCountInString(title) > maxTitleChars {
					return Failure("invalid_arguments", "title exceeds 255 characters")
				}
				update.Title = &title
			}
			if in.Description != nil {
				desc := strings.TrimSpace(*in.Description)
				if utf8.RuneCountInString(desc) > maxDescriptionChars {
					return Failure("invalid_arguments", "description exceeds 4000 characters")
				}
				update.Description = &desc
			}

			task, err := s.UpdateTask(ctx, userID, in.ID, update)
			if err != nil {
				return Failure("internal", "failed to update task")
			}
			if task == nil {
				return Failure("not_found", notFoundMessage)
			}
			return domain.ToolResult{Success: true, Task: task}
		},
	}
}

func deleteTaskTool(s store.Store) *Tool {
	return &Tool{
		Name:        "delete_task",
		Description: "Delete one of the current user's tasks.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the task to delete.",
				},
			},
			"required": []string{"id"},
		},
		Handler: func(ctx context.Context, userID string, args json.RawMessage) domain.ToolResult {
			var in struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return Failure("invalid_arguments", "arguments must be a JSON object")
			}
			if strings.TrimSpace(in.ID) == "" {
				return Failure("invalid_arguments", "id must not be empty")
			}

			deleted, err := s.DeleteTask(ctx, userID, in.ID)
			if err != nil {
				return Failure("internal", "failed to delete task")
			}
			if !deleted {
				return Failure("not_found", notFoundMessage)
			}
			return domain.ToolResult{Success: true}
		},
	}
}
