package service

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// ListTasks returns the user's tasks, optionally filtered by completion
// state. This is the read-only inspection path; mutations go through the
// tool registry only.
func (s *Service) ListTasks(ctx context.Context, userID string, find *domain.FindTasks) ([]*domain.Task, error) {
	tasks, err := s.store.ListTasks(ctx, userID, find)
	if err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "failed to load tasks", err)
	}
	return tasks, nil
}
