package service

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// ListMessages returns the user's conversation history, oldest first. A
// positive limit keeps only the most recent messages; limit <= 0 returns
// everything. The read is a pure query over the durable log; nothing is
// cached between calls.
func (s *Service) ListMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	messages, err := s.store.ListMessages(ctx, userID, limit)
	if err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "failed to load conversation history", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
