package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &domain.Message{
		MessageID: "msg_1",
		UserID:    "u1",
		Role:      domain.RoleAssistant,
		Content:   "done",
		ToolCalls: []domain.ToolCallRecord{
			{
				ToolName:  "add_task",
				Arguments: json.RawMessage(`{"title":"buy milk"}`),
				Result: domain.ToolResult{
					Success: true,
					Task:    &domain.Task{UID: "t1", Title: "buy milk"},
				},
			},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.AppendMessage(ctx, msg))
	assert.NotZero(t, msg.Seq)

	got, err := s.ListMessages(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "msg_1", got[0].MessageID)
	assert.Equal(t, domain.RoleAssistant, got[0].Role)
	assert.Equal(t, "done", got[0].Content)
	require.Len(t, got[0].ToolCalls, 1)
	assert.Equal(t, "add_task", got[0].ToolCalls[0].ToolName)
	assert.JSONEq(t, `{"title":"buy milk"}`, string(got[0].ToolCalls[0].Arguments))
	assert.True(t, got[0].ToolCalls[0].Result.Success)
	require.NotNil(t, got[0].ToolCalls[0].Result.Task)
	assert.Equal(t, "t1", got[0].ToolCalls[0].Result.Task.UID)
}

func TestListMessagesOrderAndIdempotence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Deliberately skewed timestamps: ordering must follow commit order.
	base := time.Now().UTC()
	for i, ts := range []time.Time{base, base.Add(-time.Hour), base.Add(time.Hour)} {
		msg := &domain.Message{
			MessageID: "msg_" + string(rune('a'+i)),
			UserID:    "u1",
			Role:      domain.RoleUser,
			Content:   "m",
			CreatedAt: ts,
		}
		require.NoError(t, s.AppendMessage(ctx, msg))
	}

	first, err := s.ListMessages(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "msg_a", first[0].MessageID)
	assert.Equal(t, "msg_b", first[1].MessageID)
	assert.Equal(t, "msg_c", first[2].MessageID)

	second, err := s.ListMessages(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListMessagesLimitKeepsTail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := &domain.Message{
			MessageID: "msg_" + string(rune('0'+i)),
			UserID:    "u1",
			Role:      domain.RoleUser,
			Content:   "m",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, s.AppendMessage(ctx, msg))
	}

	got, err := s.ListMessages(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "msg_3", got[0].MessageID)
	assert.Equal(t, "msg_4", got[1].MessageID)
}

func TestMessagesScopedByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendMessage(ctx, &domain.Message{
		MessageID: "msg_a", UserID: "u1", Role: domain.RoleUser, Content: "mine", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.AppendMessage(ctx, &domain.Message{
		MessageID: "msg_b", UserID: "u2", Role: domain.RoleUser, Content: "theirs", CreatedAt: time.Now().UTC(),
	}))

	got, err := s.ListMessages(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "msg_a", got[0].MessageID)
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	task := &domain.Task{UID: "t1", UserID: "u1", Title: "buy milk", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateTask(ctx, task))

	got, err := s.GetTask(ctx, "u1", "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "buy milk", got.Title)
	assert.False(t, got.Completed)

	completed := true
	title := "buy oat milk"
	updated, err := s.UpdateTask(ctx, "u1", "t1", &domain.UpdateTask{Title: &title, Completed: &completed})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "buy oat milk", updated.Title)
	assert.True(t, updated.Completed)

	deleted, err := s.DeleteTask(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = s.GetTask(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTaskOwnershipScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateTask(ctx, &domain.Task{UID: "t1", UserID: "owner", Title: "secret", CreatedAt: now, UpdatedAt: now}))

	got, err := s.GetTask(ctx, "intruder", "t1")
	require.NoError(t, err)
	assert.Nil(t, got)

	title := "hijacked"
	updated, err := s.UpdateTask(ctx, "intruder", "t1", &domain.UpdateTask{Title: &title})
	require.NoError(t, err)
	assert.Nil(t, updated)

	deleted, err := s.DeleteTask(ctx, "intruder", "t1")
	require.NoError(t, err)
	assert.False(t, deleted)

	// The owner's task is untouched.
	got, err = s.GetTask(ctx, "owner", "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "secret", got.Title)
}

func TestListTasksFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateTask(ctx, &domain.Task{UID: "t1", UserID: "u1", Title: "open", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.CreateTask(ctx, &domain.Task{UID: "t2", UserID: "u1", Title: "done", Completed: true, CreatedAt: now.Add(time.Second), UpdatedAt: now}))

	all, err := s.ListTasks(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := true
	done, err := s.ListTasks(ctx, "u1", &domain.FindTasks{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "t2", done[0].UID)

	none, err := s.ListTasks(ctx, "u2", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
