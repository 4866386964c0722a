// Package store provides durable persistence for messages and tasks.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// Store is the persistence contract consumed by the service and the tools.
// Messages are append-only; tasks are scoped by owner on every path.
type Store interface {
	AppendMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error)

	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, userID, uid string) (*domain.Task, error)
	ListTasks(ctx context.Context, userID string, find *domain.FindTasks) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, userID, uid string, update *domain.UpdateTask) (*domain.Task, error)
	DeleteTask(ctx context.Context, userID, uid string) (bool, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		// seq is the commit-order key for per-user message ordering; the
		// created_at timestamp is informational only.
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, seq)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			uid TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendMessage appends one turn to the user's log and fills in msg.Seq.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	toolCalls := msg.ToolCalls
	if toolCalls == nil {
		toolCalls = []domain.ToolCallRecord{}
	}
	encoded, err := json.Marshal(toolCalls)
	if err != nil {
		return fmt.Errorf("failed to encode tool calls: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, user_id, role, content, tool_calls, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.UserID, string(msg.Role), msg.Content, string(encoded), msg.CreatedAt)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	msg.Seq = seq
	return nil
}

// ListMessages returns the user's history oldest first. limit <= 0 returns
// everything; a positive limit keeps the most recent messages.
func (s *SQLiteStore) ListMessages(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, message_id, user_id, role, content, tool_calls, created_at FROM messages WHERE user_id = ? ORDER BY seq ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role, toolCalls string
		if err := rows.Scan(&msg.Seq, &msg.MessageID, &msg.UserID, &role, &msg.Content, &toolCalls, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = domain.Role(role)
		if err := json.Unmarshal([]byte(toolCalls), &msg.ToolCalls); err != nil {
			return nil, fmt.Errorf("failed to decode tool calls for %s: %w", msg.MessageID, err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// CreateTask inserts a new task.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (uid, user_id, title, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.UID, task.UserID, task.Title, task.Description, task.Completed, task.CreatedAt, task.UpdatedAt)
	return err
}

// GetTask returns the task only if it belongs to userID, nil otherwise.
func (s *SQLiteStore) GetTask(ctx context.Context, userID, uid string) (*domain.Task, error) {
	var task domain.Task
	err := s.db.QueryRowContext(ctx,
		`SELECT uid, user_id, title, description, completed, created_at, updated_at FROM tasks WHERE uid = ? AND user_id = ?`,
		uid, userID).Scan(&task.UID, &task.UserID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns the user's tasks oldest first.
func (s *SQLiteStore) ListTasks(ctx context.Context, userID string, find *domain.FindTasks) ([]*domain.Task, error) {
	query := `SELECT uid, user_id, title, description, completed, created_at, updated_at FROM tasks WHERE user_id = ?`
	args := []interface{}{userID}
	if find != nil && find.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *find.Completed)
	}
	query += ` ORDER BY created_at ASC, uid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.UID, &task.UserID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

// UpdateTask applies the non-nil fields and returns the updated task, or
// nil when no task with that uid belongs to userID.
func (s *SQLiteStore) UpdateTask(ctx context.Context, userID, uid string, update *domain.UpdateTask) (*domain.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *update.Completed)
	}
	args = append(args, uid, userID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE uid = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetTask(ctx, userID, uid)
}

// DeleteTask removes the task if owned by userID. Returns false when the
// task does not exist or belongs to someone else.
func (s *SQLiteStore) DeleteTask(ctx context.Context, userID, uid string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE uid = ? AND user_id = ?`, uid, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
