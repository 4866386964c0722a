package domain

import "time"

// Task is a single to-do item owned by exactly one user. Tasks are only
// mutated through tool executions, never directly by the chat cycle.
type Task struct {
	UID         string    `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateTask carries the mutable task fields. Nil means "leave unchanged".
type UpdateTask struct {
	Title       *string
	Description *string
	Completed   *bool
}

// FindTasks filters ListTasks. Nil Completed returns every task.
type FindTasks struct {
	Completed *bool
}
