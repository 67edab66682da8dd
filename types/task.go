package types

import "time"

// Task represents a single to-do item owned by a user.
type Task struct {
	// ID is the unique identifier of the task.
	ID int `json:"id" db:"id"`

	// Text is the task's content.
	Text string `json:"text" db:"text"`

	// UserID references the user who owns the task. Every read and
	// write of a task is scoped by this field.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp when the task was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the task.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
