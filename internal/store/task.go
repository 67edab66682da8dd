package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tasksapp/apiserver/types"
)

// TaskRepository handles persistence for tasks. Every query is scoped by
// the owning user id so one user can never reach another user's tasks.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	const query = `
		INSERT INTO tasks (text, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		task.Text,
		task.UserID,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID); err != nil {
		return types.Task{}, err
	}
	return task, nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID int) ([]types.Task, error) {
	const query = `
		SELECT id, text, user_id, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []types.Task
	for rows.Next() {
		var task types.Task
		if err := rows.Scan(
			&task.ID,
			&task.Text,
			&task.UserID,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, userID, taskID int) (types.Task, error) {
	const query = `
		SELECT id, text, user_id, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2`
	var task types.Task
	err := r.db.QueryRowContext(ctx, query, taskID, userID).Scan(
		&task.ID,
		&task.Text,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task types.Task) (types.Task, error) {
	task.UpdatedAt = time.Now()

	const query = `
		UPDATE tasks
		SET text = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		task.Text,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return types.Task{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Task{}, err
	}
	if affected == 0 {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
