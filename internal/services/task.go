package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tasksapp/apiserver/types"
)

// ErrEmptyText is returned when a task is created or updated with no text.
var ErrEmptyText = errors.New("task text is required")

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task types.Task) (types.Task, error)
	ListByUser(ctx context.Context, userID int) ([]types.Task, error)
	GetByID(ctx context.Context, userID, taskID int) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, userID, taskID int) error
}

// TaskPatch carries a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Text *string `json:"text"`
}

// TaskService encapsulates task use-cases scoped to the owning user.
type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, userID int, text string) (types.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Task{}, ErrEmptyText
	}
	return s.repo.Create(ctx, types.Task{Text: text, UserID: userID})
}

// List returns all tasks owned by userID. An empty result is an empty
// slice, never nil, so it serializes as a JSON array.
func (s *TaskService) List(ctx context.Context, userID int) ([]types.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []types.Task{}
	}
	return tasks, nil
}

func (s *TaskService) GetByID(ctx context.Context, userID, taskID int) (types.Task, error) {
	return s.repo.GetByID(ctx, userID, taskID)
}

// Update applies a partial merge of the patch onto the stored task and
// returns the updated record.
func (s *TaskService) Update(ctx context.Context, userID, taskID int, patch TaskPatch) (types.Task, error) {
	task, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		return types.Task{}, err
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return types.Task{}, ErrEmptyText
		}
		task.Text = text
	}

	return s.repo.Update(ctx, task)
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID int) error {
	return s.repo.Delete(ctx, userID, taskID)
}
