package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tasksapp/apiserver/internal/handlers"
	"github.com/tasksapp/apiserver/internal/services"
	"github.com/tasksapp/apiserver/internal/store"
	"github.com/tasksapp/apiserver/types"
)

const testSecret = "test-secret"

// fakeState backs the in-memory user and task repositories so handler
// tests run against the real router, middleware, and services.
type fakeState struct {
	mu         sync.Mutex
	nextUserID int
	nextTaskID int
	users      map[int]types.User
	tasks      map[int]types.Task
}

func newFakeState() *fakeState {
	return &fakeState{
		nextUserID: 1,
		nextTaskID: 1,
		users:      map[int]types.User{},
		tasks:      map[int]types.Task{},
	}
}

func (s *fakeState) taskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *fakeState) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *fakeState) removeUser(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

type fakeUserRepo struct{ s *fakeState }

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.nextUserID
	r.s.nextUserID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) DeleteWithTasks(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.users, id)
	for taskID, task := range r.s.tasks {
		if task.UserID == id {
			delete(r.s.tasks, taskID)
		}
	}
	return nil
}

type fakeTaskRepo struct{ s *fakeState }

func (r *fakeTaskRepo) Create(ctx context.Context, task types.Task) (types.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task.ID = r.s.nextTaskID
	r.s.nextTaskID++
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.s.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) ListByUser(ctx context.Context, userID int) ([]types.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var tasks []types.Task
	for id := 1; id < r.s.nextTaskID; id++ {
		if task, ok := r.s.tasks[id]; ok && task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, userID, taskID int) (types.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task, ok := r.s.tasks[taskID]
	if !ok || task.UserID != userID {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task types.Task) (types.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return types.Task{}, store.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	r.s.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, userID, taskID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task, ok := r.s.tasks[taskID]
	if !ok || task.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.s.tasks, taskID)
	return nil
}

// newTestRouter wires the real routers and auth gate over fake repos.
func newTestRouter(t *testing.T) (*chi.Mux, *fakeState) {
	t.Helper()

	state := newFakeState()
	userRepo := &fakeUserRepo{s: state}
	taskRepo := &fakeTaskRepo{s: state}

	authService := services.NewAuthService(userRepo, testSecret, time.Hour)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo)

	authMiddleware := handlers.RequireAuth(authService, userService)

	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, authService, userService, authMiddleware)
	})
	router.Route("/api/tasks", func(r chi.Router) {
		handlers.TaskRouter(r, taskService, authMiddleware)
	})
	return router, state
}

// doRequest sends a JSON request through the router. An empty token
// leaves the Authorization header unset.
func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type authResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func registerUser(t *testing.T, router http.Handler, name, email, password string) authResponse {
	t.Helper()

	w := doRequest(t, router, http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, "register response: %s", w.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp
}
