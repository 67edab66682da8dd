// Package client is a typed client for the tasksapp API. It holds the
// session token issued by register/login, sends it as a bearer header on
// protected calls, and drops back to the unauthenticated state when the
// server rejects the session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Session is the register/login response: the user summary plus token.
type Session struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Profile is the user summary returned by the profile endpoint.
type Profile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Task mirrors the server's task record.
type Task struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskPatch carries a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Text *string `json:"text,omitempty"`
}

// Client calls the tasksapp API. The zero token means unauthenticated;
// Register and Login set it, Logout and a rejected session clear it.
type Client struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string

	// HTTPClient is used for all requests.
	HTTPClient *http.Client

	// OnSessionExpired, when set, runs after a protected call comes
	// back 401 and the stored token has been cleared.
	OnSessionExpired func()

	mu    sync.Mutex
	token string
}

// New constructs a Client for the given server root.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns the stored session token, empty when unauthenticated.
// Callers persist it across restarts and hand it back via SetToken.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetToken restores a previously issued session token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Logout discards the session token.
func (c *Client) Logout() {
	c.SetToken("")
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/users/register", body, &session, false); err != nil {
		return Session{}, err
	}
	c.SetToken(session.Token)
	return session, nil
}

// Login verifies credentials and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &session, false); err != nil {
		return Session{}, err
	}
	c.SetToken(session.Token)
	return session, nil
}

// Profile fetches the authenticated user's summary.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var profile Profile
	err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &profile, true)
	return profile, err
}

// DeleteAccount removes the account and its tasks, then clears the session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/users/profile", nil, nil, true); err != nil {
		return err
	}
	c.Logout()
	return nil
}

// CreateTask persists a new task owned by the authenticated user.
func (c *Client) CreateTask(ctx context.Context, text string) (Task, error) {
	var task Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", map[string]string{"text": text}, &task, true)
	return task, err
}

// Tasks lists the authenticated user's tasks.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks, true)
	return tasks, err
}

// Task fetches one task by id.
func (c *Client) Task(ctx context.Context, id int) (Task, error) {
	var task Task
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, &task, true)
	return task, err
}

// UpdateTask applies a partial update and returns the updated record.
func (c *Client) UpdateTask(ctx context.Context, id int, patch TaskPatch) (Task, error) {
	var task Task
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), patch, &task, true)
	return task, err
}

// DeleteTask removes one task by id.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.Token())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		if authed && resp.StatusCode == http.StatusUnauthorized {
			c.Logout()
			if c.OnSessionExpired != nil {
				c.OnSessionExpired()
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
