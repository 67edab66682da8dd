package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tasksapp/apiserver/internal/services"
	"github.com/tasksapp/apiserver/internal/store"
	"github.com/tasksapp/apiserver/types"
)

// UserHandler provides registration, login, and profile endpoints.
type UserHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(authService *services.AuthService, userService *services.UserService) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(
	r chi.Router,
	authService *services.AuthService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(authService, userService)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Get("/profile", handler.Profile)
	r.With(authMiddleware).Delete("/profile", handler.DeleteProfile)
}

// Register creates a new account and returns its summary with a token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "please fill in all fields")
		case errors.Is(err, services.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "user already exists, login instead")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(user, token))
}

// Login verifies credentials and returns the user summary with a token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "invalid credentials, register instead")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(user, token))
}

// Profile returns the authenticated user's id, name, and email.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

// DeleteProfile removes the account and cascades to its tasks.
func (h *UserHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, AckResponse{Message: "user deleted successfully"})
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the register/login payload: the user summary plus a
// freshly issued token.
type AuthResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// ProfileResponse is the user summary without any credential material.
type ProfileResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newAuthResponse(user types.User, token string) AuthResponse {
	return AuthResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	}
}
