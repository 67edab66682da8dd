package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tasksapp/apiserver/internal/store"
	"github.com/tasksapp/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

var (
	// ErrMissingFields is returned when a registration field is blank.
	ErrMissingFields = errors.New("missing required fields")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a token fails signature, expiry,
	// or subject checks.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthService verifies credentials and issues and validates bearer tokens.
type AuthService struct {
	users    UserRepository
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthService constructs an AuthService. A zero ttl selects the
// default of one hour.
func NewAuthService(users UserRepository, secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL == 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates an account and returns it along with a fresh token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (types.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return types.User{}, "", ErrMissingFields
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return types.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, "", err
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		return types.User{}, "", err
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// Login verifies email and password and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// IssueToken produces a signed token embedding the user id, expiring
// tokenTTL after issuance.
func (s *AuthService) IssueToken(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken checks signature and expiry and returns the embedded user id.
func (s *AuthService) VerifyToken(tokenString string) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
