package auth

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type RegisterRequest struct {
	Username string `json:"username" validate:"trimmed_min1,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest accepts the username or the email in Username.
type LoginRequest struct {
	Username string `json:"username" validate:"trimmed_min1"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	TokenVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type MeResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (User, error)
	// FindUserByLogin matches the username or the email.
	FindUserByLogin(ctx context.Context, login string) (User, error)
	FindUserByID(ctx context.Context, id int64) (User, error)
	UpdateUserPasswordHash(ctx context.Context, id int64, newHash string) error
	// ChangePassword stores the hash and bumps token_version, returning the new version.
	ChangePassword(ctx context.Context, id int64, newHash string) (int, error)
	BumpTokenVersion(ctx context.Context, id int64) (int, error)
	AuthState(ctx context.Context, id int64) (tokenVersion int, role string, err error)
}
