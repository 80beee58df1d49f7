package admin

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type UserRow struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type ListFilter struct {
	Query  string
	Role   string
	Limit  int
	Offset int
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=Admin Librarian Member"`
}

type Store interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]UserRow, int, error)
	GetUser(ctx context.Context, id int64) (*UserRow, error)
	// SetUserRole changes the role and bumps token_version.
	SetUserRole(ctx context.Context, id int64, role string) error
	BumpTokenVersion(ctx context.Context, id int64) error
	AdminCount(ctx context.Context) (int, error)
}
