package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

const userColumns = `id, username, email, password_hash, role, token_version, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.TokenVersion, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// CreateUser inserts a user; the role column defaults to Member.
func (s *SQLStore) CreateUser(ctx context.Context, username, email, passwordHash string) (User, error) {
	q := `
INSERT INTO users (username, email, password_hash)
VALUES ($1, $2, $3)
RETURNING ` + userColumns
	return scanUser(s.DB.QueryRowContext(ctx, q, username, strings.ToLower(email), passwordHash))
}

func (s *SQLStore) FindUserByLogin(ctx context.Context, login string) (User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = lower($1) LIMIT 1`
	return scanUser(s.DB.QueryRowContext(ctx, q, login))
}

func (s *SQLStore) FindUserByID(ctx context.Context, id int64) (User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.DB.QueryRowContext(ctx, q, id))
}

func (s *SQLStore) UpdateUserPasswordHash(ctx context.Context, id int64, newHash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, q, newHash, id)
	return err
}

func (s *SQLStore) ChangePassword(ctx context.Context, id int64, newHash string) (int, error) {
	const q = `
UPDATE users
   SET password_hash = $1, token_version = token_version + 1, updated_at = now()
 WHERE id = $2
RETURNING token_version`
	var tv int
	err := s.DB.QueryRowContext(ctx, q, newHash, id).Scan(&tv)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return tv, err
}

func (s *SQLStore) BumpTokenVersion(ctx context.Context, id int64) (int, error) {
	const q = `UPDATE users SET token_version = token_version + 1, updated_at = now() WHERE id = $1 RETURNING token_version`
	var tv int
	err := s.DB.QueryRowContext(ctx, q, id).Scan(&tv)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return tv, err
}

// AuthState backs RequireAuth. Unknown users surface as a wrapped sql.ErrNoRows.
func (s *SQLStore) AuthState(ctx context.Context, id int64) (int, string, error) {
	var (
		tv   int
		role string
	)
	err := s.DB.QueryRowContext(ctx, `SELECT token_version, role FROM users WHERE id = $1`, id).Scan(&tv, &role)
	if err != nil {
		return 0, "", fmt.Errorf("auth state for user %d: %w", id, err)
	}
	return tv, role, nil
}
