package adminstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	admin "github.com/5w1tchy/bookshelf-api/internal/api/handlers/admin"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
)

type Store struct{ db *sql.DB }

func New(db *sql.DB) admin.Store { return &Store{db: db} }

// ---------- helpers ----------

func buildListUsersQuery(f admin.ListFilter) (where string, args []any) {
	clauses := make([]string, 0, 2)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, shared.ContainsPattern(q))
		clauses = append(clauses, fmt.Sprintf("(email ILIKE $%d OR username ILIKE $%d)", len(args), len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return admin.ErrUserNotFound
	}
	return nil
}

// ---------- methods ----------

func (s *Store) ListUsers(ctx context.Context, f admin.ListFilter) ([]admin.UserRow, int, error) {
	if f.Limit < 1 || f.Limit > 200 {
		f.Limit = 25
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	where, args := buildListUsersQuery(f)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argsWithPage := append(append([]any{}, args...), f.Limit, f.Offset)
	listSQL := `
SELECT id, username, email, role, created_at
FROM users
` + where + `
ORDER BY created_at DESC, id DESC
LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)

	rows, err := s.db.QueryContext(ctx, listSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]admin.UserRow, 0, f.Limit)
	for rows.Next() {
		var u admin.UserRow
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*admin.UserRow, error) {
	const q = `SELECT id, username, email, role, created_at FROM users WHERE id = $1`
	var u admin.UserRow
	err := s.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admin.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetUserRole also bumps token_version: tokens minted under the old role stop working.
func (s *Store) SetUserRole(ctx context.Context, id int64, role string) error {
	const q = `UPDATE users SET role = $1, token_version = token_version + 1, updated_at = now() WHERE id = $2`
	return expectOne(s.db.ExecContext(ctx, q, role, id))
}

func (s *Store) BumpTokenVersion(ctx context.Context, id int64) error {
	const q = `UPDATE users SET token_version = token_version + 1 WHERE id = $1`
	return expectOne(s.db.ExecContext(ctx, q, id))
}

func (s *Store) AdminCount(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users WHERE role = 'Admin'`
	var n int
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
