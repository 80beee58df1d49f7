package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5w1tchy/bookshelf-api/internal/models"
	"github.com/5w1tchy/bookshelf-api/internal/store/dbx"
)

func (s *Store) Create(ctx context.Context, in CreateInput) (models.Book, error) {
	row := s.db.QueryRowContext(ctx, `
INSERT INTO books (title, publication_year, author_id)
VALUES ($1, $2, $3)
`+returningBook, in.Title, in.PublicationYear, in.AuthorID)

	b, err := scanBook(row)
	if dbx.IsForeignKeyViolation(err) {
		return models.Book{}, ErrInvalidAuthor
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

// Update applies a partial update in one statement; the row lock taken by
// UPDATE serializes concurrent writers (last write wins per field).
func (s *Store) Update(ctx context.Context, id int64, in UpdateInput) (models.Book, error) {
	row := s.db.QueryRowContext(ctx, `
UPDATE books SET
  title            = COALESCE($1, title),
  publication_year = COALESCE($2, publication_year),
  author_id        = COALESCE($3, author_id),
  updated_at       = now()
WHERE id = $4
`+returningBook, nullString(in.Title), nullInt(in.PublicationYear), nullInt64(in.AuthorID), id)

	b, err := scanBook(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Book{}, ErrNotFound
	case dbx.IsForeignKeyViolation(err):
		return models.Book{}, ErrInvalidAuthor
	case err != nil:
		return models.Book{}, fmt.Errorf("update book %d: %w", id, err)
	}
	return b, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetCoverKey(ctx context.Context, id int64, key string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET cover_key = $1, updated_at = now() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("set cover key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set cover key: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
