package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5w1tchy/bookshelf-api/internal/models"
)

func (s *Store) Get(ctx context.Context, id int64) (models.Book, error) {
	query, args, err := psql.Select(bookColumns...).From("books b").Where("b.id = ?", id).ToSql()
	if err != nil {
		return models.Book{}, err
	}
	b, err := scanBook(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, ErrNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

// CoverKey returns the stored object key ("" when no cover was uploaded).
func (s *Store) CoverKey(ctx context.Context, id int64) (string, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(cover_key, '') FROM books WHERE id = $1`, id).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return key, err
}
