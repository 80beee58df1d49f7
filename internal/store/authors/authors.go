package authors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5w1tchy/bookshelf-api/internal/models"
	"github.com/5w1tchy/bookshelf-api/internal/store/dbx"
	"github.com/Masterminds/squirrel"
)

var ErrNotFound = errors.New("author not found")

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// List returns authors by name with their book counts.
func (s *Store) List(ctx context.Context, limit, offset int) ([]models.Author, error) {
	q := psql.Select("a.id", "a.name", "COUNT(b.id)", "a.created_at").
		From("authors a").
		LeftJoin("books b ON b.author_id = a.id").
		GroupBy("a.id").
		OrderBy("a.name ASC", "a.id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	out := []models.Author{}
	for rows.Next() {
		var a models.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.BooksCount, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns the author together with every book it owns.
func (s *Store) Get(ctx context.Context, id int64) (models.AuthorDetail, error) {
	d := models.AuthorDetail{Books: []models.Book{}}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM authors WHERE id = $1`, id).Scan(&d.ID, &d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("get author %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, publication_year, author_id
FROM books
WHERE author_id = $1
ORDER BY title ASC, id ASC`, id)
	if err != nil {
		return d, fmt.Errorf("author books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.Author); err != nil {
			return d, err
		}
		d.Books = append(d.Books, b)
	}
	return d, rows.Err()
}

func (s *Store) Create(ctx context.Context, name string) (models.Author, error) {
	a := models.Author{Name: name}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO authors (name) VALUES ($1) RETURNING id, created_at`, name).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return models.Author{}, fmt.Errorf("insert author: %w", err)
	}
	return a, nil
}

// Delete removes the author; ON DELETE CASCADE removes its books.
// It returns the cover object keys of the removed books so callers can
// clean up object storage.
func (s *Store) Delete(ctx context.Context, id int64) ([]string, error) {
	var covers []string
	err := dbx.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT cover_key FROM books WHERE author_id = $1 AND cover_key IS NOT NULL FOR UPDATE`, id)
		if err != nil {
			return err
		}
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				rows.Close()
				return err
			}
			covers = append(covers, key)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("delete author %d: %w", id, err)
	}
	return covers, nil
}
