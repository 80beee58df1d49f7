package books

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/5w1tchy/bookshelf-api/internal/models"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
	"github.com/Masterminds/squirrel"
)

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func listQuery(f ListFilters) squirrel.SelectBuilder {
	q := psql.Select(bookColumns...).
		From("books b").
		Join("authors a ON a.id = b.author_id")

	if f.Title != "" {
		q = q.Where(squirrel.Eq{"b.title": f.Title})
	}
	if f.AuthorID > 0 {
		q = q.Where(squirrel.Eq{"b.author_id": f.AuthorID})
	}
	if f.PublicationYear != nil {
		q = q.Where(squirrel.Eq{"b.publication_year": *f.PublicationYear})
	}
	if f.Search != "" {
		pat := shared.ContainsPattern(f.Search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"b.title": pat},
			squirrel.ILike{"a.name": pat},
		})
	}

	q = q.OrderBy(OrderBy(f.Ordering)...)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// List returns the books matching f. Filters, search and ordering compose.
func (s *Store) List(ctx context.Context, f ListFilters) ([]models.Book, error) {
	query, args, err := listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return scanBooks(rows)
}
