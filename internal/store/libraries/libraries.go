package libraries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5w1tchy/bookshelf-api/internal/models"
	"github.com/5w1tchy/bookshelf-api/internal/store/dbx"
)

var (
	ErrNotFound     = errors.New("library not found")
	ErrBookNotFound = errors.New("book not found")
	ErrNotInLibrary = errors.New("book is not in this library")
)

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) List(ctx context.Context) ([]models.Library, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT l.id, l.name, COUNT(lb.book_id)
FROM libraries l
LEFT JOIN library_books lb ON lb.library_id = l.id
GROUP BY l.id
ORDER BY l.name ASC, l.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	defer rows.Close()

	out := []models.Library{}
	for rows.Next() {
		var l models.Library
		if err := rows.Scan(&l.ID, &l.Name, &l.BooksCount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Get returns the library with its books and librarian (nil when unassigned).
func (s *Store) Get(ctx context.Context, id int64) (models.LibraryDetail, error) {
	d := models.LibraryDetail{Books: []models.Book{}}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM libraries WHERE id = $1`, id).Scan(&d.ID, &d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("get library %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT b.id, b.title, b.publication_year, b.author_id
FROM library_books lb
JOIN books b ON b.id = lb.book_id
WHERE lb.library_id = $1
ORDER BY b.title ASC, b.id ASC`, id)
	if err != nil {
		return d, fmt.Errorf("library books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.Author); err != nil {
			return d, err
		}
		d.Books = append(d.Books, b)
	}
	if err := rows.Err(); err != nil {
		return d, err
	}

	var lib models.Librarian
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, library_id FROM librarians WHERE library_id = $1`, id).
		Scan(&lib.ID, &lib.Name, &lib.LibraryID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return d, fmt.Errorf("library librarian: %w", err)
	default:
		d.Librarian = &lib
	}
	return d, nil
}

func (s *Store) Create(ctx context.Context, name string) (models.Library, error) {
	l := models.Library{Name: name}
	if err := s.db.QueryRowContext(ctx,
		`INSERT INTO libraries (name) VALUES ($1) RETURNING id`, name).Scan(&l.ID); err != nil {
		return models.Library{}, fmt.Errorf("insert library: %w", err)
	}
	return l, nil
}

// AddBook links a book to a library. Adding an existing link is a no-op.
func (s *Store) AddBook(ctx context.Context, libraryID, bookID int64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO library_books (library_id, book_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, libraryID, bookID)
	if dbx.IsForeignKeyViolation(err) {
		if dbx.Constraint(err) == "library_books_book_id_fkey" {
			return ErrBookNotFound
		}
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("add book to library: %w", err)
	}
	return nil
}

func (s *Store) RemoveBook(ctx context.Context, libraryID, bookID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM library_books WHERE library_id = $1 AND book_id = $2`, libraryID, bookID)
	if err != nil {
		return fmt.Errorf("remove book from library: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove book from library: %w", err)
	}
	if n == 0 {
		return ErrNotInLibrary
	}
	return nil
}

// SetLibrarian assigns (or renames) the single librarian of a library.
func (s *Store) SetLibrarian(ctx context.Context, libraryID int64, name string) (models.Librarian, error) {
	lib := models.Librarian{Name: name, LibraryID: libraryID}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO librarians (name, library_id)
VALUES ($1, $2)
ON CONFLICT (library_id) DO UPDATE SET name = EXCLUDED.name
RETURNING id`, name, libraryID).Scan(&lib.ID)
	if dbx.IsForeignKeyViolation(err) {
		return models.Librarian{}, ErrNotFound
	}
	if err != nil {
		return models.Librarian{}, fmt.Errorf("set librarian: %w", err)
	}
	return lib, nil
}
