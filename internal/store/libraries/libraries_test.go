package libraries_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/5w1tchy/bookshelf-api/internal/store/libraries"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_WithoutLibrarian(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM libraries WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Central"))
	mock.ExpectQuery(`FROM library_books lb`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "publication_year", "author_id"}).
			AddRow(1, "Book One", 2020, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, library_id FROM librarians WHERE library_id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "library_id"}))

	d, err := libraries.New(db).Get(t.Context(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Central", d.Name)
	assert.Len(t, d.Books, 1)
	assert.Nil(t, d.Librarian)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBook_MissingBook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO library_books`).
		WithArgs(int64(1), int64(404)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "library_books_book_id_fkey"})
	mock.ExpectExec(`INSERT INTO library_books`).
		WithArgs(int64(404), int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "library_books_library_id_fkey"})

	s := libraries.New(db)
	assert.ErrorIs(t, s.AddBook(t.Context(), 1, 404), libraries.ErrBookNotFound)
	assert.ErrorIs(t, s.AddBook(t.Context(), 404, 1), libraries.ErrNotFound)
}

func TestRemoveBook_NotLinked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM library_books WHERE library_id = $1 AND book_id = $2`)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, libraries.New(db).RemoveBook(t.Context(), 1, 2), libraries.ErrNotInLibrary)
}

func TestRemoveBook_RowsAffectedFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	driverErr := errors.New("driver gone")
	mock.ExpectExec(`DELETE FROM library_books`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewErrorResult(driverErr))

	err = libraries.New(db).RemoveBook(t.Context(), 1, 2)
	assert.ErrorIs(t, err, driverErr)
	assert.NotErrorIs(t, err, libraries.ErrNotInLibrary)
}

func TestSetLibrarian_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`ON CONFLICT \(library_id\) DO UPDATE`).
		WithArgs("Ada", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	lib, err := libraries.New(db).SetLibrarian(t.Context(), 1, "Ada")
	require.NoError(t, err)
	assert.Equal(t, int64(7), lib.ID)
	assert.Equal(t, int64(1), lib.LibraryID)
}
