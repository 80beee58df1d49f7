package books

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowCols = []string{"id", "title", "publication_year", "author_id", "cover_key", "created_at", "updated_at"}

func TestOrderBy(t *testing.T) {
	cases := map[string][]string{
		"":                        {"b.title ASC", "b.id ASC"},
		"title":                   {"b.title ASC", "b.id ASC"},
		"-publication_year":       {"b.publication_year DESC", "b.id ASC"},
		"-publication_year,title": {"b.publication_year DESC", "b.title ASC", "b.id ASC"},
		"author; DROP TABLE":      {"b.title ASC", "b.id ASC"},
		"title,-title":            {"b.title ASC", "b.id ASC"},
	}
	for raw, want := range cases {
		assert.Equal(t, want, OrderBy(raw), "ordering=%q", raw)
	}
}

func TestListQuery_ComposesFilters(t *testing.T) {
	year := 2020
	query, args, err := listQuery(ListFilters{
		Title:           "Book One",
		AuthorID:        7,
		PublicationYear: &year,
		Search:          "50%_off",
		Ordering:        "-publication_year",
		Limit:           10,
		Offset:          5,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM books b JOIN authors a ON a.id = b.author_id")
	assert.Contains(t, query, "b.title = $1")
	assert.Contains(t, query, "b.author_id = $2")
	assert.Contains(t, query, "b.publication_year = $3")
	assert.Contains(t, query, "(b.title ILIKE $4 OR a.name ILIKE $5)")
	assert.Contains(t, query, "ORDER BY b.publication_year DESC, b.id ASC")
	assert.Contains(t, query, "LIMIT 10")
	assert.Contains(t, query, "OFFSET 5")
	assert.Equal(t, []any{"Book One", int64(7), 2020, `%50\%\_off%`, `%50\%\_off%`}, args)
}

func TestListQuery_NoFilters(t *testing.T) {
	query, args, err := listQuery(ListFilters{}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
	assert.Contains(t, query, "ORDER BY b.title ASC, b.id ASC")
}

func TestList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	f := ListFilters{Search: "another"}
	query, _, err := listQuery(f).ToSql()
	require.NoError(t, err)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("%another%", "%another%").
		WillReturnRows(sqlmock.NewRows(rowCols).
			AddRow(2, "Another Story", 2021, 1, "", now, now))

	got, err := New(db).List(t.Context(), f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Another Story", got[0].Title)
	assert.Equal(t, int64(1), got[0].Author)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM books b WHERE b.id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(rowCols))

	_, err = New(db).Get(t.Context(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO books \(title, publication_year, author_id\)`).
		WithArgs("Book One", 2020, int64(1)).
		WillReturnRows(sqlmock.NewRows(rowCols).AddRow(1, "Book One", 2020, 1, "", now, now))

	b, err := New(db).Create(t.Context(), CreateInput{Title: "Book One", PublicationYear: 2020, AuthorID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UnknownAuthor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs("Orphan", 2020, int64(999)).
		WillReturnError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23503", ConstraintName: "books_author_id_fkey"}))

	_, err = New(db).Create(t.Context(), CreateInput{Title: "Orphan", PublicationYear: 2020, AuthorID: 999})
	assert.ErrorIs(t, err, ErrInvalidAuthor)
}

func TestUpdate_PartialKeepsOtherFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	title := "Updated Title"
	now := time.Now()
	mock.ExpectQuery(`UPDATE books SET`).
		WithArgs("Updated Title", nil, nil, int64(1)).
		WillReturnRows(sqlmock.NewRows(rowCols).AddRow(1, "Updated Title", 2020, 1, "", now, now))

	b, err := New(db).Update(t.Context(), 1, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", b.Title)
	assert.Equal(t, 2020, b.PublicationYear)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	year := 1999
	mock.ExpectQuery(`UPDATE books SET`).
		WithArgs(nil, int64(1999), nil, int64(5)).
		WillReturnRows(sqlmock.NewRows(rowCols))

	_, err = New(db).Update(t.Context(), 5, UpdateInput{PublicationYear: &year})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := New(db)
	require.NoError(t, s.Delete(t.Context(), 1))
	assert.ErrorIs(t, s.Delete(t.Context(), 1), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RowsAffectedFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	driverErr := fmt.Errorf("driver gone")
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewErrorResult(driverErr))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET cover_key = $1, updated_at = now() WHERE id = $2`)).
		WithArgs("covers/1/abc.jpg", int64(1)).
		WillReturnResult(sqlmock.NewErrorResult(driverErr))

	s := New(db)
	err = s.Delete(t.Context(), 1)
	assert.ErrorIs(t, err, driverErr)
	assert.NotErrorIs(t, err, ErrNotFound)
	err = s.SetCoverKey(t.Context(), 1, "covers/1/abc.jpg")
	assert.ErrorIs(t, err, driverErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCoverKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET cover_key = $1, updated_at = now() WHERE id = $2`)).
		WithArgs("covers/1/abc.jpg", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(cover_key, '') FROM books WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"cover_key"}).AddRow("covers/1/abc.jpg"))

	s := New(db)
	require.NoError(t, s.SetCoverKey(t.Context(), 1, "covers/1/abc.jpg"))
	key, err := s.CoverKey(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, "covers/1/abc.jpg", key)
}
