package sqlconnect

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS authors`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(t.Context(), db); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSchema_ConstraintNamesMatchErrorMapping(t *testing.T) {
	for _, name := range []string{
		"books_author_id_fkey",
		"library_books_book_id_fkey",
		"librarians_library_id_key",
		"users_username_key",
		"users_email_key",
		"users_role_check",
	} {
		if !strings.Contains(schema, name) {
			t.Errorf("schema is missing constraint %s", name)
		}
	}
}

func TestSchema_DeletingAuthorCascadesToBooks(t *testing.T) {
	fk := regexp.MustCompile(`CONSTRAINT books_author_id_fkey FOREIGN KEY \(author_id\)\s+REFERENCES authors \(id\) ON DELETE CASCADE`)
	if !fk.MatchString(schema) {
		t.Fatal("books.author_id must reference authors(id) with ON DELETE CASCADE")
	}
}
