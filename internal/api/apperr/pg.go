package apperr

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Map well-known constraint names to fields (extend as you add constraints)
var constraintField = map[string]string{
	"books_author_id_fkey":          "author",
	"library_books_book_id_fkey":    "book_id",
	"library_books_library_id_fkey": "library",
	"librarians_library_id_key":     "library",
	"users_username_key":            "username",
	"users_email_key":               "email",
	"users_role_check":              "role",
	"books_publication_year_check":  "publication_year",
}

// Guess a field from a column name present in PG error detail
func fieldFromDetail(detail string) string {
	for _, k := range []string{"author_id", "book_id", "library_id", "username", "email", "title", "name", "id"} {
		if strings.Contains(detail, k) {
			if k == "author_id" {
				return "author"
			}
			return k
		}
	}
	return ""
}

func fieldFromConstraint(c string) string {
	if f, ok := constraintField[c]; ok {
		return f
	}
	return ""
}

// FromPG maps a pgconn.PgError to a Problem. Returns (Problem, true) if mapped.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	p := Problem{
		Title:  "Database error",
		Status: http.StatusInternalServerError,
	}

	field := fieldFromConstraint(pg.ConstraintName)
	if field == "" && pg.Detail != "" {
		field = fieldFromDetail(pg.Detail)
	}

	switch pg.Code {
	case "23505": // unique_violation
		p.Status = http.StatusConflict
		p.Title = "Conflict"
		if field == "" {
			field = "resource"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "unique", Message: "value already exists"}}
	case "23503": // foreign_key_violation
		// a dangling reference in the request body is the caller's input error
		p.Status = http.StatusBadRequest
		p.Title = "Bad Request"
		if field == "" {
			field = "resource"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "does_not_exist", Message: "referenced object does not exist"}}
	case "23502": // not_null_violation
		p.Status = http.StatusBadRequest
		p.Title = "Bad Request"
		if field == "" && pg.ColumnName != "" {
			field = pg.ColumnName
		}
		if field == "" {
			field = "field"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "required", Message: "this field is required"}}
	case "23514": // check_violation
		p.Status = http.StatusBadRequest
		p.Title = "Bad Request"
		if field == "" {
			field = "field"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "invalid", Message: "constraint failed"}}
	case "22P02", "22003": // invalid_text_representation, numeric_value_out_of_range
		p.Status = http.StatusBadRequest
		p.Title = "Bad Request"
		if field == "" {
			field = "id"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "invalid", Message: "invalid format"}}
	case "22001": // string_data_right_truncation
		p.Status = http.StatusBadRequest
		p.Title = "Bad Request"
		if field == "" {
			field = "field"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "too_long", Message: "value is too long"}}
	case "40001": // serialization_failure
		p.Status = http.StatusConflict
		p.Title = "Conflict"
		p.Detail = "transaction conflict, please retry"
		p.Retryable = true
	case "40P01": // deadlock_detected
		p.Status = http.StatusConflict
		p.Title = "Conflict"
		p.Detail = "deadlock detected, please retry"
		p.Retryable = true
	}

	return p, true
}

// HandleDBError maps err to a Problem and writes it. Returns true if handled.
func HandleDBError(w http.ResponseWriter, r *http.Request, err error, fallbackTitle string) bool {
	if err == nil {
		return false
	}
	if p, ok := FromPG(err); ok {
		if p.Status >= http.StatusInternalServerError {
			log.Printf("[db] %s %s: %v", r.Method, r.URL.Path, err)
		}
		Write(w, r, p)
		return true
	}
	log.Printf("[db] %s %s: %v", r.Method, r.URL.Path, err)
	Write(w, r, Problem{Status: http.StatusInternalServerError, Title: fallbackTitle})
	return true
}
