package books

import (
	"database/sql"
	"strings"

	"github.com/5w1tchy/bookshelf-api/internal/models"
	"github.com/Masterminds/squirrel"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookColumns = []string{
	"b.id", "b.title", "b.publication_year", "b.author_id",
	"COALESCE(b.cover_key, '')", "b.created_at", "b.updated_at",
}

const returningBook = `RETURNING id, title, publication_year, author_id, COALESCE(cover_key, ''), created_at, updated_at`

// orderable maps public ordering names to columns.
var orderable = map[string]string{
	"title":            "b.title",
	"publication_year": "b.publication_year",
}

// OrderBy turns an ordering param into ORDER BY terms. Unknown or repeated
// fields are dropped; an empty result falls back to title ascending. The id
// tiebreak keeps pages stable.
func OrderBy(raw string) []string {
	var out []string
	seen := map[string]bool{}
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		dir := "ASC"
		if strings.HasPrefix(term, "-") {
			dir = "DESC"
			term = term[1:]
		}
		col, ok := orderable[term]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		out = append(out, col+" "+dir)
	}
	if len(out) == 0 {
		out = append(out, "b.title ASC")
	}
	return append(out, "b.id ASC")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(sc rowScanner) (models.Book, error) {
	var b models.Book
	err := sc.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.Author, &b.CoverKey, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanBooks(rows *sql.Rows) ([]models.Book, error) {
	defer rows.Close()
	out := make([]models.Book, 0, 16)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
