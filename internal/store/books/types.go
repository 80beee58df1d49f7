package books

import "errors"

var (
	ErrNotFound      = errors.New("book not found")
	ErrInvalidAuthor = errors.New("author does not exist")
)

// ListFilters shapes the List query. Zero values mean "not filtered".
type ListFilters struct {
	Title           string // exact match
	AuthorID        int64  // exact match
	PublicationYear *int   // exact match
	Search          string // case-insensitive substring over title and author name
	Ordering        string // raw ordering param, e.g. "-publication_year,title"
	Limit           int    // 0 = all rows
	Offset          int
}

type CreateInput struct {
	Title           string
	PublicationYear int
	AuthorID        int64
}

// UpdateInput carries a partial field set; nil fields keep their stored value.
type UpdateInput struct {
	Title           *string
	PublicationYear *int
	AuthorID        *int64
}
