package books

import (
	"fmt"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
)

// bookRequest is the full field set; POST and PUT require every field.
type bookRequest struct {
	Title           string `json:"title" validate:"trimmed_min1,max=200"`
	PublicationYear *int   `json:"publication_year" validate:"required,gte=0,notfuture"`
	Author          *int64 `json:"author" validate:"required,gt=0"`
}

// patchRequest leaves absent fields untouched.
type patchRequest struct {
	Title           *string `json:"title" validate:"omitempty,trimmed_min1,max=200"`
	PublicationYear *int    `json:"publication_year" validate:"omitempty,gte=0,notfuture"`
	Author          *int64  `json:"author" validate:"omitempty,gt=0"`
}

func (b *bookRequest) normalize() {
	b.Title = shared.SanitizeString(b.Title)
}

func (p *patchRequest) normalize() {
	if p.Title != nil {
		t := shared.SanitizeString(*p.Title)
		p.Title = &t
	}
}

type coverUploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

func authorDoesNotExist(id int64) apperr.FieldError {
	return apperr.FieldError{
		Field:   "author",
		Code:    "does_not_exist",
		Message: fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, id),
	}
}
