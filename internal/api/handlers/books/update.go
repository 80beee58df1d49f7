package books

import (
	"errors"
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

// PATCH|PUT /books/{id}/update/
//
// PATCH changes only the fields present in the body; PUT requires all of them.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "book not found")
		return
	}
	// An unknown id answers 404 whatever the body holds.
	if _, err := h.Sto.Get(r.Context(), id); err != nil {
		if errors.Is(err, storebooks.ErrNotFound) {
			apperr.NotFound(w, r, "book not found")
			return
		}
		apperr.HandleDBError(w, r, err, "update book failed")
		return
	}

	var in storebooks.UpdateInput
	var author *int64
	if r.Method == http.MethodPut {
		var body bookRequest
		if fe := validate.DecodeJSON(r.Body, &body); fe != nil {
			apperr.Validation(w, r, fe...)
			return
		}
		body.normalize()
		if fe := validate.Struct(body); fe != nil {
			apperr.Validation(w, r, fe...)
			return
		}
		in = storebooks.UpdateInput{Title: &body.Title, PublicationYear: body.PublicationYear, AuthorID: body.Author}
		author = body.Author
	} else {
		var body patchRequest
		if fe := validate.DecodeJSON(r.Body, &body); fe != nil {
			apperr.Validation(w, r, fe...)
			return
		}
		body.normalize()
		if fe := validate.Struct(body); fe != nil {
			apperr.Validation(w, r, fe...)
			return
		}
		in = storebooks.UpdateInput{Title: body.Title, PublicationYear: body.PublicationYear, AuthorID: body.Author}
		author = body.Author
	}

	b, err := h.Sto.Update(r.Context(), id, in)
	switch {
	case errors.Is(err, storebooks.ErrNotFound):
		apperr.NotFound(w, r, "book not found")
		return
	case errors.Is(err, storebooks.ErrInvalidAuthor) && author != nil:
		apperr.Validation(w, r, authorDoesNotExist(*author))
		return
	case err != nil:
		apperr.HandleDBError(w, r, err, "update book failed")
		return
	}

	h.invalidate(r.Context())
	httpx.OK(w, b)
}
