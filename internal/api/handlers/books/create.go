package books

import (
	"errors"
	"log"
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

// POST /books/create/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
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

	b, err := h.Sto.Create(r.Context(), storebooks.CreateInput{
		Title:           body.Title,
		PublicationYear: *body.PublicationYear,
		AuthorID:        *body.Author,
	})
	if errors.Is(err, storebooks.ErrInvalidAuthor) {
		apperr.Validation(w, r, authorDoesNotExist(*body.Author))
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "create book failed")
		return
	}

	h.invalidate(r.Context())
	uid, _ := middlewares.UserIDFrom(r.Context())
	log.Printf("[books] user %d created book %d", uid, b.ID)
	httpx.Created(w, b)
}
