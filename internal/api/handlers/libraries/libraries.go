package libraries

import (
	"errors"
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	storelib "github.com/5w1tchy/bookshelf-api/internal/store/libraries"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

func libraryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := shared.ParseID(r.PathValue("id"))
	if !ok {
		apperr.NotFound(w, r, "library not found")
	}
	return id, ok
}

func decodeName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body nameRequest
	if fe := validate.DecodeJSON(r.Body, &body); fe != nil {
		apperr.Validation(w, r, fe...)
		return "", false
	}
	body.Name = shared.SanitizeString(body.Name)
	if fe := validate.Struct(body); fe != nil {
		apperr.Validation(w, r, fe...)
		return "", false
	}
	return body.Name, true
}

// GET /libraries/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Sto.List(r.Context())
	if err != nil {
		apperr.HandleDBError(w, r, err, "list libraries failed")
		return
	}
	httpx.OK(w, list)
}

// GET /libraries/{id}/
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := libraryID(w, r)
	if !ok {
		return
	}
	d, err := h.Sto.Get(r.Context(), id)
	if errors.Is(err, storelib.ErrNotFound) {
		apperr.NotFound(w, r, "library not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "get library failed")
		return
	}
	httpx.OK(w, d)
}

// POST /libraries/create/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeName(w, r)
	if !ok {
		return
	}
	l, err := h.Sto.Create(r.Context(), name)
	if err != nil {
		apperr.HandleDBError(w, r, err, "create library failed")
		return
	}
	httpx.Created(w, l)
}

// POST /libraries/{id}/books/
func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	id, ok := libraryID(w, r)
	if !ok {
		return
	}
	var body addBookRequest
	if fe := validate.DecodeJSON(r.Body, &body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	if fe := validate.Struct(body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}

	err := h.Sto.AddBook(r.Context(), id, *body.BookID)
	switch {
	case errors.Is(err, storelib.ErrBookNotFound):
		apperr.Validation(w, r, apperr.FieldError{Field: "book_id", Code: "does_not_exist", Message: "book does not exist"})
	case errors.Is(err, storelib.ErrNotFound):
		apperr.NotFound(w, r, "library not found")
	case err != nil:
		apperr.HandleDBError(w, r, err, "add book failed")
	default:
		httpx.NoContent(w)
	}
}

// DELETE /libraries/{id}/books/{book_id}/
func (h *Handler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	id, ok := libraryID(w, r)
	if !ok {
		return
	}
	bookID, ok := shared.ParseID(r.PathValue("book_id"))
	if !ok {
		apperr.NotFound(w, r, "book not found")
		return
	}

	err := h.Sto.RemoveBook(r.Context(), id, bookID)
	if errors.Is(err, storelib.ErrNotInLibrary) {
		apperr.NotFound(w, r, err.Error())
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "remove book failed")
		return
	}
	httpx.NoContent(w)
}

// PUT /libraries/{id}/librarian/
func (h *Handler) SetLibrarian(w http.ResponseWriter, r *http.Request) {
	id, ok := libraryID(w, r)
	if !ok {
		return
	}
	name, ok := decodeName(w, r)
	if !ok {
		return
	}

	lib, err := h.Sto.SetLibrarian(r.Context(), id, name)
	if errors.Is(err, storelib.ErrNotFound) {
		apperr.NotFound(w, r, "library not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "set librarian failed")
		return
	}
	httpx.OK(w, lib)
}
