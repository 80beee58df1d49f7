package books

import (
	"errors"
	"log"
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
)

// DELETE /books/{id}/delete/
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "book not found")
		return
	}

	err := h.Sto.Delete(r.Context(), id)
	if errors.Is(err, storebooks.ErrNotFound) {
		apperr.NotFound(w, r, "book not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "delete book failed")
		return
	}

	h.invalidate(r.Context())
	uid, _ := middlewares.UserIDFrom(r.Context())
	log.Printf("[books] user %d deleted book %d", uid, id)
	httpx.NoContent(w)
}
