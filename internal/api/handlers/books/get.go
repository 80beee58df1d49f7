package books

import (
	"errors"
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
)

// GET /books/{id}/
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "book not found")
		return
	}

	b, err := h.Sto.Get(r.Context(), id)
	if errors.Is(err, storebooks.ErrNotFound) {
		apperr.NotFound(w, r, "book not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "get book failed")
		return
	}

	// non-blocking; a full queue drops the event
	if h.Views != nil {
		h.Views.Enqueue(b.ID)
	}
	httpx.OK(w, b)
}
