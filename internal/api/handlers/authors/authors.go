package authors

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	storeauthors "github.com/5w1tchy/bookshelf-api/internal/store/authors"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

const maxAuthorsPage = 500

// GET /authors/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), maxAuthorsPage)

	list, err := h.Sto.List(r.Context(), limit, offset)
	if err != nil {
		apperr.HandleDBError(w, r, err, "list authors failed")
		return
	}
	httpx.OK(w, list)
}

// GET /authors/{id}/
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(r.PathValue("id"))
	if !ok {
		apperr.NotFound(w, r, "author not found")
		return
	}
	a, err := h.Sto.Get(r.Context(), id)
	if errors.Is(err, storeauthors.ErrNotFound) {
		apperr.NotFound(w, r, "author not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "get author failed")
		return
	}
	httpx.OK(w, a)
}

// POST /authors/create/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if fe := validate.DecodeJSON(r.Body, &body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	body.Name = shared.SanitizeString(body.Name)
	if fe := validate.Struct(body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}

	a, err := h.Sto.Create(r.Context(), body.Name)
	if err != nil {
		apperr.HandleDBError(w, r, err, "create author failed")
		return
	}
	if err := h.Cache.BumpVersion(r.Context()); err != nil {
		log.Printf("[authors] %v", err)
	}
	httpx.Created(w, a)
}

// DELETE /authors/{id}/delete/
//
// Every book of the author goes with it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(r.PathValue("id"))
	if !ok {
		apperr.NotFound(w, r, "author not found")
		return
	}

	covers, err := h.Sto.Delete(r.Context(), id)
	if errors.Is(err, storeauthors.ErrNotFound) {
		apperr.NotFound(w, r, "author not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "delete author failed")
		return
	}

	if err := h.Cache.BumpVersion(r.Context()); err != nil {
		log.Printf("[authors] %v", err)
	}
	if len(covers) > 0 && h.Objects != nil {
		go h.removeCovers(covers)
	}

	uid, _ := middlewares.UserIDFrom(r.Context())
	log.Printf("[authors] user %d deleted author %d (%d covers)", uid, id, len(covers))
	httpx.NoContent(w)
}

// removeCovers runs detached from the request; the rows are already gone so
// a failure only leaves orphaned objects behind.
func (h *Handler) removeCovers(keys []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, k := range keys {
		if err := h.Objects.DeleteObject(ctx, k); err != nil {
			log.Printf("[authors] delete cover %s: %v", k, err)
		}
	}
}
