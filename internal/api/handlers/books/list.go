package books

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

const maxListLimit = 500

// parseListFilters reads the recognised query parameters. Anything else in
// the query string is ignored. canonical is a stable encoding of the filters
// used as the cache identity: equivalent requests share one entry.
func parseListFilters(q url.Values) (f storebooks.ListFilters, canonical string, errs []apperr.FieldError) {
	canon := url.Values{}

	if t := shared.SanitizeString(q.Get("title")); t != "" {
		f.Title = t
		canon.Set("title", t)
	}
	if raw := strings.TrimSpace(q.Get("author")); raw != "" {
		id, ok := shared.ParseID(raw)
		if !ok {
			errs = append(errs, apperr.FieldError{Field: "author", Code: "invalid", Message: "enter a valid author id"})
		} else {
			f.AuthorID = id
			canon.Set("author", strconv.FormatInt(id, 10))
		}
	}
	if raw := strings.TrimSpace(q.Get("publication_year")); raw != "" {
		// The column is INTEGER; anything outside int32 could never match.
		y, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			errs = append(errs, apperr.FieldError{Field: "publication_year", Code: "invalid", Message: "enter a whole number"})
		} else {
			year := int(y)
			f.PublicationYear = &year
			canon.Set("publication_year", strconv.Itoa(year))
		}
	}
	if s := shared.SanitizeString(q.Get("search")); s != "" {
		f.Search = s
		canon.Set("search", shared.Fold(s))
	}
	if o := strings.Join(storebooks.OrderBy(q.Get("ordering")), ","); o != "" {
		f.Ordering = q.Get("ordering")
		canon.Set("ordering", o)
	}

	f.Limit, f.Offset = validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), maxListLimit)
	if f.Limit > 0 {
		canon.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		canon.Set("offset", strconv.Itoa(f.Offset))
	}
	return f, canon.Encode(), errs
}

// GET /books/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, canonical, errs := parseListFilters(r.URL.Query())
	if errs != nil {
		apperr.Validation(w, r, errs...)
		return
	}

	key, cacheable := h.Cache.Key(r.Context(), "books", canonical)
	if cacheable {
		if body, hit := h.Cache.Get(r.Context(), key); hit {
			w.Header().Set("X-Cache", "HIT")
			httpx.WriteRaw(w, http.StatusOK, body)
			return
		}
	}

	list, err := h.Sto.List(r.Context(), f)
	if err != nil {
		apperr.HandleDBError(w, r, err, "list books failed")
		return
	}

	body, err := json.Marshal(list)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "encode failed")
		return
	}
	if cacheable {
		h.Cache.Set(r.Context(), key, body)
		w.Header().Set("X-Cache", "MISS")
	}
	httpx.WriteRaw(w, http.StatusOK, body)
}
