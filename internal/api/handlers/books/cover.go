package books

import (
	"errors"
	"net/http"
	"strings"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/storage/s3"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

func (h *Handler) storageUnavailable(w http.ResponseWriter, r *http.Request) bool {
	if h.Covers == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "cover storage is not configured")
		return true
	}
	return false
}

// POST /books/{id}/cover/upload-url/
func (h *Handler) CoverUploadURL(w http.ResponseWriter, r *http.Request) {
	if h.storageUnavailable(w, r) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "book not found")
		return
	}

	var body coverUploadRequest
	if fe := validate.DecodeJSON(r.Body, &body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	if fe := validate.Struct(body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	ct := strings.ToLower(strings.TrimSpace(body.ContentType))
	key, ok := s3.CoverKey(id, ct)
	if !ok {
		apperr.Validation(w, r, apperr.FieldError{
			Field: "content_type", Code: "invalid_choice", Message: "must be one of: image/jpeg image/png image/webp",
		})
		return
	}

	if _, err := h.Sto.CoverKey(r.Context(), id); errors.Is(err, storebooks.ErrNotFound) {
		apperr.NotFound(w, r, "book not found")
		return
	} else if err != nil {
		apperr.HandleDBError(w, r, err, "get book failed")
		return
	}

	url, expires, err := h.Covers.PresignUpload(r.Context(), key, ct)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadGateway, "Bad Gateway", "could not presign upload")
		return
	}
	if err := h.Sto.SetCoverKey(r.Context(), id, key); errors.Is(err, storebooks.ErrNotFound) {
		apperr.NotFound(w, r, "book not found")
		return
	} else if err != nil {
		apperr.HandleDBError(w, r, err, "store cover key failed")
		return
	}

	httpx.OK(w, map[string]any{
		"upload_url": url,
		"key":        key,
		"expires_at": expires.UTC(),
		"method":     http.MethodPut,
	})
}

// GET /books/{id}/cover/
func (h *Handler) Cover(w http.ResponseWriter, r *http.Request) {
	if h.storageUnavailable(w, r) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "book not found")
		return
	}

	key, err := h.Sto.CoverKey(r.Context(), id)
	if errors.Is(err, storebooks.ErrNotFound) {
		apperr.NotFound(w, r, "book not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "get cover failed")
		return
	}
	if key == "" {
		apperr.NotFound(w, r, "book has no cover")
		return
	}

	url, err := h.Covers.PresignDownload(r.Context(), key)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadGateway, "Bad Gateway", "could not presign download")
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
