package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/security/password"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

// Register creates a Member account and returns a token pair.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if fe := validate.DecodeJSON(r.Body, &req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	req.Username = shared.SanitizeString(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if fe := validate.Struct(req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}

	pwd, warn, err := password.Validate(req.Password, req.Username, req.Email)
	if err != nil {
		apperr.Validation(w, r, passwordFieldError("password", err))
		return
	}

	hash, err := password.Hash(pwd)
	if err != nil {
		log.Printf("[auth] hash failed: %v", err)
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to hash password")
		return
	}

	u, err := h.Store.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		apperr.HandleDBError(w, r, err, "cannot create user")
		return
	}

	pair, err := h.issueTokens(r.Context(), u.ID, u.TokenVersion)
	if err != nil {
		log.Printf("[auth] issue tokens for user %d: %v", u.ID, err)
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to issue tokens")
		return
	}

	resp := map[string]any{
		"user":   map[string]any{"id": u.ID, "username": u.Username, "email": u.Email, "role": u.Role},
		"tokens": pair,
	}
	if warn != nil {
		resp["password_warning"] = warn
	}
	httpx.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if fe := validate.DecodeJSON(r.Body, &req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	if fe := validate.Struct(req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}

	u, err := h.Store.FindUserByLogin(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, ErrUserNotFound) {
		apperr.Unauthorized(w, r, "invalid credentials")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "login failed")
		return
	}

	needsRehash, err := password.Verify(req.Password, u.PasswordHash)
	if err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Printf("[auth] verify for user %d: %v", u.ID, err)
		}
		apperr.Unauthorized(w, r, "invalid credentials")
		return
	}
	if needsRehash {
		if newPHC, err := password.Hash(req.Password); err == nil {
			if err := h.Store.UpdateUserPasswordHash(r.Context(), u.ID, newPHC); err != nil {
				log.Printf("[auth] rehash for user %d: %v", u.ID, err)
			}
		}
	}

	pair, err := h.issueTokens(r.Context(), u.ID, u.TokenVersion)
	if err != nil {
		log.Printf("[auth] issue tokens for user %d: %v", u.ID, err)
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to issue tokens")
		return
	}
	httpx.OK(w, pair)
}

// Refresh rotates a refresh token; the old one is consumed even when the
// user's token_version has moved on.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.RDB == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "refresh tokens are disabled")
		return
	}
	var req RefreshRequest
	if fe := validate.DecodeJSON(r.Body, &req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	if fe := validate.Struct(req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}

	userID, tv, err := h.consumeRefresh(r.Context(), req.RefreshToken)
	if errors.Is(err, errInvalidRefresh) {
		apperr.Unauthorized(w, r, "invalid refresh token")
		return
	}
	if err != nil {
		log.Printf("[auth] refresh lookup: %v", err)
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "refresh store unavailable")
		return
	}

	dbVer, _, err := h.Store.AuthState(r.Context(), userID)
	if err != nil || dbVer != tv {
		apperr.Unauthorized(w, r, "token revoked")
		return
	}

	pair, err := h.issueTokens(r.Context(), userID, dbVer)
	if err != nil {
		log.Printf("[auth] issue tokens for user %d: %v", userID, err)
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to issue tokens")
		return
	}
	httpx.OK(w, pair)
}

// Logout revokes the given refresh token. Unknown tokens are not an error.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = validate.DecodeJSON(r.Body, &req)
	if err := h.revokeRefresh(r.Context(), req.RefreshToken); err != nil {
		log.Printf("[auth] revoke refresh: %v", err)
	}
	httpx.OKStatus(w)
}

func passwordFieldError(field string, err error) apperr.FieldError {
	switch {
	case errors.Is(err, password.ErrTooShort):
		return apperr.FieldError{Field: field, Code: "too_short", Message: "password must be at least 8 characters"}
	case errors.Is(err, password.ErrTooLong):
		return apperr.FieldError{Field: field, Code: "too_long", Message: "password must be at most 128 characters"}
	default:
		return apperr.FieldError{Field: field, Code: "invalid", Message: "invalid password"}
	}
}
