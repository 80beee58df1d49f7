package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	"github.com/5w1tchy/bookshelf-api/internal/security/password"
	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
	"github.com/samber/lo"
)

// Me returns the current user's profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.Unauthorized(w, r, "authentication credentials were not provided")
		return
	}
	u, err := h.Store.FindUserByID(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		apperr.NotFound(w, r, "user not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "load user failed")
		return
	}

	perms := lo.Map(permissions.Of(permissions.Role(u.Role)), func(p permissions.Permission, _ int) string {
		return string(p)
	})
	httpx.OK(w, MeResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: perms,
		CreatedAt:   u.CreatedAt,
	})
}

// ChangePassword updates the user's password and rotates tokens
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.Unauthorized(w, r, "authentication credentials were not provided")
		return
	}

	var req ChangePasswordRequest
	if fe := validate.DecodeJSON(r.Body, &req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	if fe := validate.Struct(req); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}

	u, err := h.Store.FindUserByID(r.Context(), userID)
	if err != nil {
		apperr.HandleDBError(w, r, err, "load user failed")
		return
	}
	if _, err := password.Verify(req.OldPassword, u.PasswordHash); err != nil {
		apperr.Forbidden(w, r, "invalid old password")
		return
	}

	np, warn, err := password.Validate(req.NewPassword, u.Username, u.Email)
	if err != nil {
		apperr.Validation(w, r, passwordFieldError("new_password", err))
		return
	}
	newPHC, err := password.Hash(np)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to hash password")
		return
	}

	tv, err := h.Store.ChangePassword(r.Context(), userID, newPHC)
	if err != nil {
		apperr.HandleDBError(w, r, err, "update password failed")
		return
	}

	pair, err := h.issueTokens(r.Context(), userID, tv)
	if err != nil {
		log.Printf("[auth] issue tokens for user %d: %v", userID, err)
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to issue tokens")
		return
	}
	resp := map[string]any{"tokens": pair}
	if warn != nil {
		resp["password_warning"] = warn
	}
	httpx.OK(w, resp)
}

// LogoutAll invalidates every outstanding token of the caller.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.Unauthorized(w, r, "authentication credentials were not provided")
		return
	}
	if _, err := h.Store.BumpTokenVersion(r.Context(), userID); err != nil {
		apperr.HandleDBError(w, r, err, "logout all failed")
		return
	}
	httpx.OKStatus(w)
}
