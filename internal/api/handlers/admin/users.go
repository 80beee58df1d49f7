package admin

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
)

const maxUsersPage = 200

// GET /admin/users/
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), maxUsersPage)
	if limit == 0 {
		limit = 25
	}

	filter := ListFilter{
		Query:  q.Get("search"),
		Role:   q.Get("role"),
		Limit:  limit,
		Offset: offset,
	}
	if filter.Role != "" {
		role, ok := permissions.ParseRole(filter.Role)
		if !ok {
			apperr.Validation(w, r, apperr.FieldError{Field: "role", Code: "invalid_choice", Message: "unknown role"})
			return
		}
		filter.Role = string(role)
	}

	users, total, err := h.Sto.ListUsers(r.Context(), filter)
	if err != nil {
		apperr.HandleDBError(w, r, err, "list users failed")
		return
	}

	httpx.OK(w, map[string]any{
		"results": users, "count": total, "limit": limit, "offset": offset,
	})
}

// GET /admin/users/{id}/
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "user not found")
		return
	}

	user, err := h.Sto.GetUser(r.Context(), id)
	if errors.Is(err, ErrUserNotFound) {
		apperr.NotFound(w, r, "user not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "get user failed")
		return
	}
	httpx.OK(w, user)
}

// POST /admin/users/{id}/role/
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	adminID := getAdminID(r.Context())
	userID, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "user not found")
		return
	}

	var body SetRoleRequest
	if fe := validate.DecodeJSON(r.Body, &body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}
	if role, ok := permissions.ParseRole(body.Role); ok {
		body.Role = string(role)
	}
	if fe := validate.Struct(body); fe != nil {
		apperr.Validation(w, r, fe...)
		return
	}

	// keep at least one admin around
	if adminID == userID && body.Role != string(permissions.RoleAdmin) {
		count, err := h.Sto.AdminCount(r.Context())
		if err != nil {
			apperr.HandleDBError(w, r, err, "check admins failed")
			return
		}
		if count <= 1 {
			apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", "cannot demote the last admin")
			return
		}
	}

	if !h.checkRateLimit(w, r, "setrole", 50, time.Hour) {
		return
	}

	err := h.Sto.SetUserRole(r.Context(), userID, body.Role)
	if errors.Is(err, ErrUserNotFound) {
		apperr.NotFound(w, r, "user not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "set role failed")
		return
	}

	log.Printf("[admin] user %d set role of user %d to %s", adminID, userID, body.Role)
	httpx.OK(w, map[string]any{"id": userID, "role": body.Role})
}

// POST /admin/users/{id}/logout-all/
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r)
	if !ok {
		apperr.NotFound(w, r, "user not found")
		return
	}
	if !h.checkRateLimit(w, r, "logoutall", 50, time.Hour) {
		return
	}

	err := h.Sto.BumpTokenVersion(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		apperr.NotFound(w, r, "user not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "logout all failed")
		return
	}
	httpx.NoContent(w)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
