package middlewares

import (
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
)

// RequireRole wraps a handler and ensures the caller has the given role.
func RequireRole(users UserLookup, role permissions.Role, next http.Handler) http.Handler {
	return RequireAuth(users, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			apperr.Unauthorized(w, r, "authentication credentials were not provided")
			return
		}
		if id.Role != role {
			apperr.Forbidden(w, r, "requires role "+string(role))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequirePermission wraps a handler and ensures the caller's role grants perm.
func RequirePermission(users UserLookup, perm permissions.Permission, next http.Handler) http.Handler {
	return RequireAuth(users, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			apperr.Unauthorized(w, r, "authentication credentials were not provided")
			return
		}
		if !permissions.HasPermission(id.Role, perm) {
			apperr.Forbidden(w, r, "missing permission "+string(perm))
			return
		}
		next.ServeHTTP(w, r)
	}))
}
