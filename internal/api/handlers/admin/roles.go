package admin

import (
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
)

// RoleView answers the role-gated landing views. The router wraps it in
// RequireRole, so reaching it means the caller holds the role.
func RoleView(role permissions.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middlewares.IdentityFrom(r.Context())
		httpx.OK(w, map[string]any{
			"role":        string(role),
			"user_id":     id.UserID,
			"permissions": permissions.Of(role),
		})
	}
}
