package router

import (
	"net/http"
	"strings"

	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/admin"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
)

// MountAdmin wires the /admin/* endpoints behind the Admin role and the
// role-gated /roles/* views.
func MountAdmin(mux *http.ServeMux, d Deps) {
	gate := func(next http.HandlerFunc) http.Handler {
		return middlewares.RequireRole(d.Users, permissions.RoleAdmin, next)
	}

	mux.Handle("GET /admin/users/{$}", gate(d.Admin.ListUsers))
	mux.Handle("GET /admin/users/{id}/{$}", gate(d.Admin.GetUser))
	mux.Handle("POST /admin/users/{id}/role/{$}", gate(d.Admin.SetRole))
	mux.Handle("POST /admin/users/{id}/logout-all/{$}", gate(d.Admin.LogoutAll))

	for _, role := range permissions.Roles() {
		path := "GET /roles/" + strings.ToLower(string(role)) + "/{$}"
		mux.Handle(path, middlewares.RequireRole(d.Users, role, admin.RoleView(role)))
	}
}
