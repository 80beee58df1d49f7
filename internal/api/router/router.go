package router

import (
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/api/handlers"
	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/admin"
	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/authors"
	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/books"
	"github.com/5w1tchy/bookshelf-api/internal/api/handlers/libraries"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	"github.com/5w1tchy/bookshelf-api/internal/auth"
	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
	"github.com/redis/go-redis/v9"
)

// Deps carries the handlers the router mounts. Users resolves the token
// version and role behind every authenticated route.
type Deps struct {
	DB        handlers.DBPinger
	RDB       *redis.Client // optional
	Users     middlewares.UserLookup
	Auth      *auth.Handler
	Books     *books.Handler
	Authors   *authors.Handler
	Libraries *libraries.Handler
	Admin     *admin.Handler
}

func Router(d Deps) http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		return middlewares.RequireAuth(d.Users, h)
	}
	can := func(p permissions.Permission, h http.HandlerFunc) http.Handler {
		return middlewares.RequirePermission(d.Users, p, h)
	}
	admins := func(h http.HandlerFunc) http.Handler {
		return middlewares.RequireRole(d.Users, permissions.RoleAdmin, h)
	}

	// Ops
	mux.HandleFunc("GET /healthz", handlers.Healthz)
	mux.Handle("GET /readyz", handlers.Readyz(d.DB, d.RDB))

	// Books
	mux.HandleFunc("GET /books/{$}", d.Books.List)
	mux.HandleFunc("GET /books/{id}/{$}", d.Books.Retrieve)
	mux.Handle("POST /books/create/{$}", authed(d.Books.Create))
	mux.Handle("PATCH /books/{id}/update/{$}", authed(d.Books.Update))
	mux.Handle("PUT /books/{id}/update/{$}", authed(d.Books.Update))
	mux.Handle("DELETE /books/{id}/delete/{$}", authed(d.Books.Delete))
	mux.HandleFunc("GET /books/{id}/cover/{$}", d.Books.Cover)
	mux.Handle("POST /books/{id}/cover/upload-url/{$}", authed(d.Books.CoverUploadURL))

	// Permission-gated book management
	mux.Handle("POST /manage/books/{$}", can(permissions.CanAddBook, d.Books.Create))
	mux.Handle("PATCH /manage/books/{id}/{$}", can(permissions.CanChangeBook, d.Books.Update))
	mux.Handle("DELETE /manage/books/{id}/{$}", can(permissions.CanDeleteBook, d.Books.Delete))

	// Authors
	mux.HandleFunc("GET /authors/{$}", d.Authors.List)
	mux.HandleFunc("GET /authors/{id}/{$}", d.Authors.Get)
	mux.Handle("POST /authors/create/{$}", authed(d.Authors.Create))
	mux.Handle("DELETE /authors/{id}/delete/{$}", can(permissions.CanDeleteBook, d.Authors.Delete))

	// Libraries
	mux.HandleFunc("GET /libraries/{$}", d.Libraries.List)
	mux.HandleFunc("GET /libraries/{id}/{$}", d.Libraries.Get)
	mux.Handle("POST /libraries/create/{$}", admins(d.Libraries.Create))
	mux.Handle("POST /libraries/{id}/books/{$}", can(permissions.CanChangeBook, d.Libraries.AddBook))
	mux.Handle("DELETE /libraries/{id}/books/{book_id}/{$}", can(permissions.CanChangeBook, d.Libraries.RemoveBook))
	mux.Handle("PUT /libraries/{id}/librarian/{$}", admins(d.Libraries.SetLibrarian))

	MountAuth(mux, d)
	MountAdmin(mux, d)

	return mux
}

// MountAuth wires /auth/*. Login and register share the per-IP login limit.
func MountAuth(mux *http.ServeMux, d Deps) {
	limited := func(h http.HandlerFunc) http.Handler {
		return middlewares.LoginRateLimit(d.RDB, h)
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return middlewares.RequireAuth(d.Users, h)
	}

	mux.Handle("POST /auth/register/{$}", limited(d.Auth.Register))
	mux.Handle("POST /auth/login/{$}", limited(d.Auth.Login))
	mux.HandleFunc("POST /auth/refresh/{$}", d.Auth.Refresh)
	mux.HandleFunc("POST /auth/logout/{$}", d.Auth.Logout)
	mux.Handle("GET /auth/me/{$}", authed(d.Auth.Me))
	mux.Handle("POST /auth/password/{$}", authed(d.Auth.ChangePassword))
	mux.Handle("POST /auth/logout-all/{$}", authed(d.Auth.LogoutAll))
}
