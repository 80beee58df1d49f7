package middlewares

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	jwtutil "github.com/5w1tchy/bookshelf-api/internal/security/jwt"
	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
)

// UserLookup resolves the current token version and role of a user.
// Implementations return an error wrapping sql.ErrNoRows for unknown users.
type UserLookup interface {
	AuthState(ctx context.Context, userID int64) (tokenVersion int, role string, err error)
}

// RequireAuth verifies the Bearer JWT, checks token_version against the store,
// then injects the caller identity into the request context.
func RequireAuth(users UserLookup, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			apperr.Unauthorized(w, r, "authentication credentials were not provided")
			return
		}
		tokenStr, err := bearer(raw)
		if err != nil {
			apperr.Unauthorized(w, r, "invalid Authorization header")
			return
		}
		claims, err := jwtutil.ParseAccess(tokenStr)
		if err != nil {
			apperr.Unauthorized(w, r, "invalid token")
			return
		}
		userID, ok := claims.UserID()
		if !ok {
			apperr.Unauthorized(w, r, "invalid token subject")
			return
		}

		dbVer, role, err := users.AuthState(r.Context(), userID)
		if errors.Is(err, sql.ErrNoRows) {
			apperr.Unauthorized(w, r, "user not found")
			return
		} else if err != nil {
			log.Printf("[auth] token version lookup failed for user %d: %v", userID, err)
			apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
			return
		}
		if claims.TokenVersion != dbVer {
			apperr.Unauthorized(w, r, "token revoked")
			return
		}

		ctx := WithIdentity(r.Context(), Identity{UserID: userID, Role: permissions.Role(role)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearer(h string) (string, error) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("no bearer")
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", errors.New("empty bearer")
	}
	return tok, nil
}
