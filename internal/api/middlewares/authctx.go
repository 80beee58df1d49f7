package middlewares

import (
	"context"

	"github.com/5w1tchy/bookshelf-api/internal/security/permissions"
)

const identityKey ctxKey = 1

// Identity is the authenticated caller resolved by RequireAuth.
type Identity struct {
	UserID int64
	Role   permissions.Role
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok && v.UserID > 0
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := IdentityFrom(ctx)
	return id.UserID, ok
}
