package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	jwtutil "github.com/5w1tchy/bookshelf-api/internal/security/jwt"
	"github.com/5w1tchy/bookshelf-api/internal/validate"
	"github.com/redis/go-redis/v9"
)

var (
	errRefreshDisabled = errors.New("refresh tokens disabled: redis not configured")
	errInvalidRefresh  = errors.New("invalid refresh token")
)

const refreshPrefix = "rt:"

// issueTokens signs an access token and, when Redis is available, an
// allowlisted refresh token bound to the user's token_version.
func (h *Handler) issueTokens(ctx context.Context, userID int64, tokenVersion int) (TokenPair, error) {
	ttl := jwtutil.DefaultAccessTTL()
	access, _, err := jwtutil.SignAccess(userID, tokenVersion, ttl)
	if err != nil {
		return TokenPair{}, err
	}
	pair := TokenPair{AccessToken: access, TokenType: "Bearer", ExpiresIn: int(ttl.Seconds())}

	if h.RDB == nil {
		return pair, nil
	}
	refresh, err := h.issueRefresh(ctx, userID, tokenVersion)
	if err != nil {
		return TokenPair{}, err
	}
	pair.RefreshToken = refresh
	return pair, nil
}

// issueRefresh creates and stores a refresh token in Redis
func (h *Handler) issueRefresh(ctx context.Context, userID int64, tokenVersion int) (string, error) {
	if h.RDB == nil {
		return "", errRefreshDisabled
	}
	token, err := randToken()
	if err != nil {
		return "", err
	}
	val := strconv.FormatInt(userID, 10) + "|" + strconv.Itoa(tokenVersion)
	if err := h.RDB.Set(ctx, refreshPrefix+token, val, refreshTTL()).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// consumeRefresh atomically reads and deletes a refresh token (rotation).
func (h *Handler) consumeRefresh(ctx context.Context, token string) (userID int64, tokenVersion int, err error) {
	if h.RDB == nil {
		return 0, 0, errRefreshDisabled
	}
	val, err := h.RDB.GetDel(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, errInvalidRefresh
	}
	if err != nil {
		return 0, 0, err
	}
	return parseRefreshValue(val)
}

func (h *Handler) revokeRefresh(ctx context.Context, token string) error {
	if h.RDB == nil || token == "" {
		return nil
	}
	return h.RDB.Del(ctx, refreshPrefix+token).Err()
}

// value: userID|tokenVersion
func parseRefreshValue(val string) (int64, int, error) {
	uid, tv, ok := strings.Cut(val, "|")
	if !ok {
		return 0, 0, errInvalidRefresh
	}
	id, err := strconv.ParseInt(uid, 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, errInvalidRefresh
	}
	ver, err := strconv.Atoi(tv)
	if err != nil {
		return 0, 0, errInvalidRefresh
	}
	return id, ver, nil
}

func refreshTTL() time.Duration {
	return validate.EnvDuration("AUTH_REFRESH_TTL", 30*24*time.Hour)
}

func randToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
