package jwtutil

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var cfg = LoadConfig()

// Configure replaces the package configuration (startup after .env load, tests).
func Configure(c Config) {
	if c.Issuer == "" {
		c.Issuer = "bookshelf-api"
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = 15 * time.Minute
	}
	cfg = c
}

// SignAccess returns (tokenString, jti).
func SignAccess(userID int64, tokenVersion int, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	claims := NewAccessClaims(userID, jti, tokenVersion, ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(cfg.Secret)
	return s, jti, err
}

// ParseAccess verifies HS256 signature, issuer and leeway, returning claims.
func ParseAccess(tokenStr string) (*AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func DefaultAccessTTL() time.Duration {
	if cfg.AccessTTL > 0 {
		return cfg.AccessTTL
	}
	return 15 * time.Minute
}
