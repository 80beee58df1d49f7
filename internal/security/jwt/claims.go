package jwtutil

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	TokenVersion int `json:"tv"`
	jwt.RegisteredClaims
}

func NewAccessClaims(userID int64, jti string, tokenVersion int, ttl time.Duration) AccessClaims {
	now := time.Now()
	return AccessClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        jti,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// UserID parses the numeric subject.
func (c *AccessClaims) UserID() (int64, bool) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
