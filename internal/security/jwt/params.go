package jwtutil

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Secret    []byte
	Issuer    string
	ClockSkew time.Duration
	AccessTTL time.Duration
}

func LoadConfig() Config {
	// validate.Env enforces the 32-char minimum at startup
	secret := os.Getenv("AUTH_JWT_SECRET")
	leeway := time.Duration(parseInt("AUTH_CLOCK_SKEW_SEC", 60)) * time.Second
	return Config{
		Secret:    []byte(secret),
		Issuer:    "bookshelf-api",
		ClockSkew: leeway,
		AccessTTL: parseDuration("AUTH_ACCESS_TTL", "15m"),
	}
}

func parseInt(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func parseDuration(key, def string) time.Duration {
	s := def
	if v := os.Getenv(key); v != "" {
		s = v
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(def)
	}
	return d
}
