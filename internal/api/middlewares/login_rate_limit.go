package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/validate"
	"github.com/redis/go-redis/v9"
)

// LoginRateLimit caps credential attempts per client IP (fixed window).
func LoginRateLimit(rdb *redis.Client, next http.Handler) http.Handler {
	// Defaults: 10 attempts per 5 minutes
	limit := validate.EnvInt("LOGIN_MAX_ATTEMPTS", 10)
	win := validate.EnvDuration("LOGIN_WINDOW", 5*time.Minute)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" || rdb == nil { // fail-open if no IP/Redis
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := "rl:login:" + ip

		n, err := rdb.Incr(ctx, key).Result()
		if err == nil && n == 1 {
			_ = rdb.Expire(ctx, key, win).Err()
		}
		if err == nil && n > int64(limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(win.Seconds())))
			tooMany(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
