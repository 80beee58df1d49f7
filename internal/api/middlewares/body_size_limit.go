package middlewares

import (
	"net/http"
	"os"
	"strconv"
)

const defaultBodyLimit = 1 << 20 // 1MB, payloads are small JSON documents

// MaxBodySize returns MAX_BODY_SIZE in bytes or the default.
func MaxBodySize() int64 {
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultBodyLimit
}

func BodySizeLimit(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
