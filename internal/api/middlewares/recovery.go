package middlewares

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				rid := GetRequestID(r)
				if rid == "" {
					rid = "unknown"
				}
				log.Printf("[PANIC] RequestID=%s %s %s: %v\n%s",
					rid, r.Method, r.URL.Path, err, debug.Stack())

				// Don't expose internal errors to client
				apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
