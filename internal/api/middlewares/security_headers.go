package middlewares

import (
	"net/http"
	"os"
)

func SecurityHeaders(next http.Handler) http.Handler {
	strict := os.Getenv("STRICT_SECURITY") == "1"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		// HSTS only means something over HTTPS
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		// JSON API, no documents to render
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if strict {
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Embedder-Policy", "require-corp")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
		}

		h.Set("Server", "")

		next.ServeHTTP(w, r)
	})
}
