package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/httpx"
	"github.com/redis/go-redis/v9"
)

type DBPinger interface {
	PingContext(ctx context.Context) error
}

// Healthz reports liveness only.
func Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.OKStatus(w)
}

// Readyz checks Postgres and, when configured, Redis.
func Readyz(db DBPinger, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok"}
		ready := true
		if err := db.PingContext(ctx); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				ready = false
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, status, map[string]any{"ready": ready, "checks": checks})
	}
}
