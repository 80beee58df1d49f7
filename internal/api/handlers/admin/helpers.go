package admin

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/api/middlewares"
	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
)

func pathID(r *http.Request) (int64, bool) {
	return shared.ParseID(r.PathValue("id"))
}

func getAdminID(ctx context.Context) int64 {
	id, _ := middlewares.UserIDFrom(ctx)
	return id
}

// ===== Rate Limiting =====

func rateKey(prefix string, adminID int64) string {
	return "admin:rl:" + prefix + ":" + formatID(adminID)
}

func (h *Handler) allowAction(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := h.RDB.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return int(incr.Val()) <= limit, nil
}

// checkRateLimit caps privileged actions per admin. Redis failures fail open.
func (h *Handler) checkRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int, window time.Duration) bool {
	if h.RDB == nil {
		return true
	}
	ok, err := h.allowAction(r.Context(), rateKey(action, getAdminID(r.Context())), limit, window)
	if err != nil {
		log.Printf("[admin] rate limit check failed: %v (allowing)", err)
		return true
	}
	if !ok {
		w.Header().Set("Retry-After", "60")
		apperr.Write(w, r, apperr.Problem{Status: http.StatusTooManyRequests, Title: "Too Many Requests", Detail: "admin action limit reached"})
		return false
	}
	return true
}
