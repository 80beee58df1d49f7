package maintenance

import (
	"context"
	"database/sql"
	"log"
	"strconv"
	"strings"
	"time"
)

// PruneViewEvents deletes book_view_events older than keepDays days.
func PruneViewEvents(ctx context.Context, db *sql.DB, keepDays int) (int64, error) {
	if keepDays <= 0 {
		keepDays = 90
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM book_view_events WHERE viewed_at < now() - make_interval(days => $1)`, keepDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartViewRetention runs a daily job at localTime ("HH:MM") in tzName that
// prunes view events older than keepDays. It returns immediately.
// Call once at startup: maintenance.StartViewRetention(ctx, db, 90, "03:00", "UTC")
func StartViewRetention(ctx context.Context, db *sql.DB, keepDays int, localTime string, tzName string) {
	go func() {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			loc = time.UTC
		}
		h, m := parseClock(localTime)

		for {
			now := time.Now().In(loc)
			timer := time.NewTimer(time.Until(nextRun(now, h, m)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				n, err := PruneViewEvents(ctx, db, keepDays)
				if err != nil {
					log.Printf("[retention] prune book_view_events failed: %v", err)
				} else {
					log.Printf("[retention] pruned %d book_view_events older than %d days", n, keepDays)
				}
			}
		}
	}()
}

// parseClock reads "HH:MM", defaulting to 03:00.
func parseClock(s string) (int, int) {
	h, m := 3, 0
	hs, ms, ok := strings.Cut(s, ":")
	if !ok {
		return h, m
	}
	if v, err := strconv.Atoi(hs); err == nil && v >= 0 && v < 24 {
		h = v
	}
	if v, err := strconv.Atoi(ms); err == nil && v >= 0 && v < 60 {
		m = v
	}
	return h, m
}

func nextRun(now time.Time, h, m int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
