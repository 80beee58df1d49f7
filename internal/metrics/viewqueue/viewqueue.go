package viewqueue

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type event struct {
	bookID   int64
	viewedAt time.Time
}

// Queue batches book view events into book_view_events off the request path.
type Queue struct {
	db       *sql.DB
	ch       chan event
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	dropped  atomic.Int64
}

// Start spins up N workers with a buffered channel.
// Suggested: buf=10000, workers=2
func Start(db *sql.DB, buf, workers int) *Queue {
	if buf <= 0 {
		buf = 10000
	}
	if workers <= 0 {
		workers = 1
	}
	q := &Queue{
		db:   db,
		ch:   make(chan event, buf),
		done: make(chan struct{}),
	}
	for range workers {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue tries to queue a view event without blocking.
// If the buffer is full, the event is dropped (acceptable for metrics).
func (q *Queue) Enqueue(bookID int64) {
	if q == nil || bookID <= 0 {
		return
	}
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.ch <- event{bookID: bookID, viewedAt: time.Now().UTC()}:
	default:
		q.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (q *Queue) Dropped() int64 {
	if q == nil {
		return 0
	}
	return q.dropped.Load()
}

// Shutdown signals workers to stop, flushes remaining events, and waits.
func (q *Queue) Shutdown() {
	if q == nil {
		return
	}
	q.stopOnce.Do(func() { close(q.done) })
	q.wg.Wait()
}

// --- internal ---

const (
	batchSize  = 100
	flushEvery = 250 * time.Millisecond
	writeTO    = 500 * time.Millisecond
	insertHead = `INSERT INTO book_view_events (book_id, viewed_at)
SELECT v.book_id, v.viewed_at FROM (VALUES `
	insertTail = `) AS v(book_id, viewed_at)
WHERE EXISTS (SELECT 1 FROM books b WHERE b.id = v.book_id)`
)

func (q *Queue) worker() {
	defer q.wg.Done()
	tk := time.NewTicker(flushEvery)
	defer tk.Stop()

	batch := make([]event, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := q.insertBatch(batch); err != nil {
			log.Printf("[viewqueue] dropped %d events: %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-q.done:
			// drain quickly then flush
			for {
				select {
				case ev := <-q.ch:
					batch = append(batch, ev)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case ev := <-q.ch:
			batch = append(batch, ev)
			if len(batch) >= batchSize {
				flush()
			}
		case <-tk.C:
			flush()
		}
	}
}

// insertBatch writes VALUES ($1,$2),($3,$4)... Views of books deleted in the
// meantime would fail the FK, so rows are filtered through an EXISTS join.
func (q *Queue) insertBatch(batch []event) error {
	args := make([]any, 0, len(batch)*2)
	vals := make([]string, 0, len(batch))
	for i, ev := range batch {
		vals = append(vals, fmt.Sprintf("($%d::bigint,$%d::timestamptz)", 2*i+1, 2*i+2))
		args = append(args, ev.bookID, ev.viewedAt)
	}
	query := insertHead + strings.Join(vals, ",") + insertTail

	ctx, cancel := context.WithTimeout(context.Background(), writeTO)
	defer cancel()
	_, err := q.db.ExecContext(ctx, query, args...)
	return err
}
