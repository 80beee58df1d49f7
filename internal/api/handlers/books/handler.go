package books

import (
	"context"
	"log"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/models"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
	"github.com/5w1tchy/bookshelf-api/internal/store/listcache"
)

// Store is the persistence surface the handlers need; *books.Store implements it.
type Store interface {
	List(ctx context.Context, f storebooks.ListFilters) ([]models.Book, error)
	Get(ctx context.Context, id int64) (models.Book, error)
	Create(ctx context.Context, in storebooks.CreateInput) (models.Book, error)
	Update(ctx context.Context, id int64, in storebooks.UpdateInput) (models.Book, error)
	Delete(ctx context.Context, id int64) error
	CoverKey(ctx context.Context, id int64) (string, error)
	SetCoverKey(ctx context.Context, id int64, key string) error
}

type ViewRecorder interface {
	Enqueue(bookID int64)
}

// CoverStorage presigns object URLs; *s3.S3Client implements it.
type CoverStorage interface {
	PresignUpload(ctx context.Context, objectKey, contentType string) (string, time.Time, error)
	PresignDownload(ctx context.Context, objectKey string) (string, error)
}

type Handler struct {
	Sto    Store
	Cache  *listcache.Cache // nil disables list caching
	Views  ViewRecorder     // optional
	Covers CoverStorage     // optional; cover endpoints answer 503 without it
}

func New(sto Store, cache *listcache.Cache, views ViewRecorder, covers CoverStorage) *Handler {
	return &Handler{Sto: sto, Cache: cache, Views: views, Covers: covers}
}

// invalidate drops every cached list after a write. On failure cached lists
// live until their TTL.
func (h *Handler) invalidate(ctx context.Context) {
	if err := h.Cache.BumpVersion(ctx); err != nil {
		log.Printf("[books] %v", err)
	}
}
