package authors

import (
	"context"

	"github.com/5w1tchy/bookshelf-api/internal/models"
	"github.com/5w1tchy/bookshelf-api/internal/store/listcache"
)

type Store interface {
	List(ctx context.Context, limit, offset int) ([]models.Author, error)
	Get(ctx context.Context, id int64) (models.AuthorDetail, error)
	Create(ctx context.Context, name string) (models.Author, error)
	Delete(ctx context.Context, id int64) ([]string, error)
}

// ObjectRemover deletes stored objects; *s3.S3Client implements it.
type ObjectRemover interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

type Handler struct {
	Sto     Store
	Cache   *listcache.Cache
	Objects ObjectRemover // optional
}

func New(sto Store, cache *listcache.Cache, objects ObjectRemover) *Handler {
	return &Handler{Sto: sto, Cache: cache, Objects: objects}
}

type createRequest struct {
	Name string `json:"name" validate:"trimmed_min1,max=100"`
}
