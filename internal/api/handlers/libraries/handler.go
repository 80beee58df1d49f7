package libraries

import (
	"context"

	"github.com/5w1tchy/bookshelf-api/internal/models"
)

type Store interface {
	List(ctx context.Context) ([]models.Library, error)
	Get(ctx context.Context, id int64) (models.LibraryDetail, error)
	Create(ctx context.Context, name string) (models.Library, error)
	AddBook(ctx context.Context, libraryID, bookID int64) error
	RemoveBook(ctx context.Context, libraryID, bookID int64) error
	SetLibrarian(ctx context.Context, libraryID int64, name string) (models.Librarian, error)
}

type Handler struct {
	Sto Store
}

func New(sto Store) *Handler { return &Handler{Sto: sto} }

type nameRequest struct {
	Name string `json:"name" validate:"trimmed_min1,max=100"`
}

type addBookRequest struct {
	BookID *int64 `json:"book_id" validate:"required,gt=0"`
}
