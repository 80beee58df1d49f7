package books

import (
	"net/http"

	"github.com/5w1tchy/bookshelf-api/internal/store/shared"
)

func pathID(r *http.Request) (int64, bool) {
	return shared.ParseID(r.PathValue("id"))
}
