package books

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/5w1tchy/bookshelf-api/internal/models"
	storebooks "github.com/5w1tchy/bookshelf-api/internal/store/books"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mimics the SQL store closely enough for handler tests.
type memStore struct {
	mu      sync.Mutex
	authors map[int64]string
	books   map[int64]models.Book
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{authors: map[int64]string{}, books: map[int64]models.Book{}}
}

func (m *memStore) addAuthor(id int64, name string) { m.authors[id] = name }

func (m *memStore) List(_ context.Context, f storebooks.ListFilters) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Book{}
	for _, b := range m.books {
		if f.Title != "" && b.Title != f.Title {
			continue
		}
		if f.AuthorID > 0 && b.Author != f.AuthorID {
			continue
		}
		if f.PublicationYear != nil && b.PublicationYear != *f.PublicationYear {
			continue
		}
		if f.Search != "" {
			s := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(b.Title), s) &&
				!strings.Contains(strings.ToLower(m.authors[b.Author]), s) {
				continue
			}
		}
		out = append(out, b)
	}

	desc := strings.HasPrefix(strings.TrimSpace(f.Ordering), "-")
	byYear := strings.TrimPrefix(strings.TrimSpace(f.Ordering), "-") == "publication_year"
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if byYear && a.PublicationYear != b.PublicationYear {
			return (a.PublicationYear < b.PublicationYear) != desc
		}
		if !byYear && a.Title != b.Title {
			return (a.Title < b.Title) != desc
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *memStore) Get(_ context.Context, id int64) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return models.Book{}, storebooks.ErrNotFound
	}
	return b, nil
}

func (m *memStore) Create(_ context.Context, in storebooks.CreateInput) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.authors[in.AuthorID]; !ok {
		return models.Book{}, storebooks.ErrInvalidAuthor
	}
	m.nextID++
	b := models.Book{ID: m.nextID, Title: in.Title, PublicationYear: in.PublicationYear, Author: in.AuthorID}
	m.books[b.ID] = b
	return b, nil
}

func (m *memStore) Update(_ context.Context, id int64, in storebooks.UpdateInput) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return models.Book{}, storebooks.ErrNotFound
	}
	if in.AuthorID != nil {
		if _, ok := m.authors[*in.AuthorID]; !ok {
			return models.Book{}, storebooks.ErrInvalidAuthor
		}
		b.Author = *in.AuthorID
	}
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.PublicationYear != nil {
		b.PublicationYear = *in.PublicationYear
	}
	m.books[id] = b
	return b, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return storebooks.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memStore) CoverKey(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return "", storebooks.ErrNotFound
	}
	return b.CoverKey, nil
}

func (m *memStore) SetCoverKey(_ context.Context, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return storebooks.ErrNotFound
	}
	b.CoverKey = key
	m.books[id] = b
	return nil
}

type countingViews struct{ ids []int64 }

func (c *countingViews) Enqueue(id int64) { c.ids = append(c.ids, id) }

type fakeCovers struct{ fail bool }

func (f fakeCovers) PresignUpload(_ context.Context, key, _ string) (string, time.Time, error) {
	if f.fail {
		return "", time.Time{}, errors.New("offline")
	}
	return "https://bucket.example/" + key + "?sig=put", time.Now().Add(15 * time.Minute), nil
}

func (f fakeCovers) PresignDownload(_ context.Context, key string) (string, error) {
	if f.fail {
		return "", errors.New("offline")
	}
	return "https://bucket.example/" + key + "?sig=get", nil
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string, pathID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if pathID != "" {
		req.SetPathValue("id", pathID)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBooks(t *testing.T, rec *httptest.ResponseRecorder) []models.Book {
	t.Helper()
	var out []models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func titles(bs []models.Book) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Title)
	}
	return out
}

func TestBookLifecycle_JohnWriter(t *testing.T) {
	sto := newMemStore()
	sto.addAuthor(1, "John Writer")
	views := &countingViews{}
	h := New(sto, nil, views, nil)

	rec := do(t, h.Create, http.MethodPost, "/books/create/", `{"title":"Book One","publication_year":2020,"author":1}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var one models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.NotZero(t, one.ID)
	assert.Equal(t, int64(1), one.Author)

	rec = do(t, h.Create, http.MethodPost, "/books/create/", `{"title":"Another Story","publication_year":2018,"author":1}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// default ordering is title ascending
	rec = do(t, h.List, http.MethodGet, "/books/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Another Story", "Book One"}, titles(decodeBooks(t, rec)))

	rec = do(t, h.List, http.MethodGet, "/books/?ordering=-publication_year", "", "")
	assert.Equal(t, []string{"Book One", "Another Story"}, titles(decodeBooks(t, rec)))

	rec = do(t, h.List, http.MethodGet, "/books/?search=john", "", "")
	assert.Len(t, decodeBooks(t, rec), 2, "search matches the author name")

	rec = do(t, h.List, http.MethodGet, "/books/?search=ANOTHER", "", "")
	assert.Equal(t, []string{"Another Story"}, titles(decodeBooks(t, rec)))

	rec = do(t, h.List, http.MethodGet, "/books/?title=Book%20One&unknown=1", "", "")
	assert.Equal(t, []string{"Book One"}, titles(decodeBooks(t, rec)))

	rec = do(t, h.List, http.MethodGet, "/books/?publication_year=2018&author=1", "", "")
	assert.Equal(t, []string{"Another Story"}, titles(decodeBooks(t, rec)))

	idStr := jsonID(one.ID)
	rec = do(t, h.Retrieve, http.MethodGet, "/books/"+idStr+"/", "", idStr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{one.ID}, views.ids)

	rec = do(t, h.Update, http.MethodPatch, "/books/"+idStr+"/update/", `{"title":"Book One (revised)"}`, idStr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, "Book One (revised)", patched.Title)
	assert.Equal(t, 2020, patched.PublicationYear, "PATCH keeps unspecified fields")

	rec = do(t, h.Delete, http.MethodDelete, "/books/"+idStr+"/delete/", "", idStr)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h.Retrieve, http.MethodGet, "/books/"+idStr+"/", "", idStr)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h.List, http.MethodGet, "/books/", "", "")
	assert.Equal(t, []string{"Another Story"}, titles(decodeBooks(t, rec)))
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func problemFields(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var p apperr.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	out := map[string]string{}
	for _, fe := range p.FieldErrors {
		out[fe.Field] = fe.Code
	}
	return out
}

func TestCreate_Validation(t *testing.T) {
	sto := newMemStore()
	sto.addAuthor(1, "John Writer")
	h := New(sto, nil, nil, nil)

	cases := []struct {
		name  string
		body  string
		field string
		code  string
	}{
		{"missing title", `{"publication_year":2020,"author":1}`, "title", "required"},
		{"blank title", `{"title":"   ","publication_year":2020,"author":1}`, "title", "required"},
		{"missing year", `{"title":"X","author":1}`, "publication_year", "required"},
		{"year as string", `{"title":"X","publication_year":"soon","author":1}`, "publication_year", "invalid"},
		{"missing author", `{"title":"X","publication_year":2020}`, "author", "required"},
		{"unknown author", `{"title":"X","publication_year":2020,"author":99}`, "author", "does_not_exist"},
		{"empty body", ``, "body", "required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h.Create, http.MethodPost, "/books/create/", tc.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tc.code, problemFields(t, rec)[tc.field])
		})
	}
	assert.Empty(t, sto.books)
}

func TestUpdate_PutRequiresFullFieldSet(t *testing.T) {
	sto := newMemStore()
	sto.addAuthor(1, "John Writer")
	sto.addAuthor(2, "Jane Poet")
	h := New(sto, nil, nil, nil)
	b, err := sto.Create(context.Background(), storebooks.CreateInput{Title: "Book One", PublicationYear: 2020, AuthorID: 1})
	require.NoError(t, err)
	id := jsonID(b.ID)

	rec := do(t, h.Update, http.MethodPut, "/books/"+id+"/update/", `{"title":"Only title"}`, id)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := problemFields(t, rec)
	assert.Contains(t, fields, "publication_year")
	assert.Contains(t, fields, "author")

	rec = do(t, h.Update, http.MethodPut, "/books/"+id+"/update/", `{"title":"Poems","publication_year":1999,"author":2}`, id)
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := sto.Get(context.Background(), b.ID)
	assert.Equal(t, models.Book{ID: b.ID, Title: "Poems", PublicationYear: 1999, Author: 2}, got)

	rec = do(t, h.Update, http.MethodPatch, "/books/"+id+"/update/", `{"author":42}`, id)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "does_not_exist", problemFields(t, rec)["author"])

	rec = do(t, h.Update, http.MethodPatch, "/books/"+id+"/update/", `{"title":""}`, id)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h.Update, http.MethodPatch, "/books/999/update/", `{"title":"x"}`, "999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_UnknownIDWinsOverInvalidBody(t *testing.T) {
	h := New(newMemStore(), nil, nil, nil)

	for _, tc := range []struct{ method, body string }{
		{http.MethodPatch, `{"title":""}`},
		{http.MethodPatch, `not json`},
		{http.MethodPut, `{"title":"Only title"}`},
	} {
		rec := do(t, h.Update, tc.method, "/books/404/update/", tc.body, "404")
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.body)
	}
}

func TestList_InvalidFilters(t *testing.T) {
	h := New(newMemStore(), nil, nil, nil)

	rec := do(t, h.List, http.MethodGet, "/books/?author=abc", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", problemFields(t, rec)["author"])

	rec = do(t, h.List, http.MethodGet, "/books/?publication_year=two", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h.List, http.MethodGet, "/books/?publication_year=99999999999", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid", problemFields(t, rec)["publication_year"])

	rec = do(t, h.List, http.MethodGet, "/books/?publication_year=-2147483648", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h.List, http.MethodGet, "/books/?ordering=nonsense", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestParseListFilters_CanonicalIgnoresNoise(t *testing.T) {
	q1 := mustQuery(t, "search=John&ordering=title&utm=1")
	q2 := mustQuery(t, "ordering=title&search=JOHN")
	_, c1, errs := parseListFilters(q1)
	require.Nil(t, errs)
	_, c2, _ := parseListFilters(q2)
	assert.Equal(t, c1, c2)

	f, _, _ := parseListFilters(mustQuery(t, "title=%20Book%20%20One%20&limit=10&offset=5"))
	assert.Equal(t, "Book One", f.Title)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, 5, f.Offset)
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/books/?"+raw, nil)
	return req.URL.Query()
}

func TestDelete_UnknownAndMalformedID(t *testing.T) {
	h := New(newMemStore(), nil, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(t, h.Delete, http.MethodDelete, "/books/5/delete/", "", "5").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h.Delete, http.MethodDelete, "/books/x/delete/", "", "x").Code)
}

func TestCovers(t *testing.T) {
	sto := newMemStore()
	sto.addAuthor(1, "John Writer")
	b, err := sto.Create(context.Background(), storebooks.CreateInput{Title: "Book One", PublicationYear: 2020, AuthorID: 1})
	require.NoError(t, err)
	id := jsonID(b.ID)

	t.Run("storage not configured", func(t *testing.T) {
		h := New(sto, nil, nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, h.Cover, http.MethodGet, "/books/"+id+"/cover/", "", id).Code)
	})

	h := New(sto, nil, nil, fakeCovers{})

	rec := do(t, h.Cover, http.MethodGet, "/books/"+id+"/cover/", "", id)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no cover uploaded yet")

	rec = do(t, h.CoverUploadURL, http.MethodPost, "/books/"+id+"/cover/upload-url/", `{"content_type":"image/gif"}`, id)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h.CoverUploadURL, http.MethodPost, "/books/"+id+"/cover/upload-url/", `{"content_type":"image/png"}`, id)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		UploadURL string `json:"upload_url"`
		Key       string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, strings.HasPrefix(out.Key, "covers/"+id+"/"))
	assert.True(t, strings.HasSuffix(out.Key, ".png"))
	assert.Contains(t, out.UploadURL, out.Key)

	rec = do(t, h.Cover, http.MethodGet, "/books/"+id+"/cover/", "", id)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), out.Key)

	rec = do(t, h.CoverUploadURL, http.MethodPost, "/books/77/cover/upload-url/", `{"content_type":"image/png"}`, "77")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
