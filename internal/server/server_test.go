package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/metrics"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/schema"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/store"
)

type errorBody struct {
	Detail []schema.FieldError `json:"detail"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewMemoryStore(zap.NewNop())
	return NewServer(st, zap.NewNop(), Options{}).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createArticle(t *testing.T, h http.Handler, title, status string) model.Article {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"content":"body of %s","status":%q}`, title, title, status)
	rec := do(t, h, http.MethodPost, "/articles/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Article](t, rec)
}

func TestRootAndHealth(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Blog Articles API","version":"1.0.0"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestCreateThenGet(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/articles/", `{"title":"Hello","content":"World"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	created := decode[model.Article](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Hello", created.Title)
	assert.Equal(t, "World", created.Content)
	assert.Equal(t, model.StatusDraft, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	rec = do(t, h, http.MethodGet, "/articles/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[model.Article](t, rec))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "draft", raw["status"])
	_, err := time.Parse(time.RFC3339Nano, raw["created_at"].(string))
	assert.NoError(t, err)
}

func TestGetMissing(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/articles/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Article not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/articles/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	require.Len(t, body.Detail, 1)
	assert.Equal(t, []string{"path", "article_id"}, body.Detail[0].Loc)
}

func TestCreateValidation(t *testing.T) {
	h := newTestServer(t)

	long := bytes.Repeat([]byte("a"), 201)
	bodies := []string{
		`{"title":"","content":"x"}`,
		`{"title":"` + string(long) + `","content":"x"}`,
		`{"title":"t","content":""}`,
		`{"title":"t"}`,
		`{"title":"t","content":"x","status":"archived"}`,
		`not json`,
	}
	for _, b := range bodies {
		rec := do(t, h, http.MethodPost, "/articles/", b)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, b)
		body := decode[errorBody](t, rec)
		assert.NotEmpty(t, body.Detail, b)
	}

	// Nothing was stored
	rec := do(t, h, http.MethodGet, "/articles/", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTitleLengthCountsCharacters(t *testing.T) {
	h := newTestServer(t)

	title := strings.Repeat("ж", schema.MaxTitleLength)
	rec := do(t, h, http.MethodPost, "/articles/", `{"title":"`+title+`","content":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, title, decode[model.Article](t, rec).Title)

	rec = do(t, h, http.MethodPost, "/articles/", `{"title":"`+title+`ж","content":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPut, "/articles/1", `{"title":"`+strings.Repeat("ё", 150)+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/articles/1", `{"title":"`+title+`ж"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdate(t *testing.T) {
	h := newTestServer(t)
	orig := createArticle(t, h, "Hello", "draft")

	// Empty patch refreshes updated_at only
	time.Sleep(2 * time.Millisecond)
	rec := do(t, h, http.MethodPut, "/articles/1", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	same := decode[model.Article](t, rec)
	assert.True(t, same.UpdatedAt.After(orig.UpdatedAt))
	assert.Equal(t, orig.CreatedAt, same.CreatedAt)
	assert.Equal(t, orig.Title, same.Title)
	assert.Equal(t, orig.Content, same.Content)
	assert.Equal(t, orig.Status, same.Status)

	rec = do(t, h, http.MethodPut, "/articles/1", `{"status":"published","title":"Changed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.Article](t, rec)
	assert.Equal(t, "Changed", updated.Title)
	assert.Equal(t, model.StatusPublished, updated.Status)
	assert.Equal(t, orig.Content, updated.Content)
	assert.Equal(t, orig.ID, updated.ID)

	// id and created_at in the body are ignored
	rec = do(t, h, http.MethodPut, "/articles/1", `{"id":5,"created_at":"2000-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ignored := decode[model.Article](t, rec)
	assert.Equal(t, int64(1), ignored.ID)
	assert.Equal(t, orig.CreatedAt, ignored.CreatedAt)
}

func TestUpdateErrors(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/articles/7", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	createArticle(t, h, "Hello", "draft")
	for _, b := range []string{`{"title":""}`, `{"content":""}`, `{"status":"gone"}`, `{"title":null}`} {
		rec = do(t, h, http.MethodPut, "/articles/1", b)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, b)
	}

	rec = do(t, h, http.MethodGet, "/articles/1", "")
	assert.Equal(t, "Hello", decode[model.Article](t, rec).Title)
}

func TestDeleteTwice(t *testing.T) {
	h := newTestServer(t)
	createArticle(t, h, "Hello", "draft")

	rec := do(t, h, http.MethodDelete, "/articles/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = do(t, h, http.MethodDelete, "/articles/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/articles/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFiltersAndPagination(t *testing.T) {
	h := newTestServer(t)
	createArticle(t, h, "foo bar", "draft")
	createArticle(t, h, "BARFOO", "published")
	createArticle(t, h, "baz", "published")
	createArticle(t, h, "qux", "draft")
	createArticle(t, h, "quux", "published")

	ids := func(rec *httptest.ResponseRecorder) []int64 {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []int64
		for _, a := range decode[[]model.Article](t, rec) {
			out = append(out, a.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(do(t, h, http.MethodGet, "/articles/", "")))
	assert.Equal(t, []int64{3, 4}, ids(do(t, h, http.MethodGet, "/articles/?skip=2&limit=2", "")))
	assert.Equal(t, []int64{2, 3, 5}, ids(do(t, h, http.MethodGet, "/articles/?status=published", "")))
	assert.Equal(t, []int64{1, 2}, ids(do(t, h, http.MethodGet, "/articles/?title_contains=Foo", "")))
	assert.Equal(t, []int64{2}, ids(do(t, h, http.MethodGet, "/articles/?title_contains=foo&status=published", "")))
	assert.Equal(t, []int64{5}, ids(do(t, h, http.MethodGet, "/articles/?status=published&skip=2", "")))
	assert.Empty(t, ids(do(t, h, http.MethodGet, "/articles/?skip=10", "")))
	assert.Equal(t, []int64{5}, ids(do(t, h, http.MethodGet, "/articles/?skip=4&limit=1000", "")))

	for _, q := range []string{"skip=-1", "limit=0", "limit=1001", "status=archived", "limit=abc"} {
		rec := do(t, h, http.MethodGet, "/articles/?"+q, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
	}
}

func TestPaginate(t *testing.T) {
	articles := make([]model.Article, 5)
	for i := range articles {
		articles[i].ID = int64(i + 1)
	}

	assert.Len(t, paginate(articles, 0, 100), 5)
	assert.Equal(t, int64(3), paginate(articles, 2, 2)[0].ID)
	assert.Len(t, paginate(articles, 2, 2), 2)
	assert.Empty(t, paginate(articles, 5, 10))
	assert.Empty(t, paginate(articles, 50, 10))
	assert.Empty(t, paginate(articles, 0, 0))
	assert.Len(t, paginate(articles, 3, 10), 2)
	assert.Empty(t, paginate(nil, 0, 10))
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsMiddleware(t *testing.T) {
	h := newTestServer(t)

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/articles/{id}", "404"))
	do(t, h, http.MethodGet, "/articles/12345", "")
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/articles/{id}", "404"))
	assert.Equal(t, before+1, after)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blog_api_http_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPatch, "/articles/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
