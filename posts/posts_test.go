package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"saffron/globals"
	"saffron/models"
	"saffron/rdx"

	"github.com/alicebob/miniredis/v2"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

var (
	editor = models.Actor{UserID: "editor-1", Roles: []string{"editor"}}
	other  = models.Actor{UserID: "editor-2", Roles: []string{"editor"}}
	reader = models.Actor{UserID: "reader-1"}
)

func post(i int, category string, tags ...string) models.BlogPost {
	slug := fmt.Sprintf("post-%02d", i)
	return models.BlogPost{
		PostID:    "id-" + slug,
		AuthorID:  editor.UserID,
		Title:     fmt.Sprintf("Kitchen Notes %d", i),
		Slug:      slug,
		Excerpt:   "Short read about knives",
		Category:  category,
		Tags:      tags,
		Blocks:    []models.Block{{Type: "text", Content: "Hello"}},
		Published: true,
		CreatedAt: epoch.Add(time.Duration(i) * time.Hour),
		UpdatedAt: epoch.Add(time.Duration(i) * time.Hour),
	}
}

// journal holds 12 published posts (posts 0-3 in "guides") and one draft.
func journal() *MemoryStore {
	var seed []models.BlogPost
	for i := range 12 {
		cat := "news"
		if i < 4 {
			cat = "guides"
		}
		seed = append(seed, post(i, cat, "kitchen"))
	}
	seed[5].Excerpt = "All about SOURDOUGH starters"
	seed[5].Tags = []string{"bread", "kitchen"}
	draft := post(99, "news")
	draft.Published = false
	seed = append(seed, draft)
	return NewMemoryStore(seed...)
}

type recorder struct {
	mu     sync.Mutex
	events []models.ContentEvent
}

func (r *recorder) Publish(_ context.Context, evt models.ContentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func newCache(t *testing.T) *rdx.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c := rdx.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func validInput() models.BlogPostInput {
	return models.BlogPostInput{
		Title:    "Sharpening Your Knives",
		Excerpt:  "A whetstone primer",
		Category: "guides",
		Tags:     []string{"Knives", "kitchen"},
		Blocks: []models.Block{
			{Type: "heading", Content: "Why"},
			{Type: "image", URL: "/static/uploads/posts/stone.jpg", Alt: "stone"},
		},
		Published: true,
	}
}

func TestParseList(t *testing.T) {
	q := ParseList(url.Values{"q": {"  bread "}, "category": {"all"}, "tags": {"Bread, kitchen"}, "page": {"0"}, "limit": {"500"}})
	assert.Equal(t, "bread", q.Text)
	assert.Empty(t, q.Category)
	assert.Equal(t, []string{"bread", "kitchen"}, q.Tags)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 100, q.Limit)
}

func TestListPagination(t *testing.T) {
	svc := NewService(journal(), nil, nil)

	res, err := svc.List(context.Background(), ListQuery{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, models.Pagination{Page: 3, Limit: 5, Total: 12, TotalPages: 3, HasNext: false, HasPrev: true}, res.Pagination)
	require.Len(t, res.Data, 2)
	// Newest first.
	assert.Equal(t, "post-01", res.Data[0].Slug)
	assert.Equal(t, "post-00", res.Data[1].Slug)
}

func TestListHugePage(t *testing.T) {
	svc := NewService(journal(), nil, nil)

	q := ParseList(url.Values{"page": {"100000000000000000"}, "limit": {"100"}})
	res, err := svc.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []models.BlogPostSummary{}, res.Data)
	assert.False(t, res.Pagination.HasNext)
	assert.True(t, res.Pagination.HasPrev)

	res, err = svc.List(context.Background(), ListQuery{Page: 1 << 62, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestListFilters(t *testing.T) {
	svc := NewService(journal(), nil, nil)
	ctx := context.Background()

	res, err := svc.List(ctx, ListQuery{Text: "sourdough", Page: 1, Limit: 12})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "post-05", res.Data[0].Slug)

	res, err = svc.List(ctx, ListQuery{Category: "guides", Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Pagination.Total)

	res, err = svc.List(ctx, ListQuery{Tags: []string{"bread", "pastry"}, Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Pagination.Total)
}

func TestListIsCachedUntilWrite(t *testing.T) {
	store := journal()
	svc := NewService(store, newCache(t), nil)
	ctx := context.Background()
	q := ListQuery{Page: 1, Limit: 12}

	first, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 12, first.Pagination.Total)

	require.NoError(t, store.Insert(ctx, post(50, "news")))
	cached, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 12, cached.Pagination.Total)

	_, err = svc.Create(ctx, editor, validInput())
	require.NoError(t, err)
	fresh, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 14, fresh.Pagination.Total)
}

func TestGetDraftVisibility(t *testing.T) {
	svc := NewService(journal(), nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "post-99", reader)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := svc.Get(ctx, "post-99", editor)
	require.NoError(t, err)
	assert.False(t, p.Published)

	_, err = svc.Get(ctx, "missing", editor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate(t *testing.T) {
	events := &recorder{}
	svc := NewService(NewMemoryStore(), nil, events)
	ctx := context.Background()

	_, err := svc.Create(ctx, reader, validInput())
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := svc.Create(ctx, editor, validInput())
	require.NoError(t, err)
	assert.Equal(t, "sharpening-your-knives", p.Slug)
	assert.Equal(t, "/static/uploads/posts/stone.jpg", p.Cover)
	assert.Equal(t, []string{"knives", "kitchen"}, p.Tags)
	assert.Equal(t, editor.UserID, p.AuthorID)

	_, err = svc.Create(ctx, editor, validInput())
	assert.ErrorIs(t, err, ErrSlugTaken)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.ContentEvent{
		EntityType: "post",
		Method:     "create",
		EntityID:   p.PostID,
		Slug:       p.Slug,
		Tags:       []string{"knives", "kitchen"},
	}, events.events[0])
}

func TestCreateCollectsInlineHashtags(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, nil)
	in := validInput()
	in.Blocks = append(in.Blocks, models.Block{Type: "text", Content: "Feed your #Sourdough starter, then #bake."})

	p, err := svc.Create(context.Background(), editor, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"knives", "kitchen", "sourdough", "bake"}, p.Tags)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, nil)
	in := validInput()
	in.Title = ""
	in.Blocks = nil

	_, err := svc.Create(context.Background(), editor, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "blocks")
}

func TestUpdate(t *testing.T) {
	events := &recorder{}
	svc := NewService(journal(), nil, events)
	ctx := context.Background()

	in := validInput()
	in.Tags = []string{"bread"}

	_, err := svc.Update(ctx, other, "post-03", in)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := svc.Update(ctx, editor, "post-03", in)
	require.NoError(t, err)
	assert.Equal(t, "post-03", p.Slug)
	assert.Equal(t, "Sharpening Your Knives", p.Title)
	assert.Equal(t, epoch.Add(3*time.Hour), p.CreatedAt)

	require.Len(t, events.events, 1)
	assert.Equal(t, "update", events.events[0].Method)
	assert.ElementsMatch(t, []string{"kitchen", "bread"}, events.events[0].Tags)
}

func newRouter(h *Handler) *httprouter.Router {
	router := httprouter.New()
	router.GET("/api/posts", h.List)
	router.POST("/api/posts", h.Create)
	router.GET("/api/post/:slug", h.Get)
	router.PUT("/api/post/:slug", h.Update)
	return router
}

func as(r *http.Request, a models.Actor) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, a.UserID)
	ctx = context.WithValue(ctx, globals.RoleKey, a.Roles)
	return r.WithContext(ctx)
}

func TestHandlers(t *testing.T) {
	router := newRouter(NewHandler(NewService(journal(), nil, nil), "https://cook.example.com"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/post/post-02", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Slug           string         `json:"slug"`
		StructuredData map[string]any `json:"structuredData"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "post-02", detail.Slug)
	assert.Equal(t, "BlogPosting", detail.StructuredData["@type"])
	assert.Equal(t, "https://cook.example.com/blog/post-02", detail.StructuredData["url"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts?category=guides&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)
	assert.Equal(t, 2, list.Pagination.TotalPages)

	body, err := json.Marshal(validInput())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body)), reader))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body)), editor))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/post/sharpening-your-knives", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPut, "/api/post/post-01", bytes.NewReader([]byte(`{"title":"x","bogus":1}`))), editor))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
