package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"saffron/middleware"
	"saffron/models"
	"saffron/posts"
	"saffron/ratelim"
	"saffron/recipes"
	"saffron/seo"
	"saffron/tags"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	recipeStore := recipes.NewMemoryStore(models.Recipe{
		RecipeID: "r1", Slug: "carbonara", Title: "Carbonara", Category: "mains",
		Tags: []string{"pasta"}, Published: true, CreatedAt: now, UpdatedAt: now,
	})
	recipeSvc := recipes.NewService(recipeStore, nil, nil)
	postSvc := posts.NewService(posts.NewMemoryStore(), nil, nil)
	tagSvc := tags.NewService(tags.NewMemoryStore(), nil, recipeSvc, postSvc)
	_, err := tagSvc.Recount(context.Background())
	require.NoError(t, err)

	site := "https://cook.example.com"
	router := httprouter.New()
	RoutesWrapper(router, Deps{
		Auth:      middleware.NewAuth("secret", ""),
		Limiter:   ratelim.NewRateLimiter(100, 100),
		Recipes:   recipes.NewHandler(recipeSvc, nil, site),
		Posts:     posts.NewHandler(postSvc, site),
		Tags:      tags.NewHandler(tagSvc),
		SEO:       seo.Generator{SiteURL: site, Recipes: recipeSvc, Posts: postSvc},
		Health:    Health(nil, pinger{}),
		UploadDir: t.TempDir(),
	})
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	router := newRouter(t)

	for _, path := range []string{
		"/api/recipes",
		"/api/recipes/search?q=carb",
		"/api/recipes/popular",
		"/api/recipes/categories",
		"/api/recipe/carbonara",
		"/api/recipe/carbonara/related",
		"/api/posts",
		"/api/tags",
		"/sitemap.xml",
		"/robots.txt",
		"/health",
	} {
		assert.Equal(t, http.StatusOK, get(router, path).Code, path)
	}
	assert.Equal(t, http.StatusNotFound, get(router, "/api/recipe/missing").Code)
}

func TestWritesNeedToken(t *testing.T) {
	router := newRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/recipes"},
		{http.MethodPut, "/api/recipe/carbonara"},
		{http.MethodDelete, "/api/recipe/carbonara"},
		{http.MethodPost, "/api/recipe/carbonara/images"},
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/post/x"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}
}

func TestTagsFromRecount(t *testing.T) {
	rec := get(newRouter(t), "/api/tags")
	var body struct {
		Data []models.Tag `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "pasta", body.Data[0].Name)
}

func TestHealth(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name         string
		store, cache Pinger
		code         int
		status       string
	}{
		{"all up", pinger{}, pinger{}, http.StatusOK, "ok"},
		{"cache down", pinger{}, pinger{down}, http.StatusOK, "degraded"},
		{"store down", pinger{down}, pinger{}, http.StatusServiceUnavailable, "down"},
		{"memory", nil, nil, http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Health(tt.store, tt.cache)(rec, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
			assert.Equal(t, tt.code, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
		})
	}
}
