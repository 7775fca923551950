package routes

import (
	"net/http"

	"saffron/globals"
	"saffron/middleware"
	"saffron/posts"
	"saffron/ratelim"
	"saffron/recipes"
	"saffron/seo"
	"saffron/tags"

	"github.com/julienschmidt/httprouter"
)

// Deps carries the handlers and guards the routes are built from.
type Deps struct {
	Auth      *middleware.Auth
	Limiter   *ratelim.RateLimiter
	Recipes   *recipes.Handler
	Posts     *posts.Handler
	Tags      *tags.Handler
	SEO       seo.Generator
	Health    httprouter.Handle
	UploadDir string
}

func AddStaticRoutes(router *httprouter.Router, d Deps) {
	if d.UploadDir != "" {
		router.ServeFiles("/static/uploads/*filepath", http.Dir(d.UploadDir))
	}
}

func AddRecipeRoutes(router *httprouter.Router, d Deps) {
	h, auth, rl := d.Recipes, d.Auth, d.Limiter

	router.GET("/api/recipes", rl.Limit(h.List))
	router.GET("/api/recipes/search", rl.Limit(h.Search))
	router.GET("/api/recipes/popular", rl.Limit(h.Popular))
	router.GET("/api/recipes/categories", rl.Limit(h.Categories))
	router.POST("/api/recipes", rl.Limit(auth.Authenticate(middleware.RequireRole(h.Create, globals.RoleEditor, globals.RoleAdmin))))

	router.GET("/api/recipe/:slug", rl.Limit(auth.OptionalAuth(h.Get)))
	router.GET("/api/recipe/:slug/related", rl.Limit(h.Related))
	router.GET("/api/recipe/:slug/card.pdf", rl.Limit(auth.OptionalAuth(h.Card)))
	router.PUT("/api/recipe/:slug", rl.Limit(auth.Authenticate(h.Update)))
	router.DELETE("/api/recipe/:slug", rl.Limit(auth.Authenticate(h.Delete)))
	router.POST("/api/recipe/:slug/images", rl.Limit(auth.Authenticate(h.UploadImage)))
}

func AddPostRoutes(router *httprouter.Router, d Deps) {
	h, auth, rl := d.Posts, d.Auth, d.Limiter

	router.GET("/api/posts", rl.Limit(h.List))
	router.POST("/api/posts", rl.Limit(auth.Authenticate(middleware.RequireRole(h.Create, globals.RoleEditor, globals.RoleAdmin))))
	router.GET("/api/post/:slug", rl.Limit(auth.OptionalAuth(h.Get)))
	router.PUT("/api/post/:slug", rl.Limit(auth.Authenticate(h.Update)))
}

func AddTagRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/tags", d.Limiter.Limit(d.Tags.List))
}

func AddSEORoutes(router *httprouter.Router, d Deps) {
	router.GET("/sitemap.xml", d.SEO.Sitemap)
	router.GET("/robots.txt", d.SEO.RobotsTxt)
}

func AddMiscRoutes(router *httprouter.Router, d Deps) {
	if d.Health != nil {
		router.GET("/health", d.Health)
	}
}
