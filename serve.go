package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saffron/middleware"
	"saffron/posts"
	"saffron/ratelim"
	"saffron/recipes"
	"saffron/routes"
	"saffron/seo"
	"saffron/tags"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API, the invalidation worker and the scheduled jobs",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, serve)
		},
	}
}

func (a *app) router(limiter *ratelim.RateLimiter) *httprouter.Router {
	cfg := a.cfg
	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Auth:      middleware.NewAuth(cfg.JWTSecret, cfg.JWTIssuer),
		Limiter:   limiter,
		Recipes:   recipes.NewHandler(a.recipes, a.images, cfg.SiteURL),
		Posts:     posts.NewHandler(a.posts, cfg.SiteURL),
		Tags:      tags.NewHandler(a.tags),
		SEO:       seo.Generator{SiteURL: cfg.SiteURL, Recipes: a.recipes, Posts: a.posts},
		Health:    routes.Health(a.storePinger(), a.cache),
		UploadDir: cfg.UploadDir,
	})
	return router
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	go func() {
		if err := a.worker().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[serve] content worker stopped: %v", err)
		}
	}()

	scheduler, err := a.schedule()
	if err != nil {
		return err
	}
	scheduler.Start()

	// CORS → request id → logging → security headers → gzip → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(a.router(limiter))

	handler := middleware.Chain(corsHandler,
		middleware.RequestID,
		middleware.Logging,
		middleware.SecurityHeaders,
		middleware.Gzip,
	)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	server.RegisterOnShutdown(cancel)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Printf("[serve] scheduler: %v", err)
	}
	log.Println("Server stopped cleanly")
	return nil
}
