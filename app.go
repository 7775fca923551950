package main

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"saffron/config"
	"saffron/db"
	"saffron/jobs"
	"saffron/media"
	"saffron/mq"
	"saffron/posts"
	"saffron/query"
	"saffron/rdx"
	"saffron/recipes"
	"saffron/routes"
	"saffron/tags"
)

// app holds every wired service. Commands build one and close it when done.
type app struct {
	cfg *config.Config

	db     *db.DB
	cache  *rdx.Cache
	events *mq.Emitter

	recipes *recipes.Service
	posts   *posts.Service
	tags    *tags.Service
	images  *media.Uploader
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.cache = rdx.Connect(ctx, rdx.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.events = mq.NewEmitter(a.cache.Client())

	var (
		recipeStore recipes.Store
		postStore   posts.Store
		tagStore    tags.Store
	)
	switch cfg.StoreDriver {
	case "memory":
		log.Println("[app] Using in-memory store; content is lost on exit")
		recipeStore = recipes.NewMemoryStore()
		postStore = posts.NewMemoryStore()
		tagStore = tags.NewMemoryStore()
	default:
		d, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			_ = a.cache.Close()
			return nil, err
		}
		if err := d.EnsureIndexes(ctx); err != nil {
			log.Printf("[app] ensure indexes: %v", err)
		}
		a.db = d
		recipeStore = recipes.NewMongoStore(d.Recipes)
		postStore = posts.NewMongoStore(d.Posts)
		tagStore = tags.NewMongoStore(d.Tags)
	}

	a.recipes = recipes.NewService(recipeStore, a.cache, a.events)
	a.posts = posts.NewService(postStore, a.cache, a.events)
	a.tags = tags.NewService(tagStore, a.cache, a.recipes, a.posts)

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.images = media.NewUploader(media.NewProcessor(), storage, media.CDN{Base: cfg.CDNBaseURL})
	return a, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (media.Storage, error) {
	if cfg.StorageDriver != "s3" {
		return media.NewLocalStorage(cfg.UploadDir), nil
	}
	s, err := media.NewS3Storage(ctx, media.S3Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.AWSAccessKey,
		SecretKey: cfg.AWSSecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 storage: %w", err)
	}
	return s, nil
}

// storePinger is nil in memory mode so health reports the driver instead.
func (a *app) storePinger() routes.Pinger {
	if a.db == nil {
		return nil
	}
	return a.db
}

func (a *app) worker() *mq.Worker {
	w := mq.NewWorker(a.cache.Client(), a.tags)
	w.Handle("recipe", a.recipes)
	w.Handle("post", a.posts)
	return w
}

func (a *app) schedule() (*jobs.Scheduler, error) {
	s := jobs.NewScheduler()
	for _, job := range []jobs.Job{
		jobs.TagRecount(a.cfg.TagRecountSchedule, a.tags),
		jobs.ViewFlush("@every 1m", a.cache, a.recipes),
		jobs.CacheWarm("@every 30m", a.warmSteps()...),
	} {
		if err := s.Add(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// warmSteps fill the entries the landing pages hit first.
func (a *app) warmSteps() []func(ctx context.Context) error {
	return []func(ctx context.Context) error{
		func(ctx context.Context) error {
			_, err := a.recipes.Search(ctx, query.Parse(url.Values{}), rdx.NSList)
			return err
		},
		func(ctx context.Context) error {
			_, err := a.recipes.Popular(ctx, 0)
			return err
		},
		func(ctx context.Context) error {
			_, err := a.recipes.Categories(ctx)
			return err
		},
		func(ctx context.Context) error {
			_, err := a.tags.All(ctx)
			return err
		},
	}
}

func (a *app) Close(ctx context.Context) {
	if a.db != nil {
		if err := a.db.Close(ctx); err != nil {
			log.Printf("[app] close mongo: %v", err)
		}
	}
	if err := a.cache.Close(); err != nil {
		log.Printf("[app] close redis: %v", err)
	}
}
