package posts

import (
	"context"
	"fmt"
	"time"

	"saffron/models"
	"saffron/rdx"
	"saffron/tags"
	"saffron/utils"

	"golang.org/x/sync/errgroup"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, keys ...string) bool
	Namespace(ctx context.Context, ns string) bool
}

type Publisher interface {
	Publish(ctx context.Context, evt models.ContentEvent)
}

// ListResult is the blog listing envelope.
type ListResult struct {
	Data       []models.BlogPostSummary `json:"data"`
	Pagination models.Pagination        `json:"pagination"`
}

type Service struct {
	store  Store
	cache  Cache
	events Publisher
	now    func() time.Time
}

func NewService(store Store, cache Cache, events Publisher) *Service {
	if cache == nil {
		cache = noCache{}
	}
	if events == nil {
		events = noEvents{}
	}
	return &Service{store: store, cache: cache, events: events, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	key := rdx.GenerateKey(rdx.NSPosts, "list", q.params())

	var res ListResult
	if s.cache.GetJSON(ctx, key, &res) {
		return res, nil
	}

	var (
		total int64
		items []models.BlogPostSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, q)
		total = n
		return err
	})
	g.Go(func() error {
		ps, err := s.store.Find(gctx, q)
		items = ps
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, fmt.Errorf("list posts: %w", err)
	}
	if items == nil {
		items = []models.BlogPostSummary{}
	}

	res = ListResult{Data: items, Pagination: models.NewPagination(q.Page, q.Limit, total)}
	s.cache.SetJSON(ctx, key, res, rdx.TTLListing)
	return res, nil
}

// Get returns a post by slug. Drafts are visible to their author and editors.
func (s *Service) Get(ctx context.Context, slug string, viewer models.Actor) (models.BlogPost, error) {
	key := rdx.GenerateKey(rdx.NSPost, slug, nil)

	var p models.BlogPost
	if s.cache.GetJSON(ctx, key, &p) {
		return p, nil
	}
	p, err := s.store.BySlug(ctx, slug)
	if err != nil {
		return models.BlogPost{}, err
	}
	if !p.Published {
		if viewer.UserID != p.AuthorID && !viewer.CanPublish() {
			return models.BlogPost{}, ErrNotFound
		}
		return p, nil
	}
	s.cache.SetJSON(ctx, key, p, rdx.TTLDetail)
	return p, nil
}

func (s *Service) Create(ctx context.Context, actor models.Actor, in models.BlogPostInput) (models.BlogPost, error) {
	if !actor.CanPublish() {
		return models.BlogPost{}, ErrForbidden
	}
	if err := utils.ValidateStruct(in); err != nil {
		return models.BlogPost{}, err
	}
	slug := in.Slug
	if slug == "" {
		slug = in.Title
	}
	slug = utils.Slugify(slug)
	if slug == "" {
		return models.BlogPost{}, utils.FieldErrors{"slug": "must contain letters or digits"}
	}

	now := s.now()
	p := models.BlogPost{
		PostID:    utils.GetUUID(),
		AuthorID:  actor.UserID,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&p, in)

	if err := s.store.Insert(ctx, p); err != nil {
		return models.BlogPost{}, err
	}
	s.changed(ctx, "create", p, p.Tags)
	return p, nil
}

// Update replaces the editable fields of the post at slug. The slug is kept.
func (s *Service) Update(ctx context.Context, actor models.Actor, slug string, in models.BlogPostInput) (models.BlogPost, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return models.BlogPost{}, err
	}
	p, err := s.store.BySlug(ctx, slug)
	if err != nil {
		return models.BlogPost{}, err
	}
	if !actor.CanManage(p.AuthorID) {
		return models.BlogPost{}, ErrForbidden
	}

	previous := p.Tags
	apply(&p, in)
	p.UpdatedAt = s.now()

	if err := s.store.Update(ctx, p); err != nil {
		return models.BlogPost{}, err
	}
	s.changed(ctx, "update", p, utils.NormalizeTags(append(append([]string{}, previous...), p.Tags...)))
	return p, nil
}

func apply(p *models.BlogPost, in models.BlogPostInput) {
	p.Title = in.Title
	p.Excerpt = in.Excerpt
	p.Category = in.Category
	p.Tags = utils.NormalizeTags(append(append([]string{}, in.Tags...), inlineTags(in.Blocks)...))
	p.Blocks = in.Blocks
	p.Cover = models.PickCover(in.Blocks)
	p.Published = in.Published
}

// inlineTags collects the #hashtags written in text blocks.
func inlineTags(blocks []models.Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Type == "image" {
			continue
		}
		out = append(out, tags.ExtractHashtags(b.Content)...)
	}
	return out
}

func (s *Service) Invalidate(ctx context.Context, slug string) {
	s.cache.Namespace(ctx, rdx.NSPosts)
	if slug != "" {
		s.cache.Delete(ctx, rdx.GenerateKey(rdx.NSPost, slug, nil))
	}
}

func (s *Service) changed(ctx context.Context, method string, p models.BlogPost, touched []string) {
	s.Invalidate(ctx, p.Slug)
	s.events.Publish(ctx, models.ContentEvent{
		EntityType: "post",
		Method:     method,
		EntityID:   p.PostID,
		Slug:       p.Slug,
		Tags:       touched,
	})
}

func (s *Service) TagCounts(ctx context.Context) (map[string]int, error) {
	return s.store.TagCounts(ctx)
}

func (s *Service) Published(ctx context.Context) ([]models.BlogPostSummary, error) {
	return s.store.Published(ctx)
}

type noCache struct{}

func (noCache) GetJSON(context.Context, string, any) bool { return false }
func (noCache) SetJSON(context.Context, string, any, time.Duration) bool { return false }
func (noCache) Delete(context.Context, ...string) bool { return false }
func (noCache) Namespace(context.Context, string) bool { return false }

type noEvents struct{}

func (noEvents) Publish(context.Context, models.ContentEvent) {}
