package recipes

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"saffron/models"
	"saffron/query"
	"saffron/rdx"
	"saffron/utils"

	"golang.org/x/sync/errgroup"
)

// Cache is the subset of *rdx.Cache the service depends on.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, keys ...string) bool
	Namespace(ctx context.Context, ns string) bool
	IncrView(ctx context.Context, slug string) bool
}

// Publisher announces content writes to other consumers.
type Publisher interface {
	Publish(ctx context.Context, evt models.ContentEvent)
}

const (
	defaultPopular = 6
	maxPopular     = 24
	relatedLimit   = 4
)

type Service struct {
	store  Store
	cache  Cache
	events Publisher
	now    func() time.Time
}

// NewService wires a store with an optional cache and publisher.
func NewService(store Store, cache Cache, events Publisher) *Service {
	if cache == nil {
		cache = noCache{}
	}
	if events == nil {
		events = noEvents{}
	}
	return &Service{store: store, cache: cache, events: events, now: func() time.Time { return time.Now().UTC() }}
}

// Search answers both the list and the search routes. ns picks the cache
// namespace and TTL: rdx.NSList for listings, rdx.NSSearch for search.
func (s *Service) Search(ctx context.Context, q models.SearchQuery, ns string) (models.SearchResult, error) {
	ttl := rdx.TTLListing
	if ns == rdx.NSSearch {
		ttl = rdx.TTLSearch
	}
	key := rdx.GenerateKey(ns, "list", query.Params(q))

	var res models.SearchResult
	if s.cache.GetJSON(ctx, key, &res) {
		return res, nil
	}

	built := query.Build(q)

	var (
		total int64
		items []models.Recipe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, built.Filter)
		total = n
		return err
	})
	g.Go(func() error {
		rs, err := s.store.Find(gctx, built)
		items = rs
		return err
	})
	if err := g.Wait(); err != nil {
		return models.SearchResult{}, fmt.Errorf("search recipes: %w", err)
	}
	if items == nil {
		items = []models.Recipe{}
	}

	limit := int(built.Limit)
	page := int(built.Skip/built.Limit) + 1
	res = models.SearchResult{
		Data:       items,
		Pagination: models.NewPagination(page, limit, total),
	}
	s.cache.SetJSON(ctx, key, res, ttl)
	return res, nil
}

// Get returns a recipe by slug. Unpublished recipes are visible only to
// their author and to editors. A view is recorded for published recipes.
func (s *Service) Get(ctx context.Context, slug string, viewer models.Actor) (models.Recipe, error) {
	r, err := s.lookup(ctx, slug, viewer)
	if err != nil {
		return models.Recipe{}, err
	}
	if r.Published {
		s.recordView(ctx, slug)
	}
	return r, nil
}

// ForCard is Get without counting a view.
func (s *Service) ForCard(ctx context.Context, slug string, viewer models.Actor) (models.Recipe, error) {
	return s.lookup(ctx, slug, viewer)
}

func (s *Service) lookup(ctx context.Context, slug string, viewer models.Actor) (models.Recipe, error) {
	key := rdx.GenerateKey(rdx.NSRecipe, slug, nil)

	var r models.Recipe
	if !s.cache.GetJSON(ctx, key, &r) {
		var err error
		r, err = s.store.BySlug(ctx, slug)
		if err != nil {
			return models.Recipe{}, err
		}
		if r.Published {
			s.cache.SetJSON(ctx, key, r, rdx.TTLDetail)
		}
	}

	if !r.Published && viewer.UserID != r.AuthorID && !viewer.CanPublish() {
		return models.Recipe{}, ErrNotFound
	}
	return r, nil
}

func (s *Service) recordView(ctx context.Context, slug string) {
	if s.cache.IncrView(ctx, slug) {
		return
	}
	if err := s.store.AddViews(ctx, slug, 1); err != nil {
		log.Printf("[recipes] record view %s: %v", slug, err)
	}
}

// Popular returns the top rated published recipes, most viewed first on ties.
func (s *Service) Popular(ctx context.Context, limit int) ([]models.Recipe, error) {
	if limit <= 0 {
		limit = defaultPopular
	}
	limit = min(limit, maxPopular)

	key := rdx.GenerateKey(rdx.NSPopular, strconv.Itoa(limit), nil)
	var out []models.Recipe
	if s.cache.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := s.store.Popular(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("popular recipes: %w", err)
	}
	s.cache.SetJSON(ctx, key, out, rdx.TTLPopular)
	return out, nil
}

// Related returns published recipes in the same category as slug.
func (s *Service) Related(ctx context.Context, slug string) ([]models.Recipe, error) {
	key := rdx.GenerateKey(rdx.NSRelated, slug, nil)
	var out []models.Recipe
	if s.cache.GetJSON(ctx, key, &out) {
		return out, nil
	}

	r, err := s.store.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !r.Published {
		return nil, ErrNotFound
	}
	out, err = s.store.Related(ctx, r, relatedLimit)
	if err != nil {
		return nil, fmt.Errorf("related recipes: %w", err)
	}
	s.cache.SetJSON(ctx, key, out, rdx.TTLRelated)
	return out, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	key := rdx.GenerateKey(rdx.NSCategories, "all", nil)
	var out []models.Category
	if s.cache.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	s.cache.SetJSON(ctx, key, out, rdx.TTLCategories)
	return out, nil
}

// Create validates in and stores a new recipe owned by actor.
func (s *Service) Create(ctx context.Context, actor models.Actor, in models.RecipeInput) (models.Recipe, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return models.Recipe{}, err
	}
	slug := in.Slug
	if slug == "" {
		slug = in.Title
	}
	slug = utils.Slugify(slug)
	if slug == "" {
		return models.Recipe{}, utils.FieldErrors{"slug": "must contain letters or digits"}
	}

	now := s.now()
	r := models.Recipe{
		RecipeID:  utils.GetUUID(),
		AuthorID:  actor.UserID,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.Tags = utils.NormalizeTags(in.Tags)
	in.Apply(&r)
	r.Normalize()

	if err := s.store.Insert(ctx, r); err != nil {
		return models.Recipe{}, err
	}
	s.changed(ctx, "create", r)
	return r, nil
}

// Update replaces the editable fields of the recipe at slug. The slug
// is kept.
func (s *Service) Update(ctx context.Context, actor models.Actor, slug string, in models.RecipeInput) (models.Recipe, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return models.Recipe{}, err
	}
	r, err := s.owned(ctx, actor, slug)
	if err != nil {
		return models.Recipe{}, err
	}

	previousTags := r.Tags
	in.Tags = utils.NormalizeTags(in.Tags)
	in.Apply(&r)
	r.Normalize()
	r.UpdatedAt = s.now()

	if err := s.store.Update(ctx, r); err != nil {
		return models.Recipe{}, err
	}
	evt := r
	evt.Tags = mergeTags(previousTags, r.Tags)
	s.changed(ctx, "update", evt)
	return r, nil
}

func (s *Service) Delete(ctx context.Context, actor models.Actor, slug string) error {
	r, err := s.owned(ctx, actor, slug)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, slug); err != nil {
		return err
	}
	s.changed(ctx, "delete", r)
	return nil
}

// AttachImage records an uploaded image set on the recipe.
func (s *Service) AttachImage(ctx context.Context, actor models.Actor, slug string, img models.ImageSet) error {
	r, err := s.owned(ctx, actor, slug)
	if err != nil {
		return err
	}
	if err := s.store.AddImage(ctx, slug, img); err != nil {
		return err
	}
	s.changed(ctx, "update", r)
	return nil
}

// Authorize checks that actor may modify the recipe at slug.
func (s *Service) Authorize(ctx context.Context, actor models.Actor, slug string) error {
	_, err := s.owned(ctx, actor, slug)
	return err
}

func (s *Service) owned(ctx context.Context, actor models.Actor, slug string) (models.Recipe, error) {
	r, err := s.store.BySlug(ctx, slug)
	if err != nil {
		return models.Recipe{}, err
	}
	if !actor.CanManage(r.AuthorID) {
		return models.Recipe{}, ErrForbidden
	}
	return r, nil
}

// Invalidate drops every cached listing plus the detail entry of slug.
// Listing keys encode their full filter set, so there is no way to find
// only the entries a given recipe appears in.
func (s *Service) Invalidate(ctx context.Context, slug string) {
	for _, ns := range []string{rdx.NSList, rdx.NSSearch, rdx.NSPopular, rdx.NSRelated, rdx.NSCategories} {
		s.cache.Namespace(ctx, ns)
	}
	if slug != "" {
		s.cache.Delete(ctx, rdx.GenerateKey(rdx.NSRecipe, slug, nil))
	}
}

func (s *Service) changed(ctx context.Context, method string, r models.Recipe) {
	s.Invalidate(ctx, r.Slug)
	s.events.Publish(ctx, models.ContentEvent{
		EntityType: "recipe",
		Method:     method,
		EntityID:   r.RecipeID,
		Slug:       r.Slug,
		Tags:       r.Tags,
	})
}

// TagCounts exposes the store aggregation to the tag recount job.
func (s *Service) TagCounts(ctx context.Context) (map[string]int, error) {
	return s.store.TagCounts(ctx)
}

// Published lists every public recipe for the sitemap.
func (s *Service) Published(ctx context.Context) ([]models.Recipe, error) {
	return s.store.Published(ctx)
}

// AddViews lets the view flusher write buffered counters.
func (s *Service) AddViews(ctx context.Context, slug string, n int) error {
	return s.store.AddViews(ctx, slug, n)
}

func mergeTags(a, b []string) []string {
	return utils.NormalizeTags(append(append([]string{}, a...), b...))
}

type noCache struct{}

func (noCache) GetJSON(context.Context, string, any) bool { return false }
func (noCache) SetJSON(context.Context, string, any, time.Duration) bool { return false }
func (noCache) Delete(context.Context, ...string) bool { return false }
func (noCache) Namespace(context.Context, string) bool { return false }
func (noCache) IncrView(context.Context, string) bool { return false }

type noEvents struct{}

func (noEvents) Publish(context.Context, models.ContentEvent) {}
