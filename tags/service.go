package tags

import (
	"context"
	"fmt"
	"log"
	"time"

	"saffron/models"
	"saffron/rdx"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool
	Namespace(ctx context.Context, ns string) bool
}

// Counter reports how many published documents carry each tag.
type Counter interface {
	TagCounts(ctx context.Context) (map[string]int, error)
}

type Service struct {
	store   Store
	cache   Cache
	sources []Counter
	now     func() time.Time
}

// NewService builds the tag registry. Recount sums the counts of every source.
func NewService(store Store, cache Cache, sources ...Counter) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{store: store, cache: cache, sources: sources, now: func() time.Time { return time.Now().UTC() }}
}

// All returns every tag in use, cached for a day.
func (s *Service) All(ctx context.Context) ([]models.Tag, error) {
	key := rdx.GenerateKey(rdx.NSTags, "all", nil)
	var out []models.Tag
	if s.cache.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	s.cache.SetJSON(ctx, key, out, rdx.TTLTags)
	return out, nil
}

// Recount recomputes every tag count from the sources and returns the
// number of tags in use.
func (s *Service) Recount(ctx context.Context) (int, error) {
	totals := map[string]int{}
	for _, src := range s.sources {
		counts, err := src.TagCounts(ctx)
		if err != nil {
			return 0, fmt.Errorf("recount tags: %w", err)
		}
		for name, n := range counts {
			totals[name] += n
		}
	}
	if err := s.store.Replace(ctx, totals, s.now()); err != nil {
		return 0, err
	}
	s.cache.Namespace(ctx, rdx.NSTags)
	log.Printf("[tags] recounted %d tags", len(totals))
	return len(totals), nil
}

type noCache struct{}

func (noCache) GetJSON(context.Context, string, any) bool { return false }
func (noCache) SetJSON(context.Context, string, any, time.Duration) bool { return false }
func (noCache) Namespace(context.Context, string) bool { return false }
