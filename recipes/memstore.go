package recipes

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"saffron/models"
	"saffron/query"
)

// MemoryStore keeps recipes in process. It evaluates query.Filter and
// query.Sort with the same semantics as the Mongo driver and backs
// STORE_DRIVER=memory and the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	recipes map[string]models.Recipe // by slug
}

func NewMemoryStore(seed ...models.Recipe) *MemoryStore {
	s := &MemoryStore{recipes: make(map[string]models.Recipe, len(seed))}
	for _, r := range seed {
		r.Normalize()
		s.recipes[r.Slug] = r
	}
	return s
}

func (s *MemoryStore) Find(_ context.Context, q query.Query) ([]models.Recipe, error) {
	matched := s.filter(q.Filter.Match)
	slices.SortFunc(matched, q.Sort.Compare)
	return page(matched, q.Skip, q.Limit), nil
}

func (s *MemoryStore) Count(_ context.Context, f query.Filter) (int64, error) {
	return int64(len(s.filter(f.Match))), nil
}

func (s *MemoryStore) BySlug(_ context.Context, slug string) (models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recipes[slug]
	if !ok {
		return models.Recipe{}, ErrNotFound
	}
	return clone(r), nil
}

func (s *MemoryStore) Insert(_ context.Context, r models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[r.Slug]; ok {
		return ErrSlugTaken
	}
	s.recipes[r.Slug] = clone(r)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, r models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slug, existing := range s.recipes {
		if existing.RecipeID != r.RecipeID {
			continue
		}
		if other, ok := s.recipes[r.Slug]; ok && other.RecipeID != r.RecipeID {
			return ErrSlugTaken
		}
		delete(s.recipes, slug)
		s.recipes[r.Slug] = clone(r)
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[slug]; !ok {
		return ErrNotFound
	}
	delete(s.recipes, slug)
	return nil
}

func (s *MemoryStore) AddImage(_ context.Context, slug string, img models.ImageSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[slug]
	if !ok {
		return ErrNotFound
	}
	r.Images = append(slices.Clone(r.Images), img)
	r.UpdatedAt = time.Now().UTC()
	s.recipes[slug] = r
	return nil
}

func (s *MemoryStore) AddViews(_ context.Context, slug string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.recipes[slug]; ok {
		r.Views += n
		s.recipes[slug] = r
	}
	return nil
}

func (s *MemoryStore) Popular(_ context.Context, limit int) ([]models.Recipe, error) {
	out := s.filter(func(r models.Recipe) bool { return r.Published })
	slices.SortFunc(out, func(a, b models.Recipe) int {
		if c := query.CompareRating(b.Rating, a.Rating); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Views, a.Views); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
	return page(out, 0, int64(limit)), nil
}

func (s *MemoryStore) Related(_ context.Context, r models.Recipe, limit int) ([]models.Recipe, error) {
	out := s.filter(func(c models.Recipe) bool {
		return c.Published && c.Category == r.Category && c.Slug != r.Slug
	})
	slices.SortFunc(out, func(a, b models.Recipe) int {
		if c := query.CompareRating(b.Rating, a.Rating); c != 0 {
			return c
		}
		return query.SortFor(query.SortNewest).Compare(a, b)
	})
	return page(out, 0, int64(limit)), nil
}

func (s *MemoryStore) Categories(context.Context) ([]models.Category, error) {
	counts := map[string]int{}
	for _, r := range s.filter(func(r models.Recipe) bool { return r.Published }) {
		counts[r.Category]++
	}
	cats := make([]models.Category, 0, len(counts))
	for name, n := range counts {
		cats = append(cats, models.Category{Name: name, Count: n})
	}
	slices.SortFunc(cats, func(a, b models.Category) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return cats, nil
}

func (s *MemoryStore) TagCounts(context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, r := range s.filter(func(r models.Recipe) bool { return r.Published }) {
		for _, t := range r.Tags {
			counts[t]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) Published(context.Context) ([]models.Recipe, error) {
	out := s.filter(func(r models.Recipe) bool { return r.Published })
	slices.SortFunc(out, func(a, b models.Recipe) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) filter(keep func(models.Recipe) bool) []models.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Recipe{}
	for _, r := range s.recipes {
		if keep(r) {
			out = append(out, clone(r))
		}
	}
	return out
}

func page(rs []models.Recipe, skip, limit int64) []models.Recipe {
	n := int64(len(rs))
	if skip < 0 || skip >= n {
		return []models.Recipe{}
	}
	end := n
	if limit > 0 && skip+limit < n {
		end = skip + limit
	}
	return rs[skip:end]
}

func clone(r models.Recipe) models.Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	r.Instructions = slices.Clone(r.Instructions)
	r.Tags = slices.Clone(r.Tags)
	r.Images = slices.Clone(r.Images)
	return r
}
