package recipes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"saffron/models"
	"saffron/query"
	"saffron/rdx"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func recipe(slug, title, category string, prep, cook int) models.Recipe {
	return models.Recipe{
		RecipeID:     "id-" + slug,
		AuthorID:     "author-1",
		Title:        title,
		Slug:         slug,
		Description:  "A recipe for " + title,
		PrepTime:     prep,
		CookTime:     cook,
		Servings:     4,
		Difficulty:   models.DifficultyEasy,
		Category:     category,
		Cuisine:      "italian",
		Ingredients:  []models.Ingredient{{Name: "salt", Quantity: 1, Unit: "tsp"}},
		Instructions: []models.Instruction{{Text: "Cook it."}},
		Tags:         []string{"weeknight"},
		Published:    true,
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}
}

// pastaStore holds 25 published pasta recipes, three desserts that take at
// least 45 minutes and one unpublished draft.
func pastaStore() *MemoryStore {
	var seed []models.Recipe
	for i := range 25 {
		r := recipe(fmt.Sprintf("pasta-%02d", i), fmt.Sprintf("Pasta No. %d", i), "mains", 10, 10+i)
		r.CreatedAt = epoch.Add(time.Duration(i) * time.Hour)
		seed = append(seed, r)
	}
	for i, name := range []string{"Tiramisu", "Panna Cotta", "Cannoli"} {
		r := recipe(fmt.Sprintf("dessert-%d", i), name, "desserts", 30, 15+i*10)
		r.Tags = []string{"sweet"}
		seed = append(seed, r)
	}
	draft := recipe("draft-lasagne", "Draft Lasagne", "mains", 20, 60)
	draft.Published = false
	seed = append(seed, draft)
	return NewMemoryStore(seed...)
}

func newCache(t *testing.T) (*rdx.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := rdx.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

// deadCache points at a closed port so every call fails.
func deadCache(t *testing.T) *rdx.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	c := rdx.New(redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 50 * time.Millisecond}))
	t.Cleanup(func() { _ = c.Close() })
	return c
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

func (r *recorder) all() []models.ContentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ContentEvent(nil), r.events...)
}

var errStoreDown = errors.New("store down")

// failingStore fails Count while the page query succeeds.
type failingStore struct {
	*MemoryStore
}

func (failingStore) Count(context.Context, query.Filter) (int64, error) {
	return 0, errStoreDown
}

var (
	editor = models.Actor{UserID: "editor-1", Roles: []string{"editor"}}
	author = models.Actor{UserID: "author-1", Roles: []string{"editor"}}
	admin  = models.Actor{UserID: "admin-1", Roles: []string{"admin"}}
	reader = models.Actor{UserID: "reader-1"}
)

func validInput(title string) models.RecipeInput {
	return models.RecipeInput{
		Title:        title,
		Description:  "Creamy and quick.",
		PrepTime:     10,
		CookTime:     15,
		Servings:     2,
		Difficulty:   models.DifficultyMedium,
		Category:     "mains",
		Cuisine:      "italian",
		Ingredients:  []models.Ingredient{{Name: "spaghetti", Quantity: 200, Unit: "g"}},
		Instructions: []models.Instruction{{Text: "Boil the pasta."}, {Text: "Toss with sauce."}},
		Tags:         []string{"Pasta", " quick "},
		Published:    true,
	}
}
