package recipes

import (
	"context"
	"errors"

	"saffron/models"
	"saffron/query"
)

var (
	ErrNotFound  = errors.New("recipe not found")
	ErrSlugTaken = errors.New("slug already in use")
	ErrForbidden = errors.New("not allowed to modify this recipe")
)

// Store is the document store contract: filter, sort, skip, take and count
// plus the handful of lookups the detail and admin routes need.
type Store interface {
	Find(ctx context.Context, q query.Query) ([]models.Recipe, error)
	Count(ctx context.Context, f query.Filter) (int64, error)

	BySlug(ctx context.Context, slug string) (models.Recipe, error)
	Insert(ctx context.Context, r models.Recipe) error
	Update(ctx context.Context, r models.Recipe) error
	Delete(ctx context.Context, slug string) error

	AddImage(ctx context.Context, slug string, img models.ImageSet) error
	AddViews(ctx context.Context, slug string, n int) error

	Popular(ctx context.Context, limit int) ([]models.Recipe, error)
	Related(ctx context.Context, r models.Recipe, limit int) ([]models.Recipe, error)
	Categories(ctx context.Context) ([]models.Category, error)
	TagCounts(ctx context.Context) (map[string]int, error)
	Published(ctx context.Context) ([]models.Recipe, error)
}
