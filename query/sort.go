package query

import (
	"strings"

	"saffron/models"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortTitle      = "title"
	SortRating     = "rating"
	SortTime       = "time"
	SortDifficulty = "difficulty"
)

// Sort orders results by one field.
type Sort struct {
	Field string
	Desc  bool
}

var sorts = map[string]Sort{
	SortNewest:     {Field: "createdAt", Desc: true},
	SortOldest:     {Field: "createdAt"},
	SortTitle:      {Field: "title"},
	SortRating:     {Field: "rating", Desc: true},
	SortTime:       {Field: "totalTime"},
	SortDifficulty: {Field: "difficultyRank"},
}

// NormalizeSort maps unknown or empty keys to SortNewest.
func NormalizeSort(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, ok := sorts[key]; ok {
		return key
	}
	return SortNewest
}

func SortFor(key string) Sort {
	return sorts[NormalizeSort(key)]
}

// BSON renders the sort with a slug tiebreak so pages are stable.
func (s Sort) BSON() bson.D {
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{{Key: s.Field, Value: dir}, {Key: "slug", Value: 1}}
}

// Compare orders a and b under s, falling back to the slug.
func (s Sort) Compare(a, b models.Recipe) int {
	c := s.compare(a, b)
	if s.Desc {
		c = -c
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.Slug, b.Slug)
}

func (s Sort) Less(a, b models.Recipe) bool {
	return s.Compare(a, b) < 0
}

func (s Sort) compare(a, b models.Recipe) int {
	switch s.Field {
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "rating":
		return CompareRating(a.Rating, b.Rating)
	case "totalTime":
		return a.TotalTime - b.TotalTime
	case "difficultyRank":
		return a.Difficulty.Rank() - b.Difficulty.Rank()
	}
	return 0
}

// CompareRating places a missing rating below any rating, as null sorts
// in MongoDB.
func CompareRating(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
