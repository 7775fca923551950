package query

import (
	"regexp"
	"slices"
	"strings"

	"saffron/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Filter is the typed recipe predicate. Zero fields mean no constraint.
type Filter struct {
	Text          string
	Category      string
	Difficulty    string
	Cuisine       string
	MaxTime       int
	MinServings   int
	Tags          []string
	FeaturedOnly  bool
	PublishedOnly bool
}

// BSON renders the filter for the MongoDB driver.
func (f Filter) BSON() bson.M {
	m := bson.M{}
	if f.PublishedOnly {
		m["published"] = true
	}
	if f.Text != "" {
		pattern := regexp.QuoteMeta(f.Text)
		m["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if f.Category != "" {
		m["category"] = f.Category
	}
	if f.Difficulty != "" {
		m["difficulty"] = f.Difficulty
	}
	if f.Cuisine != "" {
		m["cuisine"] = f.Cuisine
	}
	if f.MaxTime > 0 {
		m["totalTime"] = bson.M{"$lte": f.MaxTime}
	}
	if f.MinServings > 0 {
		m["servings"] = bson.M{"$gte": f.MinServings}
	}
	if len(f.Tags) > 0 {
		m["tags"] = bson.M{"$in": f.Tags}
	}
	if f.FeaturedOnly {
		m["featured"] = true
	}
	return m
}

// Match evaluates the filter against a single recipe with the same
// semantics as BSON.
func (f Filter) Match(r models.Recipe) bool {
	if f.PublishedOnly && !r.Published {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(r.Title), needle) &&
			!strings.Contains(strings.ToLower(r.Description), needle) {
			return false
		}
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && string(r.Difficulty) != f.Difficulty {
		return false
	}
	if f.Cuisine != "" && r.Cuisine != f.Cuisine {
		return false
	}
	if f.MaxTime > 0 && r.TotalTime > f.MaxTime {
		return false
	}
	if f.MinServings > 0 && r.Servings < f.MinServings {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(r.Tags, func(t string) bool {
		return slices.Contains(f.Tags, t)
	}) {
		return false
	}
	if f.FeaturedOnly && !r.Featured {
		return false
	}
	return true
}
