package posts

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"saffron/models"
	"saffron/query"
	"saffron/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// ListQuery is the parsed blog listing query.
type ListQuery struct {
	Text     string   `json:"q"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Page     int      `json:"page"`
	Limit    int      `json:"limit"`
}

// ParseList reads the listing parameters with the same tolerant rules as
// the recipe search.
func ParseList(v url.Values) ListQuery {
	q := ListQuery{
		Text:     strings.TrimSpace(v.Get("q")),
		Category: strings.TrimSpace(v.Get("category")),
		Tags:     utils.SplitTags(v.Get("tags")),
	}
	if q.Category == query.All {
		q.Category = ""
	}
	q.Page, q.Limit = query.ClampPage(v.Get("page"), v.Get("limit"))
	return q
}

func (q ListQuery) params() map[string]any {
	return map[string]any{
		"q":        q.Text,
		"category": q.Category,
		"tags":     strings.Join(q.Tags, ","),
		"page":     q.Page,
		"limit":    q.Limit,
	}
}

func (q ListQuery) BSON() bson.M {
	m := bson.M{"published": true}
	if q.Text != "" {
		pattern := regexp.QuoteMeta(q.Text)
		m["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"excerpt": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if q.Category != "" {
		m["category"] = q.Category
	}
	if len(q.Tags) > 0 {
		m["tags"] = bson.M{"$in": q.Tags}
	}
	return m
}

func (q ListQuery) Match(p models.BlogPost) bool {
	if !p.Published {
		return false
	}
	if q.Text != "" && !utils.ContainsIgnoreCase(p.Title, q.Text) && !utils.ContainsIgnoreCase(p.Excerpt, q.Text) {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if len(q.Tags) > 0 && !slices.ContainsFunc(p.Tags, func(t string) bool { return slices.Contains(q.Tags, t) }) {
		return false
	}
	return true
}
