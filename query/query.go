// Package query turns the flat recipe filter parameters into a store query.
//
// Parsing is permissive: malformed numbers, unknown sort keys and the "all"
// sentinel all mean "no constraint". Validate offers a strict pass for
// callers that want malformed input rejected instead.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"saffron/models"
	"saffron/utils"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
	// MaxPage keeps (page-1)*MaxLimit inside int64.
	MaxPage = 1<<31 - 1

	// All is the sentinel filter value meaning "no constraint".
	All = "all"
)

// Query is the structured form handed to a store driver.
type Query struct {
	Filter Filter
	Sort   Sort
	Skip   int64
	Limit  int64
}

// Parse reads a SearchQuery from URL values. The free text is taken from
// "q" and falls back to "search" so both the list and search routes share it.
func Parse(v url.Values) models.SearchQuery {
	text := v.Get("q")
	if text == "" {
		text = v.Get("search")
	}

	q := models.SearchQuery{
		Text:       strings.TrimSpace(text),
		Category:   sentinel(v.Get("category")),
		Difficulty: sentinel(v.Get("difficulty")),
		Cuisine:    sentinel(v.Get("cuisine")),
		MaxTime:    nonNegative(utils.ParseIntOr(v.Get("maxTime"), 0)),
		Servings:   nonNegative(utils.ParseIntOr(v.Get("servings"), 0)),
		Tags:       utils.SplitTags(v.Get("tags")),
		Featured:   v.Get("featured") == "true",
		Sort:       NormalizeSort(v.Get("sort")),
	}
	q.Page, q.Limit = ClampPage(v.Get("page"), v.Get("limit"))
	return q
}

// ClampPage applies the pagination rules: a page below 1 becomes 1, a limit
// that is missing, unparsable or zero becomes DefaultLimit, and the result
// is clamped to [1, MaxLimit].
func ClampPage(pageStr, limitStr string) (int, int) {
	page := utils.ParseIntOr(pageStr, 1)
	if page < 1 {
		page = 1
	}
	page = min(page, MaxPage)
	limit := utils.ParseIntOr(limitStr, DefaultLimit)
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Build translates q into the filter, sort and skip/take of a public query.
func Build(q models.SearchQuery) Query {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	page = min(page, MaxPage)
	if limit < 1 || limit > MaxLimit {
		_, limit = ClampPage("1", strconv.Itoa(limit))
	}

	return Query{
		Filter: Filter{
			Text:          q.Text,
			Category:      constraint(q.Category),
			Difficulty:    constraint(q.Difficulty),
			Cuisine:       constraint(q.Cuisine),
			MaxTime:       q.MaxTime,
			MinServings:   q.Servings,
			Tags:          q.Tags,
			FeaturedOnly:  q.Featured,
			PublishedOnly: true,
		},
		Sort:  SortFor(q.Sort),
		Skip:  int64(page-1) * int64(limit),
		Limit: int64(limit),
	}
}

// Encode is the inverse of Parse. Default values are omitted so that two
// equivalent queries encode identically.
func Encode(q models.SearchQuery) url.Values {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if c := constraint(q.Category); c != "" {
		v.Set("category", c)
	}
	if d := constraint(q.Difficulty); d != "" {
		v.Set("difficulty", d)
	}
	if c := constraint(q.Cuisine); c != "" {
		v.Set("cuisine", c)
	}
	if q.MaxTime > 0 {
		v.Set("maxTime", strconv.Itoa(q.MaxTime))
	}
	if q.Servings > 0 {
		v.Set("servings", strconv.Itoa(q.Servings))
	}
	if len(q.Tags) > 0 {
		v.Set("tags", strings.Join(q.Tags, ","))
	}
	if q.Featured {
		v.Set("featured", "true")
	}
	if s := NormalizeSort(q.Sort); s != SortNewest {
		v.Set("sort", s)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 && q.Limit != DefaultLimit {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Params flattens the encoded query for cache key generation.
func Params(q models.SearchQuery) map[string]any {
	out := map[string]any{}
	for k, vals := range Encode(q) {
		out[k] = strings.Join(vals, ",")
	}
	return out
}

func sentinel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return All
	}
	return s
}

func constraint(s string) string {
	if s == All {
		return ""
	}
	return s
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
