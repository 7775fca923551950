package query

import (
	"net/url"
	"testing"
	"time"

	"saffron/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, DefaultLimit},
		{"0", "0", 1, DefaultLimit},
		{"-3", "-5", 1, 1},
		{"abc", "xyz", 1, DefaultLimit},
		{"4", "500", 4, MaxLimit},
		{"2", "100", 2, 100},
		{" 3 ", "7", 3, 7},
		{"100000000000000000", "100", MaxPage, 100},
	}
	for _, tt := range tests {
		page, limit := ClampPage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page, "page %q", tt.page)
		assert.Equal(t, tt.wantLimit, limit, "limit %q", tt.limit)
	}
}

func TestBuildSkip(t *testing.T) {
	for page := 1; page <= 5; page++ {
		for _, limit := range []int{1, 12, 100} {
			q := Build(models.SearchQuery{Page: page, Limit: limit})
			assert.Equal(t, int64((page-1)*limit), q.Skip)
			assert.Equal(t, int64(limit), q.Limit)
		}
	}
}

func TestBuildSkipHugePage(t *testing.T) {
	q := Build(Parse(url.Values{"page": {"100000000000000000"}, "limit": {"100"}}))
	assert.Equal(t, int64(MaxPage-1)*100, q.Skip)
	assert.Positive(t, q.Skip)

	q = Build(models.SearchQuery{Page: 1 << 62, Limit: MaxLimit})
	assert.Equal(t, int64(MaxPage-1)*MaxLimit, q.Skip)
}

func TestParsePermissive(t *testing.T) {
	q := Parse(url.Values{
		"search":   {"  Pasta "},
		"maxTime":  {"soon"},
		"servings": {"-2"},
		"tags":     {"Quick, ,vegan,quick"},
		"sort":     {"bogus"},
		"featured": {"yes"},
	})
	assert.Equal(t, "Pasta", q.Text)
	assert.Equal(t, All, q.Category)
	assert.Equal(t, 0, q.MaxTime)
	assert.Equal(t, 0, q.Servings)
	assert.Equal(t, []string{"quick", "vegan"}, q.Tags)
	assert.Equal(t, SortNewest, q.Sort)
	assert.False(t, q.Featured)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)

	assert.Equal(t, "ramen", Parse(url.Values{"q": {"ramen"}, "search": {"pho"}}).Text)
}

func TestCategoryAllEqualsOmitted(t *testing.T) {
	withAll := Build(Parse(url.Values{"category": {"all"}, "difficulty": {"all"}}))
	omitted := Build(Parse(url.Values{}))
	assert.Equal(t, omitted, withAll)
	assert.Equal(t, bson.M{"published": true}, withAll.Filter.BSON())
}

func TestFilterBSON(t *testing.T) {
	q := Build(Parse(url.Values{
		"q":          {"a+b"},
		"category":   {"desserts"},
		"difficulty": {"easy"},
		"cuisine":    {"french"},
		"maxTime":    {"30"},
		"servings":   {"4"},
		"tags":       {"chocolate,nuts"},
		"featured":   {"true"},
	}))
	m := q.Filter.BSON()

	assert.Equal(t, true, m["published"])
	assert.Equal(t, true, m["featured"])
	assert.Equal(t, "desserts", m["category"])
	assert.Equal(t, "easy", m["difficulty"])
	assert.Equal(t, "french", m["cuisine"])
	assert.Equal(t, bson.M{"$lte": 30}, m["totalTime"])
	assert.Equal(t, bson.M{"$gte": 4}, m["servings"])
	assert.Equal(t, bson.M{"$in": []string{"chocolate", "nuts"}}, m["tags"])

	or, ok := m["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"$regex": `a\+b`, "$options": "i"}, or[0]["title"])
}

func TestFilterMatch(t *testing.T) {
	r := models.Recipe{
		Title:       "Chocolate Mousse",
		Description: "Airy and rich",
		Category:    "desserts",
		Difficulty:  models.DifficultyMedium,
		TotalTime:   40,
		Servings:    6,
		Tags:        []string{"chocolate", "french"},
		Published:   true,
	}

	assert.True(t, Filter{PublishedOnly: true}.Match(r))
	assert.True(t, Filter{Text: "mousse"}.Match(r))
	assert.True(t, Filter{Text: "RICH"}.Match(r))
	assert.False(t, Filter{Text: "tart"}.Match(r))
	assert.False(t, Filter{MaxTime: 30}.Match(r))
	assert.True(t, Filter{MaxTime: 40}.Match(r))
	assert.True(t, Filter{MinServings: 6}.Match(r))
	assert.False(t, Filter{MinServings: 8}.Match(r))
	assert.True(t, Filter{Tags: []string{"vegan", "french"}}.Match(r))
	assert.False(t, Filter{Tags: []string{"vegan"}}.Match(r))
	assert.False(t, Filter{FeaturedOnly: true}.Match(r))
	assert.False(t, Filter{Difficulty: "easy"}.Match(r))

	r.Published = false
	assert.False(t, Filter{PublishedOnly: true}.Match(r))
}

func TestSort(t *testing.T) {
	assert.Equal(t, Sort{Field: "createdAt", Desc: true}, SortFor(""))
	assert.Equal(t, Sort{Field: "difficultyRank"}, SortFor("Difficulty"))
	assert.Equal(t, bson.D{{Key: "rating", Value: -1}, {Key: "slug", Value: 1}}, SortFor(SortRating).BSON())

	four, five := 4.0, 5.0
	now := time.Now()
	a := models.Recipe{Slug: "a", Rating: &four, CreatedAt: now, Difficulty: models.DifficultyHard}
	b := models.Recipe{Slug: "b", Rating: &five, CreatedAt: now.Add(time.Hour), Difficulty: models.DifficultyEasy}
	c := models.Recipe{Slug: "c", CreatedAt: now}

	assert.True(t, SortFor(SortRating).Less(b, a))
	assert.True(t, SortFor(SortRating).Less(a, c), "missing rating sorts last when descending")
	assert.True(t, SortFor(SortNewest).Less(b, a))
	assert.True(t, SortFor(SortOldest).Less(a, c), "equal keys fall back to slug")
	assert.True(t, SortFor(SortDifficulty).Less(b, a))
}

func TestEncodeRoundTrip(t *testing.T) {
	v := url.Values{
		"q":        {"pasta"},
		"category": {"mains"},
		"maxTime":  {"30"},
		"tags":     {"quick,vegan"},
		"sort":     {"rating"},
		"page":     {"2"},
		"limit":    {"24"},
	}
	q := Parse(v)
	assert.Equal(t, v, Encode(q))
	assert.Equal(t, q, Parse(Encode(q)))

	assert.Empty(t, Encode(Parse(url.Values{"category": {"all"}, "page": {"1"}, "limit": {"12"}})))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(url.Values{}))
	require.NoError(t, Validate(url.Values{"page": {"2"}, "difficulty": {"all"}, "sort": {"title"}}))

	err := Validate(url.Values{
		"page":       {"two"},
		"limit":      {"500"},
		"maxTime":    {"-1"},
		"difficulty": {"expert"},
		"sort":       {"spicy"},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 5)
	assert.Equal(t, "invalid query parameters: difficulty, limit, maxTime, page, sort", err.Error())
}
