package seo

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"saffron/models"
)

type RecipeLister interface {
	Published(ctx context.Context) ([]models.Recipe, error)
}

type PostLister interface {
	Published(ctx context.Context) ([]models.BlogPostSummary, error)
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

// Generator assembles the sitemap from the public content.
type Generator struct {
	SiteURL string
	Recipes RecipeLister
	Posts   PostLister
}

func (g Generator) Build(ctx context.Context) (URLSet, error) {
	set := URLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs,
		URL{Loc: g.SiteURL + "/", ChangeFreq: "daily", Priority: 1.0},
		URL{Loc: g.SiteURL + "/recipes", ChangeFreq: "daily", Priority: 0.9},
		URL{Loc: g.SiteURL + "/blog", ChangeFreq: "weekly", Priority: 0.7},
	)

	if g.Recipes != nil {
		recipes, err := g.Recipes.Published(ctx)
		if err != nil {
			return URLSet{}, fmt.Errorf("sitemap recipes: %w", err)
		}
		for _, r := range recipes {
			set.URLs = append(set.URLs, URL{
				Loc:        RecipeURL(g.SiteURL, r.Slug),
				LastMod:    lastMod(r.UpdatedAt, r.CreatedAt),
				ChangeFreq: "weekly",
				Priority:   0.8,
			})
		}
	}
	if g.Posts != nil {
		posts, err := g.Posts.Published(ctx)
		if err != nil {
			return URLSet{}, fmt.Errorf("sitemap posts: %w", err)
		}
		for _, p := range posts {
			set.URLs = append(set.URLs, URL{
				Loc:        PostURL(g.SiteURL, p.Slug),
				LastMod:    lastMod(p.UpdatedAt, p.CreatedAt),
				ChangeFreq: "monthly",
				Priority:   0.6,
			})
		}
	}
	return set, nil
}

// Write renders the sitemap document, XML header included.
func (g Generator) Write(ctx context.Context, w io.Writer) error {
	set, err := g.Build(ctx)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// Robots disallows the API and points crawlers at the sitemap.
func Robots(siteURL string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\nSitemap: " + siteURL + "/sitemap.xml\n")
	return b.String()
}

func lastMod(ts ...time.Time) string {
	for _, t := range ts {
		if !t.IsZero() {
			return t.UTC().Format(time.DateOnly)
		}
	}
	return ""
}
