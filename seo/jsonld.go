package seo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"saffron/models"
)

// RecipeJSONLD renders the schema.org Recipe object for r.
func RecipeJSONLD(r models.Recipe, siteURL string) map[string]any {
	ingredients := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, ingredientLine(ing))
	}
	steps := make([]map[string]any, 0, len(r.Instructions))
	for _, in := range r.Instructions {
		steps = append(steps, map[string]any{
			"@type":    "HowToStep",
			"position": in.Step,
			"text":     in.Text,
		})
	}

	ld := map[string]any{
		"@context":           "https://schema.org",
		"@type":              "Recipe",
		"name":               r.Title,
		"description":        r.Description,
		"url":                RecipeURL(siteURL, r.Slug),
		"prepTime":           Duration(r.PrepTime),
		"cookTime":           Duration(r.CookTime),
		"totalTime":          Duration(r.TotalTime),
		"recipeYield":        fmt.Sprintf("%d servings", r.Servings),
		"recipeCategory":     r.Category,
		"recipeIngredient":   ingredients,
		"recipeInstructions": steps,
		"datePublished":      r.CreatedAt.Format(time.DateOnly),
		"dateModified":       r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Cuisine != "" {
		ld["recipeCuisine"] = r.Cuisine
	}
	if len(r.Tags) > 0 {
		ld["keywords"] = strings.Join(r.Tags, ", ")
	}
	if imgs := imageURLs(r.Images); len(imgs) > 0 {
		ld["image"] = imgs
	}
	if r.Rating != nil {
		ld["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": strconv.FormatFloat(*r.Rating, 'f', 1, 64),
			"bestRating":  "5",
		}
	}
	return ld
}

// PostJSONLD renders the schema.org BlogPosting object for p.
func PostJSONLD(p models.BlogPost, siteURL string) map[string]any {
	ld := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      p.Title,
		"description":   p.Excerpt,
		"url":           PostURL(siteURL, p.Slug),
		"datePublished": p.CreatedAt.Format(time.RFC3339),
		"dateModified":  p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Cover != "" {
		ld["image"] = p.Cover
	}
	if len(p.Tags) > 0 {
		ld["keywords"] = strings.Join(p.Tags, ", ")
	}
	return ld
}

// Duration formats minutes as ISO 8601, e.g. 95 -> "PT1H35M".
func Duration(minutes int) string {
	if minutes <= 0 {
		return "PT0M"
	}
	h, m := minutes/60, minutes%60
	var b strings.Builder
	b.WriteString("PT")
	if h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	return b.String()
}

func RecipeURL(siteURL, slug string) string { return siteURL + "/recipes/" + slug }

func PostURL(siteURL, slug string) string { return siteURL + "/blog/" + slug }

func ingredientLine(ing models.Ingredient) string {
	parts := []string{}
	if ing.Quantity > 0 {
		parts = append(parts, strconv.FormatFloat(ing.Quantity, 'f', -1, 64))
	}
	if ing.Unit != "" {
		parts = append(parts, ing.Unit)
	}
	parts = append(parts, ing.Name)
	line := strings.Join(parts, " ")
	if ing.Note != "" {
		line += ", " + ing.Note
	}
	return line
}

func imageURLs(sets []models.ImageSet) []string {
	out := []string{}
	for _, s := range sets {
		if s.Large != "" {
			out = append(out, s.Large)
		}
	}
	return out
}
