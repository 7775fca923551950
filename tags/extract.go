package tags

import (
	"regexp"
	"strings"
)

var hashtag = regexp.MustCompile(`#(\p{L}[\p{L}\p{N}_-]*)`)

// ExtractHashtags finds hashtags in free text.
// "Loving #Sourdough and #bread, #sourdough" -> ["sourdough", "bread"]
func ExtractHashtags(content string) []string {
	matches := hashtag.FindAllStringSubmatch(content, -1)

	seen := make(map[string]struct{})
	var out []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// paginate returns the page-th (0 based) window of items.
func paginate[T any](items []T, page, limit int) []T {
	if page < 0 || limit < 1 || page > len(items)/limit {
		return []T{}
	}
	start := page * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
