package utils

import (
	"strconv"
	"strings"
)

// ParseIntOr parses s as an integer, returning def when s is empty or malformed.
func ParseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// SplitTags takes a comma-separated string and returns a cleaned []string
func SplitTags(input string) []string {
	if input == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(input, ","))
}

// NormalizeTags trims, lowercases and de-duplicates tag names, dropping empties.
func NormalizeTags(in []string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, p := range in {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag == "" || seen[tag] {
			continue
		}
		tags = append(tags, tag)
		seen[tag] = true
	}
	return tags
}

func ContainsIgnoreCase(str, substr string) bool {
	return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
}
