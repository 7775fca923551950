package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ValidationError lists every malformed parameter by name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid query parameters: %s", strings.Join(names, ", "))
}

var numericParams = []string{"page", "limit", "maxTime", "servings"}

var difficulties = map[string]bool{All: true, "easy": true, "medium": true, "hard": true}

// Validate is the strict stage: parameters that are present but malformed
// are reported. Absent parameters are never an error.
func Validate(v url.Values) error {
	fields := map[string]string{}
	for _, name := range numericParams {
		raw, ok := v[name]
		if !ok || len(raw) == 0 || raw[0] == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			fields[name] = "must be an integer"
			continue
		}
		if n < 0 {
			fields[name] = "must not be negative"
		}
	}
	if l := v.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > MaxLimit {
			fields["limit"] = fmt.Sprintf("must be at most %d", MaxLimit)
		}
	}
	if d := v.Get("difficulty"); d != "" && !difficulties[d] {
		fields["difficulty"] = "must be one of all, easy, medium, hard"
	}
	if s := v.Get("sort"); s != "" && NormalizeSort(s) != strings.ToLower(strings.TrimSpace(s)) {
		fields["sort"] = "unknown sort key"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
