package media

import (
	"net/url"
	"strconv"
	"strings"
)

// CDN builds public asset URLs. With no base URL, paths stay site-relative.
type CDN struct {
	Base string
}

type Hints struct {
	Width   int
	Quality int
}

// URL returns the public address of p. Absolute URLs pass through.
func (c CDN) URL(p string, h Hints) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if c.Base == "" {
		return p
	}

	q := url.Values{}
	if h.Width > 0 {
		q.Set("w", strconv.Itoa(h.Width))
	}
	if h.Quality > 0 {
		q.Set("q", strconv.Itoa(h.Quality))
	}
	u := strings.TrimRight(c.Base, "/") + p
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
