package searchstate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"saffron/models"
	"saffron/query"
	"saffron/utils"
)

// HTTPFetcher queries GET /api/recipes/search on a running server.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, q models.SearchQuery) (models.SearchResult, error) {
	u := f.BaseURL + "/api/recipes/search"
	if v := query.Encode(q); len(v) > 0 {
		u += "?" + v.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.SearchResult{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body utils.ErrorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return models.SearchResult{}, fmt.Errorf("search returned %d: %s", resp.StatusCode, body.Error)
	}

	var res models.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.SearchResult{}, fmt.Errorf("decode search response: %w", err)
	}
	if res.Data == nil {
		res.Data = []models.Recipe{}
	}
	return res, nil
}
