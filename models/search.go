package models

// SearchQuery is the flat filter set shared by the API and the client state.
type SearchQuery struct {
	Text       string   `json:"q"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Cuisine    string   `json:"cuisine"`
	MaxTime    int      `json:"maxTime"`
	Servings   int      `json:"servings"`
	Tags       []string `json:"tags"`
	Featured   bool     `json:"featured"`
	Sort       string   `json:"sort"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination derives the page metadata from a total count.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// SearchResult is the response envelope of the recipe list and search routes.
type SearchResult struct {
	Data       []Recipe     `json:"data"`
	Pagination Pagination   `json:"pagination"`
	Query      *SearchQuery `json:"query,omitempty"`
}
