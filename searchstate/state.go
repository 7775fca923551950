// Package searchstate keeps a recipe search in sync with its URL and with
// the search API: free text is debounced, every other change fetches at
// once, and only the newest response is ever applied.
package searchstate

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"saffron/models"
	"saffron/query"
)

const DefaultDebounce = 300 * time.Millisecond

type Phase int

const (
	Idle Phase = iota
	Debouncing
	Fetching
)

func (p Phase) String() string {
	switch p {
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	default:
		return "idle"
	}
}

// Fetcher runs one search.
type Fetcher interface {
	Fetch(ctx context.Context, q models.SearchQuery) (models.SearchResult, error)
}

// URLSync receives the settled filter set. Implementations replace the
// current history entry rather than pushing a new one.
type URLSync interface {
	Replace(values url.Values)
}

type Filters struct {
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Cuisine    string   `json:"cuisine"`
	MaxTime    int      `json:"maxTime"`
	Servings   int      `json:"servings"`
	Tags       []string `json:"tags"`
	Featured   bool     `json:"featured"`
}

func DefaultFilters() Filters {
	return Filters{Category: query.All, Difficulty: query.All, Cuisine: query.All, Tags: []string{}}
}

func (f Filters) normalized() Filters {
	if f.Category == "" {
		f.Category = query.All
	}
	if f.Difficulty == "" {
		f.Difficulty = query.All
	}
	if f.Cuisine == "" {
		f.Cuisine = query.All
	}
	f.MaxTime = max(f.MaxTime, 0)
	f.Servings = max(f.Servings, 0)
	f.Tags = append([]string{}, f.Tags...)
	return f
}

type Snapshot struct {
	Query        string
	Filters      Filters
	SortBy       string
	Results      []models.Recipe
	TotalResults int64
	CurrentPage  int
	TotalPages   int
	HasMore      bool
	IsLoading    bool
	IsEmpty      bool
	Err          error
	Phase        Phase
}

type Options struct {
	// Debounce delays free text searches; zero means DefaultDebounce.
	Debounce time.Duration
	// Limit is the page size; zero keeps the limit from the URL.
	Limit int
	// OnChange is called with a fresh snapshot after every state change.
	OnChange func(Snapshot)
}

type State struct {
	fetcher  Fetcher
	urls     URLSync
	debounce time.Duration
	onChange func(Snapshot)

	// urlMu orders URL replacements; it is never taken while holding mu.
	urlMu sync.Mutex

	mu      sync.Mutex
	text    string
	filters Filters
	sortBy  string
	page    int
	limit   int

	result  models.SearchResult
	err     error
	fetched bool
	phase   Phase
	idle    chan struct{}

	seq         uint64
	cancel      context.CancelFunc
	timer       *time.Timer
	debounceGen uint64
}

// New restores the state from the URL values and starts the first fetch.
func New(initial url.Values, f Fetcher, urls URLSync, opts Options) *State {
	q := query.Parse(initial)
	s := &State{
		fetcher:  f,
		urls:     urls,
		debounce: opts.Debounce,
		onChange: opts.OnChange,
		text:     q.Text,
		filters: Filters{
			Category:   q.Category,
			Difficulty: q.Difficulty,
			Cuisine:    q.Cuisine,
			MaxTime:    q.MaxTime,
			Servings:   q.Servings,
			Tags:       q.Tags,
			Featured:   q.Featured,
		}.normalized(),
		sortBy: q.Sort,
		page:   q.Page,
		limit:  q.Limit,
		idle:   make(chan struct{}),
	}
	if s.debounce <= 0 {
		s.debounce = DefaultDebounce
	}
	if opts.Limit > 0 {
		s.limit = min(opts.Limit, query.MaxLimit)
	}
	close(s.idle)

	s.mu.Lock()
	s.fetchLocked()
	return s
}

// SetQuery changes the free text. The fetch waits until edits pause.
func (s *State) SetQuery(text string) {
	s.mu.Lock()
	s.text = text
	s.page = 1
	s.stopTimerLocked()
	s.abortLocked()
	s.enterLocked(Debouncing)
	gen := s.debounceGen
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if gen != s.debounceGen {
			s.mu.Unlock()
			return
		}
		s.fetchLocked()
	})
	s.mu.Unlock()
	s.emit()
}

func (s *State) SetFilters(f Filters) {
	s.mu.Lock()
	s.filters = f.normalized()
	s.page = 1
	s.fetchLocked()
}

func (s *State) SetSortBy(sortBy string) {
	s.mu.Lock()
	s.sortBy = query.NormalizeSort(sortBy)
	s.page = 1
	s.fetchLocked()
}

// SetPage moves to page and leaves every filter alone.
func (s *State) SetPage(page int) {
	s.mu.Lock()
	s.page = max(page, 1)
	s.fetchLocked()
}

// ClearFilters restores every filter default and keeps the free text.
func (s *State) ClearFilters() {
	s.mu.Lock()
	s.filters = DefaultFilters()
	s.page = 1
	s.fetchLocked()
}

// ClearSearch empties the free text immediately, without debouncing.
func (s *State) ClearSearch() {
	s.mu.Lock()
	s.text = ""
	s.page = 1
	s.fetchLocked()
}

// Reset returns to the default filters, sort and page with no free text.
func (s *State) Reset() {
	s.mu.Lock()
	s.text = ""
	s.filters = DefaultFilters()
	s.sortBy = query.SortNewest
	s.page = 1
	s.fetchLocked()
}

// Close cancels the pending debounce and the in-flight fetch.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.abortLocked()
	if s.phase != Idle {
		s.phase = Idle
		close(s.idle)
	}
}

// Wait blocks until no debounce or fetch is pending.
func (s *State) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SearchQuery is the query the current state fetches.
func (s *State) SearchQuery() models.SearchQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchQueryLocked()
}

func (s *State) searchQueryLocked() models.SearchQuery {
	return models.SearchQuery{
		Text:       s.text,
		Category:   s.filters.Category,
		Difficulty: s.filters.Difficulty,
		Cuisine:    s.filters.Cuisine,
		MaxTime:    s.filters.MaxTime,
		Servings:   s.filters.Servings,
		Tags:       append([]string{}, s.filters.Tags...),
		Featured:   s.filters.Featured,
		Sort:       s.sortBy,
		Page:       s.page,
		Limit:      s.limit,
	}
}

// fetchLocked starts a fetch for the current state and releases s.mu.
func (s *State) fetchLocked() {
	s.stopTimerLocked()
	s.abortLocked()
	seq := s.seq
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.enterLocked(Fetching)
	q := s.searchQueryLocked()
	s.mu.Unlock()

	s.replaceURL(seq, q)
	s.emit()
	go s.run(ctx, seq, q)
}

// replaceURL writes q to the URL unless a newer change has superseded it.
func (s *State) replaceURL(seq uint64, q models.SearchQuery) {
	if s.urls == nil {
		return
	}
	s.urlMu.Lock()
	defer s.urlMu.Unlock()
	s.mu.Lock()
	current := seq == s.seq
	s.mu.Unlock()
	if current {
		s.urls.Replace(query.Encode(q))
	}
}

func (s *State) run(ctx context.Context, seq uint64, q models.SearchQuery) {
	res, err := s.fetcher.Fetch(ctx, q)

	s.mu.Lock()
	if seq != s.seq {
		// a newer search superseded this one
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.cancel = nil
	s.fetched = true
	if err != nil {
		s.err = err
		s.result = models.SearchResult{Data: []models.Recipe{}}
	} else {
		s.err = nil
		s.result = res
	}
	s.phase = Idle
	idle := s.idle
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(snap)
	}
	close(idle)
}

func (s *State) enterLocked(p Phase) {
	if s.phase == Idle {
		s.idle = make(chan struct{})
	}
	s.phase = p
}

// abortLocked drops the in-flight fetch: its response will be ignored.
func (s *State) abortLocked() {
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *State) stopTimerLocked() {
	s.debounceGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *State) emit() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	results := append([]models.Recipe{}, s.result.Data...)
	p := s.result.Pagination
	return Snapshot{
		Query:        s.text,
		Filters:      s.filters.normalized(),
		SortBy:       s.sortBy,
		Results:      results,
		TotalResults: p.Total,
		CurrentPage:  s.page,
		TotalPages:   p.TotalPages,
		HasMore:      s.page < p.TotalPages,
		IsLoading:    s.phase == Fetching,
		IsEmpty:      s.phase == Idle && s.fetched && len(results) == 0,
		Err:          s.err,
		Phase:        s.phase,
	}
}

// Summary renders the result count line, e.g. "Showing 1–12 of 25 recipes".
func (s *State) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.result)
}

func summarize(res models.SearchResult) string {
	p := res.Pagination
	if p.Total == 0 || len(res.Data) == 0 {
		return "No recipes found"
	}
	from := (p.Page-1)*p.Limit + 1
	to := from + len(res.Data) - 1
	noun := "recipes"
	if p.Total == 1 {
		noun = "recipe"
	}
	return fmt.Sprintf("Showing %d–%d of %d %s", from, to, p.Total, noun)
}
