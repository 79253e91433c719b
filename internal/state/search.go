package state

import (
	"strings"
	"sync"
	"time"

	"github.com/rescale/box-browse/internal/constants"
	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/logging"
)

const searchTitle = "Search"

// SearchOptions configures a Search.
type SearchOptions struct {
	EventBus *events.EventBus
	Logger   *logging.Logger

	// Debounce delays non-empty query updates. Zero means the default
	// of 350ms; a negative value disables the delay.
	Debounce time.Duration
}

// Search holds a query and the listing of its results below one folder.
type Search struct {
	provider Provider
	folderID string
	debounce time.Duration
	listing  *Listing

	mu    sync.Mutex
	query string
	timer *time.Timer
}

// NewSearch creates search state for folderID. The listing starts empty.
func NewSearch(provider Provider, folderID string, opts SearchOptions) *Search {
	s := &Search{
		provider: provider,
		folderID: folderID,
		debounce: opts.Debounce,
	}
	if s.debounce == 0 {
		s.debounce = constants.SearchDebounce
	}
	s.listing = NewListing(searchTitle, provider, s.createEnumerator, ListingOptions{
		EventBus: opts.EventBus,
		Logger:   opts.Logger,
	})
	return s
}

// Listing returns the result listing.
func (s *Search) Listing() *Listing {
	return s.listing
}

// FolderID returns the folder the search is scoped to.
func (s *Search) FolderID() string {
	return s.folderID
}

// Query returns the normalized query currently listed.
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Update schedules a query change. Non-empty queries apply after the
// debounce delay, and each call restarts it. An empty query applies
// immediately. Must be called on the provider's queue.
func (s *Search) Update(query string) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if query == "" || s.debounce < 0 {
		s.mu.Unlock()
		s.UpdateNow(query)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.debounce, func() {
		s.provider.Queue().Async(func() {
			s.mu.Lock()
			if s.timer != timer {
				s.mu.Unlock()
				return
			}
			s.timer = nil
			s.mu.Unlock()
			s.UpdateNow(query)
		})
	})
	s.timer = timer
	s.mu.Unlock()
}

// UpdateNow applies a query without delay. The query is trimmed and
// lower-cased; if that matches the current query nothing happens.
// Must be called on the provider's queue.
func (s *Search) UpdateNow(query string) {
	query = strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	if query == s.query {
		s.mu.Unlock()
		return
	}
	s.query = query
	s.mu.Unlock()

	s.listing.ReloadFirstPage()
}

func (s *Search) createEnumerator() *enumerator.Enumerator {
	query := s.Query()
	if query == "" {
		return enumerator.Empty(s.provider.Queue())
	}
	return s.provider.Search(query, s.folderID)
}
