package state

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/models"
)

// Status summarizes where a listing is in its paging lifecycle.
type Status int

const (
	StatusIdle     Status = iota // No page requested yet
	StatusLoading                // A page fetch is in flight
	StatusReady                  // Pages loaded, more may follow
	StatusFinished               // The listing is exhausted
	StatusFailed                 // The last fetch failed; see Err
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Listener observes a listing. Both methods run on the queue.
type Listener interface {
	ItemsChanged(l *Listing, change events.ListingChange)
	TitleChanged(l *Listing)
}

// ListenerFuncs adapts functions to a Listener. Nil fields are ignored.
type ListenerFuncs struct {
	OnItemsChanged func(l *Listing, change events.ListingChange)
	OnTitleChanged func(l *Listing)
}

func (f ListenerFuncs) ItemsChanged(l *Listing, change events.ListingChange) {
	if f.OnItemsChanged != nil {
		f.OnItemsChanged(l, change)
	}
}

func (f ListenerFuncs) TitleChanged(l *Listing) {
	if f.OnTitleChanged != nil {
		f.OnTitleChanged(l)
	}
}

// ItemFactory wraps a loaded item into its row state.
type ItemFactory func(models.Item) *Item

// ListingOptions configures a Listing.
type ListingOptions struct {
	EventBus *events.EventBus
	Logger   *logging.Logger

	// NewItem wraps loaded items. Defaults to a plain browsing item.
	NewItem ItemFactory

	// Folder is the folder being listed, if any. It enables CreateFolder.
	Folder *models.Folder

	// Prompt is shown above the listing, e.g. when picking a destination.
	Prompt string
}

// Listing accumulates the pages of one enumerator.
//
// LoadNextPage, ReloadFirstPage, SetTitle and the selection setters must be
// called on the provider's queue. The getters may be called from anywhere.
type Listing struct {
	id               string
	provider         Provider
	createEnumerator func() *enumerator.Enumerator
	newItem          ItemFactory
	folder           *models.Folder
	prompt           string
	eventBus         *events.EventBus
	logger           *logging.Logger

	mu         sync.RWMutex
	title      string
	items      []*Item
	enum       *enumerator.Enumerator
	loading    bool
	finished   bool
	started    bool
	err        error
	generation uint64

	listenersMu  sync.Mutex
	listeners    []listenerEntry
	nextListener int
}

type listenerEntry struct {
	id       int
	listener Listener
}

// NewListing creates a listing that pages through the enumerators made by
// createEnumerator. No page is requested until LoadNextPage.
func NewListing(title string, provider Provider, createEnumerator func() *enumerator.Enumerator, opts ListingOptions) *Listing {
	l := &Listing{
		id:               uuid.NewString(),
		provider:         provider,
		createEnumerator: createEnumerator,
		newItem:          opts.NewItem,
		folder:           opts.Folder,
		prompt:           opts.Prompt,
		eventBus:         opts.EventBus,
		logger:           opts.Logger,
		title:            title,
	}
	if l.logger == nil {
		l.logger = logging.Nop()
	}
	if l.newItem == nil {
		itemOpts := ItemOptions{EventBus: opts.EventBus, Logger: opts.Logger}
		l.newItem = func(item models.Item) *Item {
			return NewItemWithOptions(item, provider, itemOpts)
		}
	}
	return l
}

// NewFolderListing lists the contents of folder, titled with its name.
func NewFolderListing(provider Provider, folder *models.Folder, opts ListingOptions) *Listing {
	opts.Folder = folder
	return NewListing(folder.Name, provider, func() *enumerator.Enumerator {
		return provider.Enumerator(folder.ID)
	}, opts)
}

// ID identifies the listing in logs and events.
func (l *Listing) ID() string {
	return l.id
}

// Provider returns the provider the listing loads from.
func (l *Listing) Provider() Provider {
	return l.provider
}

// Folder returns the listed folder, or nil for search results.
func (l *Listing) Folder() *models.Folder {
	return l.folder
}

// Prompt returns the text shown above the listing, if any.
func (l *Listing) Prompt() string {
	return l.prompt
}

// CreateFolder returns folder creation state for the listed folder, or nil
// when the listing is not a folder listing.
func (l *Listing) CreateFolder() *CreateFolder {
	if l.folder == nil {
		return nil
	}
	return NewCreateFolder(l.provider, l.folder)
}

// Title returns the listing's title.
func (l *Listing) Title() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.title
}

// SetTitle changes the title and notifies listeners if it differs.
func (l *Listing) SetTitle(title string) {
	l.mu.Lock()
	if l.title == title {
		l.mu.Unlock()
		return
	}
	l.title = title
	l.mu.Unlock()

	for _, listener := range l.snapshotListeners() {
		listener.TitleChanged(l)
	}
	l.eventBus.Publish(&events.ListingTitleEvent{
		BaseEvent: events.NewBase(events.EventListingTitle),
		ListingID: l.id,
		Title:     title,
	})
}

// ItemCount returns the number of loaded items.
func (l *Listing) ItemCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// ItemAt returns the item at index i. It panics if i is out of range.
func (l *Listing) ItemAt(i int) *Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.items) {
		panic(fmt.Sprintf("state: item index %d out of range [0,%d)", i, len(l.items)))
	}
	return l.items[i]
}

// Items returns a copy of the loaded items.
func (l *Listing) Items() []*Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := make([]*Item, len(l.items))
	copy(items, l.items)
	return items
}

// IsLoading reports whether a page fetch is in flight.
func (l *Listing) IsLoading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// IsFinishedPaging reports whether no further pages will be loaded until
// the next ReloadFirstPage.
func (l *Listing) IsFinishedPaging() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.finished
}

// Err returns the error of the last failed page, if any.
func (l *Listing) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Status returns the paging status.
func (l *Listing) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	switch {
	case l.loading:
		return StatusLoading
	case l.err != nil:
		return StatusFailed
	case l.finished:
		return StatusFinished
	case l.started:
		return StatusReady
	}
	return StatusIdle
}

// AddListener registers a listener and returns a function that removes it.
func (l *Listing) AddListener(listener Listener) (remove func()) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	l.nextListener++
	id := l.nextListener
	l.listeners = append(l.listeners, listenerEntry{id: id, listener: listener})
	return func() {
		l.listenersMu.Lock()
		defer l.listenersMu.Unlock()
		for i, entry := range l.listeners {
			if entry.id == id {
				l.listeners = append(l.listeners[:i], l.listeners[i+1:]...)
				return
			}
		}
	}
}

func (l *Listing) snapshotListeners() []Listener {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	listeners := make([]Listener, len(l.listeners))
	for i, entry := range l.listeners {
		listeners[i] = entry.listener
	}
	return listeners
}

// LoadNextPage requests the next page unless one is already in flight or
// the listing is finished.
func (l *Listing) LoadNextPage() {
	l.mu.Lock()
	if l.loading || l.finished {
		l.mu.Unlock()
		return
	}
	firstPage := l.enum == nil
	if firstPage {
		l.enum = l.createEnumerator()
	}
	enum := l.enum
	generation := l.generation
	l.loading = true
	l.started = true
	l.mu.Unlock()

	l.logger.Debug().
		Str("listing", l.id).
		Bool("first_page", firstPage).
		Int("page_size", enum.PageSize()).
		Msg("loading page")

	enum.GetNextPage(func(page enumerator.Page) {
		l.applyPage(generation, firstPage, page)
	})
}

// ReloadFirstPage drops the current enumerator and starts over. Items stay
// visible until the new first page replaces them.
func (l *Listing) ReloadFirstPage() {
	l.mu.Lock()
	l.generation++
	if l.enum != nil {
		l.enum.Cancel()
	}
	l.enum = nil
	l.loading = false
	l.finished = false
	l.err = nil
	l.mu.Unlock()

	l.LoadNextPage()
}

func (l *Listing) applyPage(generation uint64, firstPage bool, page enumerator.Page) {
	l.mu.Lock()
	if generation != l.generation {
		l.mu.Unlock()
		l.logger.Debug().Str("listing", l.id).Msg("dropping stale page")
		return
	}
	l.loading = false

	change := events.ChangeAppended
	if firstPage {
		change = events.ChangeReplaced
	}

	var added []*Item
	if page.Err == nil {
		added = make([]*Item, 0, len(page.Items))
		for _, item := range page.Items {
			added = append(added, l.newItem(item))
		}
		if page.EndOfList || len(page.Items) == 0 {
			l.finished = true
		}
	} else {
		l.finished = true
		l.err = page.Err
	}

	if firstPage {
		l.items = added
	} else {
		l.items = append(l.items, added...)
	}

	title := l.title
	total := len(l.items)
	finished := l.finished
	l.mu.Unlock()

	if page.Err != nil {
		l.logger.Error().Err(page.Err).Str("listing", l.id).Msg("page fetch failed")
		l.eventBus.Publish(&events.ListingErrorEvent{
			BaseEvent: events.NewBase(events.EventListingError),
			ListingID: l.id,
			Title:     title,
			Error:     page.Err,
		})
	} else {
		l.logger.Debug().
			Str("listing", l.id).
			Int("items", len(added)).
			Int("total", total).
			Bool("finished", finished).
			Msg("page applied")
	}

	for _, listener := range l.snapshotListeners() {
		listener.ItemsChanged(l, change)
	}
	l.eventBus.Publish(&events.ListingChangedEvent{
		BaseEvent: events.NewBase(events.EventListingChanged),
		ListingID: l.id,
		Title:     title,
		Change:    change,
		Added:     len(added),
		Total:     total,
		Finished:  finished,
	})
}

// SetSelected marks the item with id as selected or not.
func (l *Listing) SetSelected(id models.Identifier, selected bool) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if item.ID() == id {
			item.SetSelected(selected)
			return true
		}
	}
	return false
}

// SelectedItems returns the selected items in listing order.
func (l *Listing) SelectedItems() []*Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var selected []*Item
	for _, item := range l.items {
		if item.IsSelected() {
			selected = append(selected, item)
		}
	}
	return selected
}

// ResetSelection deselects every item.
func (l *Listing) ResetSelection() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		item.SetSelected(false)
	}
}
