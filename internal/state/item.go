package state

import (
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/thumbnail"
)

// DetailMode selects what the secondary line of a row shows.
type DetailMode int

const (
	// DetailBrowse shows size and modification time.
	DetailBrowse DetailMode = iota
	// DetailSearch shows where the item lives.
	DetailSearch
)

const detailSeparator = " · "

// now is replaced in tests.
var now = time.Now

// ItemOptions configures an Item.
type ItemOptions struct {
	EventBus *events.EventBus
	Logger   *logging.Logger

	// FolderListing overrides how a folder item opens. Returning nil makes
	// the folder unselectable.
	FolderListing func(folder *models.Folder) *Listing

	// DisableSearch turns off search inside folder items.
	DisableSearch bool
}

// Item is the row state for one Box item.
type Item struct {
	item     models.Item
	id       models.Identifier
	provider Provider
	opts     ItemOptions

	selected atomic.Bool

	mu        sync.Mutex
	thumb     image.Image
	thumbTok  *thumbnail.Token
	thumbSize int
}

// NewItem wraps item for browsing.
func NewItem(item models.Item, provider Provider) *Item {
	return NewItemWithOptions(item, provider, ItemOptions{})
}

// NewItemWithOptions wraps item with custom navigation.
func NewItemWithOptions(item models.Item, provider Provider, opts ItemOptions) *Item {
	return &Item{
		item:     item,
		id:       models.ItemID(item),
		provider: provider,
		opts:     opts,
	}
}

// Model returns the wrapped item.
func (it *Item) Model() models.Item {
	return it.item
}

// ID returns the item's identifier. Two Items are equal when their
// identifiers are.
func (it *Item) ID() models.Identifier {
	return it.id
}

// Name returns the item's name.
func (it *Item) Name() string {
	return models.ItemName(it.item)
}

// IsSelected reports the selected flag.
func (it *Item) IsSelected() bool {
	return it.selected.Load()
}

// SetSelected sets the selected flag.
func (it *Item) SetSelected(selected bool) {
	it.selected.Store(selected)
}

// Detail returns the secondary text of the row.
func (it *Item) Detail(mode DetailMode) string {
	if mode == DetailSearch {
		if crumbs := it.Breadcrumbs(); crumbs != "" {
			return crumbs
		}
	}

	var parts []string
	if file, ok := it.item.(*models.File); ok {
		parts = append(parts, humanize.Bytes(uint64(max(file.Size, 0))))
	}
	if modified := models.ItemModifiedAt(it.item); modified != nil {
		parts = append(parts, humanize.RelTime(*modified, now(), "ago", "from now"))
	}
	return strings.Join(parts, detailSeparator)
}

// Breadcrumbs returns the abbreviated location of the item.
func (it *Item) Breadcrumbs() string {
	return Breadcrumbs(models.ItemPath(it.item))
}

// Icon returns the placeholder icon for the row.
func (it *Item) Icon() thumbnail.IconKind {
	switch item := it.item.(type) {
	case *models.Folder:
		switch {
		case item.IsExternallyOwned:
			return thumbnail.IconExternalFolder
		case item.HasCollaborations:
			return thumbnail.IconSharedFolder
		}
		return thumbnail.IconPersonalFolder
	case *models.WebLink:
		return thumbnail.IconWebLink
	}
	return thumbnail.IconGenericDocument
}

// AllowsReading reports whether the row can be opened: folders always,
// files with download permission, web links never.
func (it *Item) AllowsReading() bool {
	switch it.item.(type) {
	case *models.Folder:
		return true
	case *models.File:
		return models.ItemPermissions(it.item).Has(models.PermDownload)
	}
	return false
}

// Thumbnail returns the loaded thumbnail, or nil.
func (it *Item) Thumbnail() image.Image {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.thumb
}

// RequestThumbnail loads a square thumbnail of size pixels for a file.
// A cached thumbnail is passed to done immediately. While a request is
// pending, further calls do nothing. done runs on the queue and is not
// called for failed loads or after CancelThumbnail.
func (it *Item) RequestThumbnail(size int, done func(image.Image)) {
	if _, ok := it.item.(*models.File); !ok {
		return
	}

	it.mu.Lock()
	if it.thumb != nil && it.thumbSize == size {
		img := it.thumb
		it.mu.Unlock()
		done(img)
		return
	}
	if it.thumbTok != nil {
		it.mu.Unlock()
		return
	}

	var tok *thumbnail.Token
	tok = it.provider.LoadThumbnail(it.id.ID, size, func(img image.Image) {
		it.mu.Lock()
		if it.thumbTok != tok {
			it.mu.Unlock()
			return
		}
		it.thumbTok = nil
		if img == nil {
			it.mu.Unlock()
			return
		}
		it.thumb = img
		it.thumbSize = size
		it.mu.Unlock()
		done(img)
	})
	it.thumbTok = tok
	it.mu.Unlock()
}

// CancelThumbnail abandons a pending thumbnail request.
func (it *Item) CancelThumbnail() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.thumbTok != nil {
		it.thumbTok.Cancel()
		it.thumbTok = nil
	}
}

// FolderListing returns the listing opened by selecting the item, or nil
// for files and web links.
func (it *Item) FolderListing() *Listing {
	folder, ok := it.item.(*models.Folder)
	if !ok {
		return nil
	}
	if it.opts.FolderListing != nil {
		return it.opts.FolderListing(folder)
	}
	return NewFolderListing(it.provider, folder, ListingOptions{
		EventBus: it.opts.EventBus,
		Logger:   it.opts.Logger,
	})
}

// Search returns search state scoped to the item's folder, or nil.
func (it *Item) Search() *Search {
	folder, ok := it.item.(*models.Folder)
	if !ok || it.opts.DisableSearch {
		return nil
	}
	return NewSearch(it.provider, folder.ID, SearchOptions{
		EventBus: it.opts.EventBus,
		Logger:   it.opts.Logger,
	})
}
