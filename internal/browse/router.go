package browse

import (
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/state"
)

// SelectionHandler receives the items picked in a listing.
type SelectionHandler interface {
	CanSelect(item *state.Item) bool
	HandleSelected(items []*state.Item)
}

// Router decides where choosing a row leads.
type Router interface {
	CanBrowseToItem(item *state.Item) bool
	BrowseToItem(item *state.Item) SelectionBehavior
	CanBrowseToListing(listing *state.Listing, search *state.Search) bool
	BrowseToListing(listing *state.Listing, search *state.Search)
	CanSelect(item *state.Item) bool
	HandleSelected(items []*state.Item)
}

// Activate handles a tap on item: folders open their listing when the
// router allows it, other items go to BrowseToItem.
func Activate(r Router, item *state.Item) SelectionBehavior {
	if listing := item.FolderListing(); listing != nil {
		search := item.Search()
		if r.CanBrowseToListing(listing, search) {
			r.BrowseToListing(listing, search)
			return RemainSelected
		}
		return Deselect
	}
	if r.CanBrowseToItem(item) {
		return r.BrowseToItem(item)
	}
	return Deselect
}

// DefaultRouter pushes folder listings, opens files with a FileOpener and
// passes selections to a SelectionHandler.
type DefaultRouter struct {
	nav       Navigator
	selection SelectionHandler
	opener    FileOpener
}

// NewDefaultRouter returns a router. selection may be nil when nothing
// can be selected.
func NewDefaultRouter(nav Navigator, selection SelectionHandler, opener FileOpener) *DefaultRouter {
	return &DefaultRouter{nav: nav, selection: selection, opener: opener}
}

func (r *DefaultRouter) CanBrowseToItem(item *state.Item) bool {
	file, ok := item.Model().(*models.File)
	return ok && r.opener.CanOpen(file)
}

func (r *DefaultRouter) BrowseToItem(item *state.Item) SelectionBehavior {
	file, ok := item.Model().(*models.File)
	if !ok {
		return Deselect
	}
	return r.opener.Open(file, r.nav)
}

func (r *DefaultRouter) CanBrowseToListing(*state.Listing, *state.Search) bool {
	return r.nav != nil
}

func (r *DefaultRouter) BrowseToListing(listing *state.Listing, search *state.Search) {
	if r.nav != nil {
		r.nav.Push(ListingScreen{Listing: listing, Search: search, Router: r})
	}
}

func (r *DefaultRouter) CanSelect(item *state.Item) bool {
	return r.selection != nil && r.selection.CanSelect(item)
}

func (r *DefaultRouter) HandleSelected(items []*state.Item) {
	if r.selection != nil {
		r.selection.HandleSelected(items)
	}
}

// MoveOrCopyRouter navigates folders while picking a destination. Files
// never open and nothing is selectable.
type MoveOrCopyRouter struct {
	nav Navigator
}

// NewMoveOrCopyRouter returns a destination picking router.
func NewMoveOrCopyRouter(nav Navigator) *MoveOrCopyRouter {
	return &MoveOrCopyRouter{nav: nav}
}

func (r *MoveOrCopyRouter) CanBrowseToItem(*state.Item) bool { return false }

func (r *MoveOrCopyRouter) BrowseToItem(*state.Item) SelectionBehavior { return Deselect }

func (r *MoveOrCopyRouter) CanBrowseToListing(*state.Listing, *state.Search) bool {
	return r.nav != nil
}

func (r *MoveOrCopyRouter) BrowseToListing(listing *state.Listing, search *state.Search) {
	if r.nav != nil {
		r.nav.Push(ListingScreen{Listing: listing, Search: search, Router: r})
	}
}

func (r *MoveOrCopyRouter) CanSelect(*state.Item) bool { return false }

func (r *MoveOrCopyRouter) HandleSelected([]*state.Item) {}
