package browse

import (
	"context"

	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/state"
)

// SharedLinkFields are the fields shared link selection needs beyond the
// base fields.
var SharedLinkFields = []string{"shared_link", "permissions"}

// ItemError is an item whose operation failed.
type ItemError struct {
	Item models.Item
	Err  error
}

// SharedLinkPicker receives the outcome of a shared link selection. All
// methods run on the queue.
type SharedLinkPicker interface {
	// WillCreateSharedLinks is called before any link is requested.
	WillCreateSharedLinks(total int)
	// DidFail reports the items whose link could not be created.
	DidFail(failures []ItemError)
	// DidSelect delivers the selected items, each with a shared link.
	DidSelect(items []models.Item)
}

// SharedLinkOptions configures a SharedLinkSelection.
type SharedLinkOptions struct {
	EventBus *events.EventBus
	Logger   *logging.Logger
	Progress ProgressFunc

	// Access is the access level of created links ("open", "company",
	// "collaborators"). Empty uses the enterprise default.
	Access string
}

// SharedLinkSelection is a SelectionHandler that returns items with
// shared links, creating the missing ones.
type SharedLinkSelection struct {
	ctx      context.Context
	provider state.Provider
	picker   SharedLinkPicker
	opts     SharedLinkOptions
}

// NewSharedLinkSelection returns a selection handler reporting to picker.
// Cancelling ctx abandons link creation; the picker then receives no
// result.
func NewSharedLinkSelection(ctx context.Context, provider state.Provider, picker SharedLinkPicker, opts SharedLinkOptions) *SharedLinkSelection {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &SharedLinkSelection{ctx: ctx, provider: provider, picker: picker, opts: opts}
}

// CanSelect reports whether the item has a shared link or one can be
// created.
func (s *SharedLinkSelection) CanSelect(item *state.Item) bool {
	model := item.Model()
	return models.ItemSharedLink(model) != nil || models.ItemPermissions(model).Has(models.PermShare)
}

// HandleSelected creates the missing links. Must be called on the queue.
func (s *SharedLinkSelection) HandleSelected(items []*state.Item) {
	sources := make([]models.Item, len(items))
	for i, item := range items {
		sources[i] = item.Model()
	}

	s.picker.WillCreateSharedLinks(len(sources))

	b := batch{
		operation: "share",
		queue:     s.provider.Queue(),
		eventBus:  s.opts.EventBus,
		logger:    s.opts.Logger,
		progress:  s.opts.Progress,
	}
	b.run(s.ctx, sources, s.ensureLink, func(results Results) {
		if s.ctx.Err() != nil {
			return
		}
		s.complete(sources, results)
	})
}

func (s *SharedLinkSelection) ensureLink(ctx context.Context, item models.Item) (models.Item, error) {
	if models.ItemSharedLink(item) != nil {
		return item, nil
	}
	return s.provider.SetSharedLink(ctx, models.ItemID(item), s.opts.Access)
}

func (s *SharedLinkSelection) complete(sources []models.Item, results Results) {
	var successes []models.Item
	var failures []ItemError
	reported := make(map[models.Identifier]bool, len(results))
	for _, item := range sources {
		id := models.ItemID(item)
		result, ok := results[id]
		if !ok || reported[id] {
			continue
		}
		reported[id] = true
		if result.Err != nil {
			failures = append(failures, ItemError{Item: item, Err: result.Err})
		} else {
			successes = append(successes, result.Value)
		}
	}

	if len(failures) > 0 {
		s.picker.DidFail(failures)
	}
	if len(successes) > 0 {
		s.picker.DidSelect(successes)
	}
}

var _ SelectionHandler = (*SharedLinkSelection)(nil)
