package browse

import (
	"context"
	"strings"

	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/state"
)

// DestinationPrompt is shown above destination listings.
const DestinationPrompt = "Select destination folder"

// Actions is a set of move/copy actions.
type Actions uint8

const (
	ActionMove Actions = 1 << iota
	ActionCopy

	allActions = ActionMove | ActionCopy
)

// Has reports whether all of q are in a.
func (a Actions) Has(q Actions) bool {
	return a&q == q
}

func (a Actions) String() string {
	var names []string
	if a.Has(ActionMove) {
		names = append(names, "move")
	}
	if a.Has(ActionCopy) {
		names = append(names, "copy")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// MoveOrCopyOptions configures a MoveOrCopy.
type MoveOrCopyOptions struct {
	EventBus *events.EventBus
	Logger   *logging.Logger
	Progress ProgressFunc
}

// MoveOrCopy moves or copies a set of items into a destination folder
// and builds the listings used to pick that destination.
type MoveOrCopy struct {
	sources  []models.Item
	provider state.Provider
	opts     MoveOrCopyOptions
}

// NewMoveOrCopy returns move/copy state for sources.
func NewMoveOrCopy(provider state.Provider, sources []models.Item, opts MoveOrCopyOptions) *MoveOrCopy {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &MoveOrCopy{sources: sources, provider: provider, opts: opts}
}

// Sources returns the items to move or copy.
func (m *MoveOrCopy) Sources() []models.Item {
	return m.sources
}

// InitialPath is where destination picking starts: the first non-empty
// ancestor path among the sources, or the root folder.
func (m *MoveOrCopy) InitialPath() []models.Folder {
	for _, item := range m.sources {
		if path := models.ItemPath(item); len(path) > 0 {
			return path
		}
	}
	return []models.Folder{{Type: models.TypeFolder, ID: models.RootFolderID}}
}

// PossibleActions returns the actions allowed for every source item into
// folder.
func (m *MoveOrCopy) PossibleActions(to *models.Folder) Actions {
	actions := allActions
	for _, item := range m.sources {
		actions &= possibleActions(item, to)
	}
	return actions
}

// CanMoveOrCopy reports whether any action into folder is allowed.
func (m *MoveOrCopy) CanMoveOrCopy(to *models.Folder) bool {
	return m.PossibleActions(to) != 0
}

func possibleActions(item models.Item, to *models.Folder) Actions {
	if !models.CanMoveOrCopy(item) || !models.ItemPermissions(to).Has(models.PermUpload) {
		return 0
	}
	if folder, ok := item.(*models.Folder); ok {
		// A folder cannot go into itself or its own subtree.
		if folder.ID == to.ID {
			return 0
		}
		for _, ancestor := range models.ItemPath(to) {
			if ancestor.ID == folder.ID {
				return 0
			}
		}
	}

	actions := ActionCopy
	path := models.ItemPath(item)
	if len(path) == 0 || path[len(path)-1].ID != to.ID {
		actions |= ActionMove
	}
	return actions
}

// ListingFor returns the destination listing of folder. Its subfolders
// open only where an action is possible, and search is disabled.
func (m *MoveOrCopy) ListingFor(folder *models.Folder) *state.Listing {
	return state.NewFolderListing(m.provider, folder, state.ListingOptions{
		EventBus: m.opts.EventBus,
		Logger:   m.opts.Logger,
		Prompt:   DestinationPrompt,
		NewItem:  m.newItem,
	})
}

// SearchFor returns search state below folder.
func (m *MoveOrCopy) SearchFor(folder *models.Folder) *state.Search {
	return state.NewSearch(m.provider, folder.ID, state.SearchOptions{
		EventBus: m.opts.EventBus,
		Logger:   m.opts.Logger,
	})
}

func (m *MoveOrCopy) newItem(item models.Item) *state.Item {
	return state.NewItemWithOptions(item, m.provider, state.ItemOptions{
		EventBus:      m.opts.EventBus,
		Logger:        m.opts.Logger,
		DisableSearch: true,
		FolderListing: func(folder *models.Folder) *state.Listing {
			if !m.CanMoveOrCopy(folder) {
				return nil
			}
			return m.ListingFor(folder)
		},
	})
}

// Move moves every source into parentID and passes the outcomes to done
// on the queue.
func (m *MoveOrCopy) Move(ctx context.Context, parentID string, done func(Results)) {
	m.batch("move").run(ctx, m.sources, func(ctx context.Context, item models.Item) (models.Item, error) {
		return m.provider.MoveItem(ctx, models.ItemID(item), parentID)
	}, done)
}

// Copy copies every source into parentID and passes the outcomes to done
// on the queue.
func (m *MoveOrCopy) Copy(ctx context.Context, parentID string, done func(Results)) {
	m.batch("copy").run(ctx, m.sources, func(ctx context.Context, item models.Item) (models.Item, error) {
		return m.provider.CopyItem(ctx, models.ItemID(item), parentID)
	}, done)
}

func (m *MoveOrCopy) batch(operation string) batch {
	return batch{
		operation: operation,
		queue:     m.provider.Queue(),
		eventBus:  m.opts.EventBus,
		logger:    m.opts.Logger,
		progress:  m.opts.Progress,
	}
}
