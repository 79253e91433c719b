package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/predicate"
	"github.com/rescale/box-browse/internal/state"
)

// loadListing pages through l, the way a scrolling view would, until it
// is finished or holds at least limit items. A limit of 0 loads
// everything. The listing's error, if any, is returned.
func loadListing(ctx context.Context, l *state.Listing, limit int) error {
	changed := make(chan struct{}, 1)
	remove := l.AddListener(state.ListenerFuncs{
		OnItemsChanged: func(*state.Listing, events.ListingChange) {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	defer remove()

	queue := l.Provider().Queue()
	for {
		var done bool
		queue.Sync(func() {
			done = l.IsFinishedPaging() || (limit > 0 && l.ItemCount() >= limit)
			if !done {
				l.LoadNextPage()
			}
		})
		if done {
			return l.Err()
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// itemFilter selects listing items by name pattern.
type itemFilter struct {
	match predicate.Predicate[string]
}

// newItemFilter matches item names against shell-style patterns. No
// patterns matches everything.
func newItemFilter(patterns []string) (itemFilter, error) {
	if len(patterns) == 0 {
		return itemFilter{match: predicate.Always[string]()}, nil
	}
	matchers := make([]predicate.Predicate[string], 0, len(patterns))
	for _, pattern := range patterns {
		glob, err := predicate.Glob(pattern)
		if err != nil {
			return itemFilter{}, err
		}
		matchers = append(matchers, func(name string) bool {
			return glob(&models.File{Name: name})
		})
	}
	match := predicate.Any(matchers...)
	return itemFilter{match: match}, nil
}

func (f itemFilter) apply(items []*state.Item) []*state.Item {
	var out []*state.Item
	for _, item := range items {
		if f.match(item.Name()) {
			out = append(out, item)
		}
	}
	return out
}

// itemKind is the short type column of listings.
func itemKind(item *state.Item) string {
	switch item.Model().(type) {
	case *models.Folder:
		return "dir"
	case *models.WebLink:
		return "link"
	default:
		return "file"
	}
}

// printItems writes one line per item: kind, ID, name and, when long is
// set, the detail line.
func printItems(w io.Writer, items []*state.Item, mode state.DetailMode, long bool) {
	idWidth := 2
	for _, item := range items {
		if n := len(item.ID().ID); n > idWidth {
			idWidth = n
		}
	}
	for _, item := range items {
		name := item.Name()
		if models.IsFolder(item.Model()) {
			name += "/"
		}
		if !long {
			fmt.Fprintf(w, "%-4s  %-*s  %s\n", itemKind(item), idWidth, item.ID().ID, name)
			continue
		}
		fmt.Fprintf(w, "%-4s  %-*s  %-40s  %s\n", itemKind(item), idWidth, item.ID().ID, name, item.Detail(mode))
	}
}

// printFooter reports how much of the listing was shown.
func printFooter(w io.Writer, l *state.Listing, shown int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d item", shown)
	if shown != 1 {
		b.WriteString("s")
	}
	if !l.IsFinishedPaging() {
		b.WriteString(" (more available)")
	}
	fmt.Fprintln(w, b.String())
}
