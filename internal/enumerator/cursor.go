package enumerator

import (
	"context"
	"sync"

	"github.com/rescale/box-browse/internal/models"
)

// SliceCursor yields a fixed list of items, then ErrEndOfList or Err.
type SliceCursor struct {
	// Err, when set, is returned instead of ErrEndOfList once the items
	// are exhausted.
	Err error

	mu    sync.Mutex
	items []models.Item
	pos   int
	calls int
}

// NewSliceCursor returns a cursor over items.
func NewSliceCursor(items ...models.Item) *SliceCursor {
	return &SliceCursor{items: items}
}

// Next implements Cursor.
func (c *SliceCursor) Next(ctx context.Context) (models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.items) {
		if c.Err != nil {
			return nil, c.Err
		}
		return nil, ErrEndOfList
	}
	item := c.items[c.pos]
	c.pos++
	return item, nil
}

// Calls returns how many times Next was called.
func (c *SliceCursor) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
