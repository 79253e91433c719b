// Package enumerator turns a remote cursor into fixed-size page fetches.
//
// An Enumerator is created with a page size and a factory for its cursor.
// The factory runs once, lazily, when the first page is requested. Page
// requests made while the cursor is still being created are queued and
// served, in order, once it resolves. Every result is delivered on the
// enumerator's dispatch queue.
package enumerator

import (
	"context"
	"errors"

	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/models"
)

// ErrEndOfList is returned by a Cursor that has no more items. It ends a
// page successfully.
var ErrEndOfList = errors.New("end of list")

// Cursor is a single-direction handle to a remote listing.
type Cursor interface {
	// Next returns the next item, ErrEndOfList, or another error.
	Next(ctx context.Context) (models.Item, error)
}

// CursorFunc adapts a function to a Cursor.
type CursorFunc func(ctx context.Context) (models.Item, error)

// Next calls f.
func (f CursorFunc) Next(ctx context.Context) (models.Item, error) {
	return f(ctx)
}

// Factory creates the cursor of an enumerator.
type Factory func(ctx context.Context) (Cursor, error)

// Page is the result of one page request. A nil Err with no items means
// the listing is exhausted.
type Page struct {
	Items []models.Item
	Err   error

	// EndOfList is set when the cursor reported ErrEndOfList while this
	// page was read.
	EndOfList bool
}

// Enumerator fetches pages from a lazily created cursor.
//
// GetNextPage must be called from a function running on the queue passed
// to New; all fields below the queue are owned by it.
type Enumerator struct {
	queue    *dispatch.Queue
	pageSize int
	factory  Factory

	ctx    context.Context
	cancel context.CancelFunc

	started   bool
	resolved  bool
	cursor    Cursor
	cursorErr error
	waiting   []func(Page)
	lastFetch chan struct{} // closed when the most recent fetch finishes
}

// New returns an enumerator. pageSize values below 1 are treated as 1.
// Cancelling ctx, or calling Cancel, aborts cursor creation and page reads.
func New(ctx context.Context, queue *dispatch.Queue, pageSize int, factory Factory) *Enumerator {
	if pageSize < 1 {
		pageSize = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Enumerator{
		queue:    queue,
		pageSize: pageSize,
		factory:  factory,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Empty returns an enumerator whose listing has no items.
func Empty(queue *dispatch.Queue) *Enumerator {
	return New(context.Background(), queue, 1, func(context.Context) (Cursor, error) {
		return NewSliceCursor(), nil
	})
}

// PageSize returns the maximum number of items per page.
func (e *Enumerator) PageSize() int {
	return e.pageSize
}

// Cancel aborts outstanding work. Results still in flight are delivered,
// typically as context errors.
func (e *Enumerator) Cancel() {
	e.cancel()
}

// GetNextPage requests the next page. onResult runs exactly once, on the
// queue.
func (e *Enumerator) GetNextPage(onResult func(Page)) {
	if !e.resolved {
		e.waiting = append(e.waiting, onResult)
		if !e.started {
			e.started = true
			e.createCursor()
		}
		return
	}
	e.serve(onResult)
}

func (e *Enumerator) createCursor() {
	go func() {
		cursor, err := e.factory(e.ctx)
		e.queue.Async(func() {
			e.resolved = true
			e.cursor = cursor
			e.cursorErr = err
			if err == nil && cursor == nil {
				e.cursorErr = errors.New("enumerator: factory returned no cursor")
			}

			waiting := e.waiting
			e.waiting = nil
			for _, onResult := range waiting {
				e.serve(onResult)
			}
		})
	}()
}

// serve answers a request once the cursor has resolved (runs on the queue).
func (e *Enumerator) serve(onResult func(Page)) {
	if e.cursorErr != nil {
		err := e.cursorErr
		e.queue.Async(func() { onResult(Page{Err: err}) })
		return
	}

	prev := e.lastFetch
	done := make(chan struct{})
	e.lastFetch = done

	go func() {
		if prev != nil {
			<-prev
		}
		page := e.readPage()
		close(done)
		e.queue.Async(func() { onResult(page) })
	}()
}

// readPage reads up to pageSize items from the cursor.
func (e *Enumerator) readPage() Page {
	items := make([]models.Item, 0, e.pageSize)
	for len(items) < e.pageSize {
		if err := e.ctx.Err(); err != nil {
			return Page{Err: err}
		}
		item, err := e.cursor.Next(e.ctx)
		if errors.Is(err, ErrEndOfList) {
			return Page{Items: items, EndOfList: true}
		}
		if err != nil {
			return Page{Err: err}
		}
		items = append(items, item)
	}
	return Page{Items: items}
}
