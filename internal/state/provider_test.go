package state

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/thumbnail"
)

// fakeProvider serves folders and searches from memory.
type fakeProvider struct {
	queue    *dispatch.Queue
	pageSize int

	mu          sync.Mutex
	folders     map[string][]models.Item
	searchItems []models.Item
	queries     []string
	thumbs      map[string]image.Image
	thumbCalls  int
	holdThumbs  bool
	heldThumbs  []func()
	created     []string
	createErr   error
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	q := dispatch.NewQueue()
	t.Cleanup(q.Close)
	return &fakeProvider{
		queue:    q,
		pageSize: 2,
		folders:  map[string][]models.Item{},
		thumbs:   map[string]image.Image{},
	}
}

func (p *fakeProvider) Queue() *dispatch.Queue { return p.queue }

func (p *fakeProvider) Enumerator(folderID string) *enumerator.Enumerator {
	p.mu.Lock()
	items := p.folders[folderID]
	p.mu.Unlock()
	return sliceEnumerator(p.queue, p.pageSize, items...)
}

func (p *fakeProvider) Search(query, folderID string) *enumerator.Enumerator {
	p.mu.Lock()
	p.queries = append(p.queries, query)
	items := p.searchItems
	p.mu.Unlock()
	return sliceEnumerator(p.queue, p.pageSize, items...)
}

func (p *fakeProvider) searchQueries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queries...)
}

func (p *fakeProvider) LoadThumbnail(fileID string, size int, done func(image.Image)) *thumbnail.Token {
	tok := thumbnail.NewToken()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thumbCalls++
	img := p.thumbs[fileID]
	deliver := func() {
		p.queue.Async(func() {
			if !tok.Cancelled() {
				done(img)
			}
		})
	}
	if p.holdThumbs {
		p.heldThumbs = append(p.heldThumbs, deliver)
	} else {
		deliver()
	}
	return tok
}

func (p *fakeProvider) releaseThumbs() {
	p.mu.Lock()
	held := p.heldThumbs
	p.heldThumbs = nil
	p.mu.Unlock()
	for _, deliver := range held {
		deliver()
	}
}

func (p *fakeProvider) FolderInfo(_ context.Context, folderID string) (*models.Folder, error) {
	return &models.Folder{Type: models.TypeFolder, ID: folderID}, nil
}

func (p *fakeProvider) CreateFolder(_ context.Context, name, parentID string) (*models.Folder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created = append(p.created, parentID+"/"+name)
	return &models.Folder{Type: models.TypeFolder, ID: "new-" + name, Name: name}, nil
}

func (p *fakeProvider) MoveItem(context.Context, models.Identifier, string) (models.Item, error) {
	return nil, errors.New("not supported")
}

func (p *fakeProvider) CopyItem(context.Context, models.Identifier, string) (models.Item, error) {
	return nil, errors.New("not supported")
}

func (p *fakeProvider) SetSharedLink(context.Context, models.Identifier, string) (models.Item, error) {
	return nil, errors.New("not supported")
}

func sliceEnumerator(q *dispatch.Queue, pageSize int, items ...models.Item) *enumerator.Enumerator {
	return enumerator.New(context.Background(), q, pageSize, func(context.Context) (enumerator.Cursor, error) {
		return enumerator.NewSliceCursor(items...), nil
	})
}

// gatedEnumerator returns sliceEnumerator semantics, but every Next blocks
// until gate is closed or the enumerator is cancelled.
func gatedEnumerator(q *dispatch.Queue, pageSize int, gate <-chan struct{}, items ...models.Item) *enumerator.Enumerator {
	return enumerator.New(context.Background(), q, pageSize, func(context.Context) (enumerator.Cursor, error) {
		inner := enumerator.NewSliceCursor(items...)
		return enumerator.CursorFunc(func(ctx context.Context) (models.Item, error) {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return inner.Next(ctx)
		}), nil
	})
}

func failingEnumerator(q *dispatch.Queue, err error) *enumerator.Enumerator {
	return enumerator.New(context.Background(), q, 2, func(context.Context) (enumerator.Cursor, error) {
		return enumerator.CursorFunc(func(context.Context) (models.Item, error) {
			return nil, err
		}), nil
	})
}

func file(id, name string) *models.File {
	return &models.File{Type: models.TypeFile, ID: id, Name: name}
}

func folder(id, name string) *models.Folder {
	return &models.Folder{Type: models.TypeFolder, ID: id, Name: name}
}

func files(n int) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		id := string(rune('a' + i))
		items[i] = file(id, id+".txt")
	}
	return items
}

// changeRecorder records listing notifications.
type changeRecorder struct {
	changes chan events.ListingChange
	titles  chan string
}

func record(l *Listing) *changeRecorder {
	r := &changeRecorder{
		changes: make(chan events.ListingChange, 16),
		titles:  make(chan string, 16),
	}
	l.AddListener(ListenerFuncs{
		OnItemsChanged: func(_ *Listing, change events.ListingChange) { r.changes <- change },
		OnTitleChanged: func(l *Listing) { r.titles <- l.Title() },
	})
	return r
}

func (r *changeRecorder) next(t *testing.T) events.ListingChange {
	t.Helper()
	select {
	case change := <-r.changes:
		return change
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a listing change")
	}
	return ""
}

func (r *changeRecorder) none(t *testing.T) {
	t.Helper()
	select {
	case change := <-r.changes:
		t.Fatalf("unexpected listing change %q", change)
	case <-time.After(50 * time.Millisecond):
	}
}

func onQueue(t *testing.T, q *dispatch.Queue, fn func()) {
	t.Helper()
	require.True(t, q.Sync(fn), "queue closed")
}
