package browse

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/state"
	"github.com/rescale/box-browse/internal/thumbnail"
)

type call struct {
	op       string
	id       models.Identifier
	parentID string
	access   string
}

// fakeProvider records mutations and answers them from fail.
type fakeProvider struct {
	queue   *dispatch.Queue
	folders map[string][]models.Item

	mu    sync.Mutex
	calls []call
	fail  map[string]error // item ID -> error
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	q := dispatch.NewQueue()
	t.Cleanup(q.Close)
	return &fakeProvider{queue: q, folders: map[string][]models.Item{}, fail: map[string]error{}}
}

func (p *fakeProvider) Queue() *dispatch.Queue { return p.queue }

func (p *fakeProvider) Enumerator(folderID string) *enumerator.Enumerator {
	items := p.folders[folderID]
	return enumerator.New(context.Background(), p.queue, 30, func(context.Context) (enumerator.Cursor, error) {
		return enumerator.NewSliceCursor(items...), nil
	})
}

func (p *fakeProvider) Search(string, string) *enumerator.Enumerator {
	return enumerator.Empty(p.queue)
}

func (p *fakeProvider) LoadThumbnail(string, int, func(image.Image)) *thumbnail.Token {
	return thumbnail.NewToken()
}

func (p *fakeProvider) FolderInfo(_ context.Context, folderID string) (*models.Folder, error) {
	return &models.Folder{Type: models.TypeFolder, ID: folderID}, nil
}

func (p *fakeProvider) CreateFolder(_ context.Context, name, parentID string) (*models.Folder, error) {
	return &models.Folder{Type: models.TypeFolder, ID: "new", Name: name}, nil
}

func (p *fakeProvider) record(c call) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	return p.fail[c.id.ID]
}

func (p *fakeProvider) recorded() []call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]call(nil), p.calls...)
}

func (p *fakeProvider) MoveItem(_ context.Context, id models.Identifier, parentID string) (models.Item, error) {
	if err := p.record(call{op: "move", id: id, parentID: parentID}); err != nil {
		return nil, err
	}
	return &models.File{Type: models.TypeFile, ID: id.ID, Name: "moved"}, nil
}

func (p *fakeProvider) CopyItem(_ context.Context, id models.Identifier, parentID string) (models.Item, error) {
	if err := p.record(call{op: "copy", id: id, parentID: parentID}); err != nil {
		return nil, err
	}
	return &models.File{Type: models.TypeFile, ID: "copy-of-" + id.ID}, nil
}

func (p *fakeProvider) SetSharedLink(_ context.Context, id models.Identifier, access string) (models.Item, error) {
	if err := p.record(call{op: "share", id: id, access: access}); err != nil {
		return nil, err
	}
	return &models.File{
		Type: models.TypeFile, ID: id.ID,
		SharedLink: &models.SharedLink{URL: "https://app.box.com/s/" + id.ID, Access: access},
	}, nil
}

var errDenied = errors.New("denied")

func boolPtr(b bool) *bool { return &b }

func perms(download, upload, share bool) *models.RawPermissions {
	return &models.RawPermissions{
		CanDownload: boolPtr(download),
		CanUpload:   boolPtr(upload),
		CanShare:    boolPtr(share),
	}
}

func pathOf(ids ...string) *models.PathCollection {
	pc := &models.PathCollection{TotalCount: len(ids)}
	for _, id := range ids {
		pc.Entries = append(pc.Entries, models.Folder{Type: models.TypeFolder, ID: id, Name: "f" + id})
	}
	return pc
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func stateListener(onChange func(events.ListingChange)) state.ListenerFuncs {
	return state.ListenerFuncs{
		OnItemsChanged: func(_ *state.Listing, change events.ListingChange) { onChange(change) },
	}
}
