package state

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/models"
)

func TestListingAccumulatesPages(t *testing.T) {
	p := newFakeProvider(t)
	p.folders["0"] = files(5)
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{})
	rec := record(l)

	assert.Equal(t, StatusIdle, l.Status())
	assert.Equal(t, "All Files", l.Title())

	onQueue(t, p.queue, l.LoadNextPage)
	assert.Equal(t, events.ChangeReplaced, rec.next(t))
	assert.Equal(t, 2, l.ItemCount())
	assert.False(t, l.IsFinishedPaging())
	assert.Equal(t, StatusReady, l.Status())

	onQueue(t, p.queue, l.LoadNextPage)
	assert.Equal(t, events.ChangeAppended, rec.next(t))
	assert.Equal(t, 4, l.ItemCount())

	onQueue(t, p.queue, l.LoadNextPage)
	assert.Equal(t, events.ChangeAppended, rec.next(t))
	assert.Equal(t, 5, l.ItemCount())
	assert.True(t, l.IsFinishedPaging())
	assert.Equal(t, StatusFinished, l.Status())
	assert.NoError(t, l.Err())

	// Finished listings ignore further requests.
	onQueue(t, p.queue, l.LoadNextPage)
	rec.none(t)

	names := make([]string, 0, l.ItemCount())
	for _, item := range l.Items() {
		names = append(names, item.Name())
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"}, names)
}

func TestListingFullLastPageNeedsOneMoreFetch(t *testing.T) {
	p := newFakeProvider(t)
	p.folders["0"] = files(4)
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{})
	rec := record(l)

	onQueue(t, p.queue, l.LoadNextPage)
	rec.next(t)
	onQueue(t, p.queue, l.LoadNextPage)
	rec.next(t)
	assert.Equal(t, 4, l.ItemCount())
	assert.False(t, l.IsFinishedPaging(), "a full page does not prove the end")

	onQueue(t, p.queue, l.LoadNextPage)
	assert.Equal(t, events.ChangeAppended, rec.next(t))
	assert.Equal(t, 4, l.ItemCount())
	assert.True(t, l.IsFinishedPaging())
}

func TestListingEmptyFolderFinishesOnFirstPage(t *testing.T) {
	p := newFakeProvider(t)
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{})
	rec := record(l)

	onQueue(t, p.queue, l.LoadNextPage)
	assert.Equal(t, events.ChangeReplaced, rec.next(t))
	assert.Zero(t, l.ItemCount())
	assert.True(t, l.IsFinishedPaging())
}

func TestListingAtMostOnePageInFlight(t *testing.T) {
	p := newFakeProvider(t)
	gate := make(chan struct{})
	var created atomic.Int32
	l := NewListing("Docs", p, func() *enumerator.Enumerator {
		created.Add(1)
		return gatedEnumerator(p.queue, 2, gate, files(6)...)
	}, ListingOptions{})
	rec := record(l)

	onQueue(t, p.queue, func() {
		l.LoadNextPage()
		l.LoadNextPage()
	})
	assert.True(t, l.IsLoading())
	assert.Equal(t, StatusLoading, l.Status())

	close(gate)
	assert.Equal(t, events.ChangeReplaced, rec.next(t))
	rec.none(t)

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, 2, l.ItemCount())
	assert.False(t, l.IsLoading())
}

func TestListingReloadDropsStaleResult(t *testing.T) {
	p := newFakeProvider(t)
	gate := make(chan struct{})
	defer close(gate)

	var calls atomic.Int32
	l := NewListing("Docs", p, func() *enumerator.Enumerator {
		if calls.Add(1) == 1 {
			return gatedEnumerator(p.queue, 2, gate, files(2)...)
		}
		return sliceEnumerator(p.queue, 2, file("z", "fresh.txt"))
	}, ListingOptions{})
	rec := record(l)

	onQueue(t, p.queue, l.LoadNextPage)
	onQueue(t, p.queue, l.ReloadFirstPage)

	assert.Equal(t, events.ChangeReplaced, rec.next(t))
	require.Equal(t, 1, l.ItemCount())
	assert.Equal(t, "fresh.txt", l.ItemAt(0).Name())

	// The cancelled first enumerator reports a context error, which is dropped.
	time.Sleep(50 * time.Millisecond)
	p.queue.Flush()
	rec.none(t)
	assert.NoError(t, l.Err())
	assert.Equal(t, 1, l.ItemCount())
	assert.True(t, l.IsFinishedPaging())
}

func TestListingReloadKeepsItemsUntilReplaced(t *testing.T) {
	p := newFakeProvider(t)
	gate := make(chan struct{})

	var calls atomic.Int32
	l := NewListing("Docs", p, func() *enumerator.Enumerator {
		if calls.Add(1) == 1 {
			return sliceEnumerator(p.queue, 2, files(3)...)
		}
		return gatedEnumerator(p.queue, 2, gate, file("z", "z.txt"))
	}, ListingOptions{})
	rec := record(l)

	onQueue(t, p.queue, l.LoadNextPage)
	rec.next(t)
	require.Equal(t, 2, l.ItemCount())

	onQueue(t, p.queue, l.ReloadFirstPage)
	assert.Equal(t, 2, l.ItemCount())
	assert.True(t, l.IsLoading())

	close(gate)
	assert.Equal(t, events.ChangeReplaced, rec.next(t))
	require.Equal(t, 1, l.ItemCount())
	assert.Equal(t, "z.txt", l.ItemAt(0).Name())
}

func TestListingErrorStopsPaging(t *testing.T) {
	p := newFakeProvider(t)
	bus := events.NewEventBus(16)
	defer bus.Close()
	errCh := bus.Subscribe(events.EventListingError)

	boom := errors.New("boom")
	var calls atomic.Int32
	l := NewListing("Docs", p, func() *enumerator.Enumerator {
		if calls.Add(1) == 1 {
			return failingEnumerator(p.queue, boom)
		}
		return sliceEnumerator(p.queue, 2, files(1)...)
	}, ListingOptions{EventBus: bus})
	rec := record(l)

	onQueue(t, p.queue, l.LoadNextPage)
	assert.Equal(t, events.ChangeReplaced, rec.next(t))
	assert.ErrorIs(t, l.Err(), boom)
	assert.True(t, l.IsFinishedPaging())
	assert.Equal(t, StatusFailed, l.Status())
	assert.Zero(t, l.ItemCount())

	select {
	case ev := <-errCh:
		errEv := ev.(*events.ListingErrorEvent)
		assert.Equal(t, l.ID(), errEv.ListingID)
		assert.ErrorIs(t, errEv.Error, boom)
	case <-time.After(time.Second):
		t.Fatal("no listing error event")
	}

	onQueue(t, p.queue, l.LoadNextPage)
	rec.none(t)

	onQueue(t, p.queue, l.ReloadFirstPage)
	rec.next(t)
	assert.NoError(t, l.Err())
	assert.Equal(t, 1, l.ItemCount())
	assert.Equal(t, StatusFinished, l.Status())
}

func TestListingPublishesChanges(t *testing.T) {
	p := newFakeProvider(t)
	p.folders["7"] = files(3)
	bus := events.NewEventBus(16)
	defer bus.Close()
	ch := bus.Subscribe(events.EventListingChanged)

	l := NewFolderListing(p, folder("7", "Docs"), ListingOptions{EventBus: bus})
	onQueue(t, p.queue, l.LoadNextPage)

	select {
	case ev := <-ch:
		changed := ev.(*events.ListingChangedEvent)
		assert.Equal(t, l.ID(), changed.ListingID)
		assert.Equal(t, "Docs", changed.Title)
		assert.Equal(t, events.ChangeReplaced, changed.Change)
		assert.Equal(t, 2, changed.Added)
		assert.Equal(t, 2, changed.Total)
		assert.False(t, changed.Finished)
	case <-time.After(time.Second):
		t.Fatal("no listing changed event")
	}
}

func TestListingItemAtPanicsOutOfRange(t *testing.T) {
	p := newFakeProvider(t)
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{})
	assert.Panics(t, func() { l.ItemAt(0) })
	assert.Panics(t, func() { l.ItemAt(-1) })
}

func TestListingSetTitle(t *testing.T) {
	p := newFakeProvider(t)
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{})
	rec := record(l)

	onQueue(t, p.queue, func() {
		l.SetTitle("All Files")
		l.SetTitle("Renamed")
	})
	select {
	case title := <-rec.titles:
		assert.Equal(t, "Renamed", title)
	default:
		t.Fatal("title change not reported")
	}
	assert.Empty(t, rec.titles)
}

func TestListingRemoveListener(t *testing.T) {
	p := newFakeProvider(t)
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{})

	var calls atomic.Int32
	remove := l.AddListener(ListenerFuncs{OnTitleChanged: func(*Listing) { calls.Add(1) }})
	onQueue(t, p.queue, func() { l.SetTitle("one") })
	remove()
	onQueue(t, p.queue, func() { l.SetTitle("two") })
	assert.Equal(t, int32(1), calls.Load())
}

func TestListingSelection(t *testing.T) {
	p := newFakeProvider(t)
	p.folders["0"] = files(2)
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{})
	rec := record(l)
	onQueue(t, p.queue, l.LoadNextPage)
	rec.next(t)

	b := models.Identifier{Type: models.TypeFile, ID: "b"}
	assert.True(t, l.SetSelected(b, true))
	assert.False(t, l.SetSelected(models.Identifier{Type: models.TypeFile, ID: "x"}, true))

	selected := l.SelectedItems()
	require.Len(t, selected, 1)
	assert.Equal(t, b, selected[0].ID())

	l.ResetSelection()
	assert.Empty(t, l.SelectedItems())
}

func TestListingCustomItemFactoryAndPrompt(t *testing.T) {
	p := newFakeProvider(t)
	p.folders["0"] = []models.Item{folder("1", "Sub")}

	var wrapped atomic.Int32
	l := NewFolderListing(p, folder("0", "All Files"), ListingOptions{
		Prompt: "Pick one",
		NewItem: func(item models.Item) *Item {
			wrapped.Add(1)
			return NewItemWithOptions(item, p, ItemOptions{DisableSearch: true})
		},
	})
	rec := record(l)
	onQueue(t, p.queue, l.LoadNextPage)
	rec.next(t)

	assert.Equal(t, "Pick one", l.Prompt())
	assert.Equal(t, int32(1), wrapped.Load())
	assert.Nil(t, l.ItemAt(0).Search())
}

func TestListingCreateFolder(t *testing.T) {
	p := newFakeProvider(t)
	l := NewFolderListing(p, folder("9", "Docs"), ListingOptions{})
	require.NotNil(t, l.CreateFolder())
	assert.Equal(t, "9", l.CreateFolder().Parent().ID)

	search := NewSearch(p, "9", SearchOptions{})
	assert.Nil(t, search.Listing().CreateFolder())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}
