package enumerator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/models"
)

func file(id string) models.Item {
	return &models.File{Type: models.TypeFile, ID: id, Name: id}
}

func ids(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, models.ItemID(it).ID)
	}
	return out
}

// request issues GetNextPage on the queue and returns a channel with the result.
func request(q *dispatch.Queue, e *Enumerator) <-chan Page {
	ch := make(chan Page, 1)
	q.Async(func() {
		e.GetNextPage(func(p Page) { ch <- p })
	})
	return ch
}

func wait(t *testing.T, ch <-chan Page) Page {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for page")
		return Page{}
	}
}

func sliceFactory(c Cursor) Factory {
	return func(context.Context) (Cursor, error) { return c, nil }
}

func TestEnumeratorPagesAndEndOfList(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()

	e := New(context.Background(), q, 2, sliceFactory(NewSliceCursor(file("A"), file("B"), file("C"))))

	p := wait(t, request(q, e))
	require.NoError(t, p.Err)
	assert.Equal(t, []string{"A", "B"}, ids(p.Items))
	assert.False(t, p.EndOfList)

	p = wait(t, request(q, e))
	require.NoError(t, p.Err)
	assert.Equal(t, []string{"C"}, ids(p.Items))
	assert.True(t, p.EndOfList)

	p = wait(t, request(q, e))
	require.NoError(t, p.Err)
	assert.Empty(t, p.Items)
	assert.True(t, p.EndOfList)
}

func TestEnumeratorShortPageIsSuccess(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()

	e := New(context.Background(), q, 10, sliceFactory(NewSliceCursor(file("1"), file("2"), file("3"))))
	p := wait(t, request(q, e))

	require.NoError(t, p.Err)
	assert.Len(t, p.Items, 3)
}

func TestEnumeratorFactoryIsLazyAndRunsOnce(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	factory := func(context.Context) (Cursor, error) {
		calls.Add(1)
		<-release
		return NewSliceCursor(file("A"), file("B"), file("C"), file("D")), nil
	}
	e := New(context.Background(), q, 1, factory)
	q.Flush()
	assert.Equal(t, int32(0), calls.Load(), "factory must not run before the first request")

	first := request(q, e)
	second := request(q, e)
	third := request(q, e)
	q.Flush()
	close(release)

	assert.Equal(t, []string{"A"}, ids(wait(t, first).Items))
	assert.Equal(t, []string{"B"}, ids(wait(t, second).Items))
	assert.Equal(t, []string{"C"}, ids(wait(t, third).Items))
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnumeratorFactoryFailureIsTerminal(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()

	boom := errors.New("cannot list")
	var calls atomic.Int32
	e := New(context.Background(), q, 5, func(context.Context) (Cursor, error) {
		calls.Add(1)
		return nil, boom
	})

	a := request(q, e)
	b := request(q, e)
	assert.ErrorIs(t, wait(t, a).Err, boom)
	assert.ErrorIs(t, wait(t, b).Err, boom)

	later := wait(t, request(q, e))
	assert.ErrorIs(t, later.Err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnumeratorMidPageError(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()

	cursor := NewSliceCursor(file("A"))
	cursor.Err = errors.New("network down")
	e := New(context.Background(), q, 3, sliceFactory(cursor))

	p := wait(t, request(q, e))
	assert.EqualError(t, p.Err, "network down")
	assert.Empty(t, p.Items)
}

func TestEnumeratorCancel(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()

	e := New(context.Background(), q, 2, sliceFactory(NewSliceCursor(file("A"), file("B"))))
	e.Cancel()

	p := wait(t, request(q, e))
	assert.ErrorIs(t, p.Err, context.Canceled)
}

func TestEmptyEnumerator(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()

	p := wait(t, request(q, Empty(q)))
	assert.NoError(t, p.Err)
	assert.Empty(t, p.Items)
	assert.True(t, p.EndOfList)
}

func TestPageSizeFloor(t *testing.T) {
	q := dispatch.NewQueue()
	defer q.Close()
	assert.Equal(t, 1, New(context.Background(), q, 0, sliceFactory(NewSliceCursor())).PageSize())
}
